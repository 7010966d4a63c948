package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"

	"medquest/internal/logger"
	"medquest/internal/models"
	"medquest/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

const settingsKey = "quiz"

type progressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a new ProgressRepository implementation.
func NewProgressRepository(db *sql.DB) repository.ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) Snapshot(ctx context.Context) (*repository.Snapshot, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("loading progress snapshot")

	snap := &repository.Snapshot{
		Stats: make(map[repository.StatKey]models.ProgressRecord),
	}

	rows, err := r.db.QueryContext(ctx, `SELECT topic, subtopic, attempted, correct FROM sub_stats`)
	if err != nil {
		log.Error("failed to query stats: %v", err)
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var key repository.StatKey
		var rec models.ProgressRecord
		if err := rows.Scan(&key.Topic, &key.Subtopic, &rec.Attempted, &rec.Correct); err != nil {
			return nil, err
		}
		snap.Stats[key] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	unlockRows, err := r.db.QueryContext(ctx, `SELECT topic FROM topic_unlocks ORDER BY unlocked_at, topic`)
	if err != nil {
		log.Error("failed to query unlocks: %v", err)
		return nil, err
	}
	defer unlockRows.Close()
	for unlockRows.Next() {
		var topic string
		if err := unlockRows.Scan(&topic); err != nil {
			return nil, err
		}
		snap.Unlocks = append(snap.Unlocks, topic)
	}
	if err := unlockRows.Err(); err != nil {
		return nil, err
	}

	if snap.Missed, err = r.ListLedger(ctx, repository.LedgerMissed, repository.LedgerFilter{}); err != nil {
		return nil, err
	}
	if snap.Retested, err = r.ListLedger(ctx, repository.LedgerRetested, repository.LedgerFilter{}); err != nil {
		return nil, err
	}
	if snap.Results, err = r.ListQuizResults(ctx, 0); err != nil {
		return nil, err
	}

	var raw string
	err = r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, settingsKey).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// never saved, caller falls back to defaults
	case err != nil:
		log.Error("failed to query settings: %v", err)
		return nil, err
	default:
		var s models.Settings
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			log.Warn("stored settings are corrupt, ignoring: %v", err)
		} else {
			snap.Settings = &s
		}
	}

	log.Debug("snapshot loaded: %d stats, %d unlocks, %d missed, %d retested, %d results",
		len(snap.Stats), len(snap.Unlocks), len(snap.Missed), len(snap.Retested), len(snap.Results))
	return snap, nil
}

func (r *progressRepository) SaveStat(ctx context.Context, key repository.StatKey, rec models.ProgressRecord) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("saving stat: topic=%s, subtopic=%s, %d/%d", key.Topic, key.Subtopic, rec.Correct, rec.Attempted)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO sub_stats (topic, subtopic, attempted, correct)
VALUES (?, ?, ?, ?)
ON CONFLICT (topic, subtopic) DO UPDATE SET attempted = excluded.attempted, correct = excluded.correct
`, key.Topic, key.Subtopic, rec.Attempted, rec.Correct)
	if err != nil {
		log.Error("failed to save stat: %v", err)
	}
	return err
}

func (r *progressRepository) AddUnlock(ctx context.Context, topic string) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("adding unlock: topic=%s", topic)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO topic_unlocks (topic) VALUES (?) ON CONFLICT (topic) DO NOTHING`, topic)
	if err != nil {
		log.Error("failed to add unlock: %v", err)
	}
	return err
}

func (r *progressRepository) PutMissed(ctx context.Context, m models.MissedQuestion) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("recording missed question: qid=%s, topic=%s", m.QID, m.Topic)

	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO ledger_entries (qid, ledger, topic, subtopic, week_id, retested_at, payload)
VALUES (?, 'missed', ?, ?, ?, NULL, ?)
ON CONFLICT (qid) DO UPDATE SET
    ledger = 'missed', topic = excluded.topic, subtopic = excluded.subtopic,
    week_id = excluded.week_id, retested_at = NULL, payload = excluded.payload
`, m.QID, m.Topic, m.Subtopic, m.WeekID, string(payload))
	if err != nil {
		log.Error("failed to record missed question: %v", err)
	}
	return err
}

func (r *progressRepository) MoveToRetested(ctx context.Context, qid string, retestedAt time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("moving to retested ledger: qid=%s", qid)

	return tx(ctx, r.db, func(t *sql.Tx) error {
		var raw string
		err := t.QueryRowContext(ctx,
			`SELECT payload FROM ledger_entries WHERE qid = ? AND ledger = 'missed'`, qid).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("qid=%s not in missed ledger, nothing to move", qid)
			return nil
		}
		if err != nil {
			return err
		}

		var m models.MissedQuestion
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return err
		}
		m.RetestedAt = &retestedAt
		payload, err := json.Marshal(m)
		if err != nil {
			return err
		}

		_, err = t.ExecContext(ctx,
			`UPDATE ledger_entries SET ledger = 'retested', retested_at = ?, payload = ? WHERE qid = ?`,
			retestedAt, string(payload), qid)
		return err
	})
}

func (r *progressRepository) ClearLedger(ctx context.Context, ledger repository.Ledger) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Info("clearing ledger: %s", ledger)

	_, err := r.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE ledger = ?`, string(ledger))
	if err != nil {
		log.Error("failed to clear ledger: %v", err)
	}
	return err
}

func (r *progressRepository) ListLedger(ctx context.Context, ledger repository.Ledger, filter repository.LedgerFilter) ([]models.MissedQuestion, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")

	query := sqlBuilder.
		Select("payload").
		From("ledger_entries").
		Where(squirrel.Eq{"ledger": string(ledger)}).
		OrderBy("rowid")
	if filter.Topic != "" {
		query = query.Where(squirrel.Eq{"topic": filter.Topic})
	}
	if filter.Subtopic != "" {
		query = query.Where(squirrel.Eq{"subtopic": filter.Subtopic})
	}
	if filter.WeekID != "" {
		query = query.Where(squirrel.Eq{"week_id": filter.WeekID})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list %s ledger: %v", ledger, err)
		return nil, err
	}
	defer rows.Close()

	var out []models.MissedQuestion
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var m models.MissedQuestion
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			log.Warn("skipping corrupt ledger payload: %v", err)
			continue
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *progressRepository) AppendQuizResult(ctx context.Context, res models.QuizResult) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("appending quiz result: title=%s, %d/%d", res.Title, res.Correct, res.Total)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO quiz_results (title, total, correct, ts) VALUES (?, ?, ?, ?)`,
		res.Title, res.Total, res.Correct, res.TS)
	if err != nil {
		log.Error("failed to append quiz result: %v", err)
	}
	return err
}

func (r *progressRepository) ListQuizResults(ctx context.Context, limit int) ([]models.QuizResult, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")

	query := sqlBuilder.
		Select("title", "total", "correct", "ts").
		From("quiz_results").
		OrderBy("id DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list quiz results: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.QuizResult
	for rows.Next() {
		var res models.QuizResult
		if err := rows.Scan(&res.Title, &res.Total, &res.Correct, &res.TS); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *progressRepository) SaveSettings(ctx context.Context, s models.Settings) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("saving settings")

	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value
`, settingsKey, string(payload))
	if err != nil {
		log.Error("failed to save settings: %v", err)
	}
	return err
}
