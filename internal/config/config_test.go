package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medquest/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Addr:              ":8080",
		DBPath:            "test.db",
		LogLevel:          "INFO",
		NotesURL:          "https://example.com/notes.json",
		QBankURL:          "https://example.com/qbank.json",
		LongFormThreshold: 280,
		BattleLength:      10,
		ReloadWorkerCount: 1,
		ReloadQueueSize:   8,
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_MissingNotesURL(t *testing.T) {
	cfg := validConfig()
	cfg.NotesURL = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTES_URL")
}

func TestValidate_MissingQBankURL(t *testing.T) {
	cfg := validConfig()
	cfg.QBankURL = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QBANK_URL")
}

func TestValidate_NonPositiveThreshold(t *testing.T) {
	cfg := validConfig()
	cfg.LongFormThreshold = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LONG_FORM_THRESHOLD")
}

func TestValidate_NonPositiveBattleLength(t *testing.T) {
	cfg := validConfig()
	cfg.BattleLength = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATTLE_LENGTH")
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg := config.Load()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, 280, cfg.LongFormThreshold)
	assert.Equal(t, 10, cfg.BattleLength)
	assert.Nil(t, cfg.LongQBankURLs)
}

func TestLoad_LongQBankURLList(t *testing.T) {
	os.Clearenv()
	t.Setenv("LONG_QBANK_URLS", "https://a.example/l1.json, https://a.example/l2.json ,")

	cfg := config.Load()
	assert.Equal(t, []string{"https://a.example/l1.json", "https://a.example/l2.json"}, cfg.LongQBankURLs)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	os.Clearenv()
	t.Setenv("BATTLE_LENGTH", "not-a-number")

	cfg := config.Load()
	assert.Equal(t, 10, cfg.BattleLength)
}
