package worker

import (
	"context"

	"medquest/internal/logger"
)

// ContentLoader is the slice of the content service the reload job needs.
type ContentLoader interface {
	Load(ctx context.Context) error
}

// ReloadContentJob refetches and rebuilds the content indices in the
// background. A failed reload leaves the previous indices serving.
type ReloadContentJob struct {
	Loader ContentLoader
}

func (j *ReloadContentJob) Name() string { return "reload-content" }

func (j *ReloadContentJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("reloading content indices")
	if err := j.Loader.Load(ctx); err != nil {
		log.Error("content reload failed, keeping previous indices: %v", err)
		return err
	}
	return nil
}
