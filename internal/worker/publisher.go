package worker

import (
	"context"
	"time"

	"feedmaker/internal/logger"
)

// StartPublishing сразу публикует все каналы, затем повторяет это каждые interval,
// пока не отменён ctx.
func (w *Worker) StartPublishing(ctx context.Context, interval time.Duration) {
	log := logger.Log.WithFields(map[string]interface{}{
		"service":  "publisher",
		"interval": interval.String(),
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.publishCycle(ctx, log)
	for {
		select {
		case <-ticker.C:
			w.publishCycle(ctx, log)

		case <-ctx.Done():
			log.Info("Stopping publisher by context")
			return
		}
	}
}

func (w *Worker) publishCycle(ctx context.Context, log *logger.Entry) {
	log.Info("Starting new publishing cycle")
	if err := w.PublishAll(ctx); err != nil {
		log.Warnf("Publishing cycle finished with errors: %v", err)
	}
}
