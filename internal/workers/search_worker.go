package workers

import (
	"context"
	"time"

	"usta_backend/internal/logger"
	"usta_backend/internal/queue"
	"usta_backend/internal/repositories"
)

// SearchWorker пересобирает денормализованный search_text исполнителей.
// Отдельная очередь: пересборка дешевая, но не должна конкурировать
// с задачами модерации за воркеров.
type SearchWorker struct {
	q             queue.Queue
	performerRepo repositories.PerformerRepository
}

func NewSearchWorker(q queue.Queue, performerRepo repositories.PerformerRepository) *SearchWorker {
	return &SearchWorker{q: q, performerRepo: performerRepo}
}

func (w *SearchWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *SearchWorker) run(ctx context.Context) {
	log := logger.With("worker", "search_rebuild")
	log.Info("search rebuild worker started")

	for {
		job, err := w.q.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("search rebuild worker stopped")
				return
			}
			log.Error("dequeue failed", "error", err.Error())
			time.Sleep(time.Second)
			continue
		}

		if job.EntityType != queue.EntitySearchRebuild {
			continue
		}
		if err := w.performerRepo.RebuildSearchText(job.EntityID); err != nil {
			log.Error("search text rebuild failed",
				"performer_id", job.EntityID,
				"error", err.Error(),
			)
		}
	}
}
