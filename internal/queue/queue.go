package queue

import (
	"context"
	"errors"
)

// ErrEmpty возвращается неблокирующими реализациями, когда очередь пуста.
var ErrEmpty = errors.New("queue is empty")

// Вид контента, который нужно промодерировать.
type EntityType string

const (
	EntityReview           EntityType = "review"
	EntityReviewAttachment EntityType = "review_attachment"
	EntityOrder            EntityType = "order"
	EntityOrderAttachment  EntityType = "order_attachment"
	EntityService          EntityType = "performer_service"
	EntityPerformer        EntityType = "performer"
	EntitySearchRebuild    EntityType = "search_rebuild"
)

// Job - задача фонового пайплайна. Attempt ведет счетчик повторов:
// очередь его не трогает, инкрементирует воркер при ретрае.
type Job struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Attempt    int        `json:"attempt"`
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	// Dequeue блокируется до появления задачи или отмены контекста.
	Dequeue(ctx context.Context) (*Job, error)
}
