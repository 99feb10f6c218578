package queue

import (
	"github.com/ankitjain28/gramflow/internal/service"
)

// Queue handles the per-post publish tasks. Each scheduled post gets one
// delayed task enqueued at schedule time; the periodic sweep covers tasks
// that never arrive.
type Queue struct {
	publisher service.PublisherService
}

func NewQueue(publisher service.PublisherService) *Queue {
	return &Queue{publisher: publisher}
}

const TaskTypePublishPost = "publish:post"

type PublishPostPayload struct {
	PostID int64 `json:"post_id"`
}
