package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDocumentRender renders a quotation or order PDF into the document cache.
	TaskDocumentRender = "document:render"
)

const (
	DocumentQuotation = "quotation"
	DocumentOrder     = "order"
)

// DocumentRenderPayload names the document to pre-render.
type DocumentRenderPayload struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

// NewDocumentRenderTask constructs an Asynq task.
func NewDocumentRenderTask(payload DocumentRenderPayload) (*asynq.Task, error) {
	if payload.Kind != DocumentQuotation && payload.Kind != DocumentOrder {
		return nil, fmt.Errorf("jobs: unknown document kind %q", payload.Kind)
	}
	if payload.ID <= 0 {
		return nil, fmt.Errorf("jobs: document id required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDocumentRender, data, asynq.MaxRetry(3)), nil
}
