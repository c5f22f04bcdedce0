package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TypeExpireRequest = "request:expire"

// ExpirePayload identifies the reading request a deferred sweep should check.
type ExpirePayload struct {
	RequestID string `json:"requestId"`
}

// NewExpireRequestTask builds the deferred task that sweeps a reading
// request at its expiry instant. Expiry is also enforced lazily on read, so
// a lost task only delays the status flip, never correctness.
func NewExpireRequestTask(requestID string, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(ExpirePayload{RequestID: requestID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeExpireRequest, b)
	opts := []asynq.Option{asynq.ProcessAt(fireAt)}

	return task, opts, nil
}
