package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"soulseer/config"
	"soulseer/services/dispatch"
	"soulseer/services/tasks"

	"github.com/hibiken/asynq"
)

// InitExpiryWorker runs the async worker that sweeps overdue reading
// requests in the background.
func InitExpiryWorker(dispatcher dispatch.Dispatcher) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskQueue,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeExpireRequest, handleExpireTask(dispatcher))

	// Start async worker with retry logic.
	go func() {
		log.Println("[ExpiryWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ExpiryWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ExpiryWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleExpireTask(dispatcher dispatch.Dispatcher) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.ExpirePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[ExpiryWorker] invalid payload: %v", err)
			return err
		}
		return dispatcher.ExpireIfDue(ctx, p.RequestID)
	}
}

// NewTaskClient returns the asynq client used to enqueue deferred sweeps.
func NewTaskClient() *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskQueue,
	})
}
