package worker

import (
	"fmt"
	"log"

	"content_trans_api/config"
	"content_trans_api/pkg/tasks"
	"content_trans_api/service/bootstrap"

	"github.com/hibiken/asynq"
)

func Run() {
	// Wires the synchronization engine into the task package before any
	// handler can fire.
	bootstrap.Engine()

	log.Println("Starting the send queue processor...")
	tasks.StartSendQueue()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: fmt.Sprintf("%s:%d", config.Cfg.Redis.Host, config.Cfg.Redis.Port), Password: config.Cfg.Redis.Password},
		asynq.Config{
			// Specify how many concurrent workers to use
			Concurrency: 10,
			// Optionally specify multiple queues with different priority.
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.NotificationProcess, tasks.HandleNotificationProcessTask)
	mux.HandleFunc(tasks.WebhookNotify, tasks.HandleWebhookNotifyTask)

	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
