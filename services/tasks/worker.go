package tasks

import (
	"caregate/config"
	"caregate/services/notification"
	"caregate/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// NewClient returns an asynq client on the reminder queue database.
func NewClient() *asynq.Client {
	return asynq.NewClient(redisOpt())
}

// StartWorker runs the reminder worker in the background.
func StartWorker(notifier notification.Service) *asynq.Server {
	srv := asynq.NewServer(
		redisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := NewServeMux(NewHandler(notifier))

	go func() {
		utils.GetLogger().Info("starting reminder worker")
		if err := srv.Run(mux); err != nil {
			utils.GetLogger().Error("reminder worker stopped", zap.Error(err))
		}
	}()
	return srv
}

func redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisAsynqDB,
	}
}
