package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/k4sper1love/school-service/internal/cache"
	"github.com/k4sper1love/school-service/internal/events"
	"github.com/k4sper1love/school-service/internal/mail"
	"github.com/k4sper1love/school-service/internal/repositories/postgres"
	"github.com/k4sper1love/school-service/pkg"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume notification tasks until interrupted",
	Long: `worker subscribes to the configured notification topic, stores one
in-app notification per recipient and sends the matching email. It is only
useful with a shared queue backend such as kafka.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer env.close()

		var redisClient *redis.Client
		if env.cfg.RedisURL != "" {
			redisClient, err = pkg.NewRedisClient(env.cfg)
			if err != nil {
				env.logger.Warn("Redis unavailable, inbox caches will not be invalidated", "error", err)
				redisClient = nil
			} else {
				defer redisClient.Close()
			}
		}
		cacheLayer := cache.NewLayer(cache.NewCacheHelper(redisClient, cache.DefaultPrefix), env.cfg.CacheTTL, env.logger)

		queue, err := events.NewQueue(env.cfg.Queue, env.logger)
		if err != nil {
			return err
		}
		defer queue.Close()

		mailer, err := mail.New(env.cfg.Mail, env.logger)
		if err != nil {
			return err
		}

		worker, err := events.NewWorker(events.WorkerConfig{Topic: queue.Topic, From: env.cfg.Mail.From},
			queue.Subscriber, mailer, postgres.NewPostgreSQLRepository(env.db).Notification(), cacheLayer, env.logger, nil)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env.logger.Info("Notification worker starting", "topic", queue.Topic, "backend", env.cfg.Queue.Backend)
		if err := worker.Run(ctx); err != nil {
			return fmt.Errorf("worker stopped: %w", err)
		}
		env.logger.Info("Notification worker stopped")
		return nil
	},
}
