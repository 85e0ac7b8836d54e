package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ecom_stationery/internal/config"
	sl "ecom_stationery/internal/lib/logger"
	"ecom_stationery/internal/mailer"
	"ecom_stationery/internal/rabbitmq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}

	cfg := config.MustLoad(path)

	log := sl.Setup(cfg.Env, sl.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})

	log.Info("Starting otp_sender", slog.String("env", cfg.Env))

	if err := run(ctx, cfg, log); err != nil {
		log.Error("otp_sender stopped with error", sl.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	r, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName, cfg.OTP.TTL)
	if err != nil {
		return err
	}
	defer r.Close()

	m := &mailer.Mailer{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}

	done := make(chan error, 1)

	go func() {
		done <- r.StartReading(ctx, mailer.Dispatch(log, m))
	}()

	log.Info("consumer successfully started", slog.String("queue", cfg.RabbitMQ.QueueName))

	select {
	case <-ctx.Done():
		log.Info("shutting down consumer...")
		return nil
	case err := <-done:
		log.Info("consumer finished the work")
		return err
	}
}
