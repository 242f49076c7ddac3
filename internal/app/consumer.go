package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-leave/internal/audit"
	"go-leave/internal/config"
	"go-leave/internal/events"
	"go-leave/internal/messaging/kafka/consumer"
	"go-leave/internal/rbac"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const auditConsumerGroup = "go-leave-audit-trail"

// RunConsumer records leave lifecycle events in the audit trail until SIGINT or SIGTERM.
func RunConsumer(cfg *config.Config) error {
	logger := zap.L().Named("app.consumer")

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	gormDB, sqlDB, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	// Record needs no guard; only History checks the caller.
	auditService := audit.NewService(audit.NewRepository(gormDB), rbac.NewService(nil, nil, 0), cfg.StoreTimeout)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.KafkaBroker},
		Topic:          events.LeaveLifecycleTopic,
		GroupID:        auditConsumerGroup,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		consumer.ConsumeLeaveLifecycle(ctx, reader, auditService, logger)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()
	<-done

	return nil
}
