package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-leave/internal/events"
	"go-leave/internal/shared/apperror"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the part of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// Backoff between attempts to record one event while the store is unavailable.
var (
	retryBackoff    = time.Second
	maxRetryBackoff = 30 * time.Second
)

type LifecycleRecorder interface {
	Record(ctx context.Context, event events.LeaveLifecycleEvent) error
}

// ConsumeLeaveLifecycle records every lifecycle event in the audit trail until ctx ends.
// Undecodable or invalid messages are committed and dropped. Any other failure is retried
// on the same message until it succeeds or ctx ends; the message is never skipped.
func ConsumeLeaveLifecycle(
	ctx context.Context,
	reader MessageReader,
	recorder LifecycleRecorder,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.leave_lifecycle")
	log.Info("leave lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("leave lifecycle consumer stopped")
				return
			}
			log.Error("fetch leave lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.LeaveLifecycleEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode leave lifecycle event failed",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := recordWithRetry(ctx, recorder, event, log); err != nil {
			if isInvalidEvent(err) {
				log.Warn("dropping invalid leave lifecycle event",
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}
			log.Info("leave lifecycle consumer stopped",
				zap.Int64("uncommitted_offset", msg.Offset),
			)
			return
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit leave lifecycle message failed", zap.Error(err))
			continue
		}

		log.Info("leave lifecycle event recorded",
			zap.String("leave_request_id", event.LeaveRequestID),
			zap.String("event_type", event.EventType),
			zap.String("status", event.Status),
		)
	}
}

// recordWithRetry returns nil once the event is stored, the invalid-input error, or
// ctx's error when the consumer is shutting down.
func recordWithRetry(ctx context.Context, recorder LifecycleRecorder, event events.LeaveLifecycleEvent, log *zap.Logger) error {
	backoff := retryBackoff
	for attempt := 1; ; attempt++ {
		err := recorder.Record(ctx, event)
		if err == nil || isInvalidEvent(err) {
			return err
		}

		log.Error("record leave lifecycle event failed",
			zap.String("leave_request_id", event.LeaveRequestID),
			zap.String("event_type", event.EventType),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", backoff),
			zap.Error(err),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff = min(backoff*2, maxRetryBackoff)
	}
}

func isInvalidEvent(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr) && appErr.Code == apperror.CodeInvalidInput
}
