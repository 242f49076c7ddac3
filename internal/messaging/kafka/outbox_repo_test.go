package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestNewOutboxEvent(t *testing.T) {
	e, err := NewOutboxEvent("rid-1", "leave_request", "lr-1", "leave.requested", "hr.leave.lifecycle.v1", map[string]string{"k": "v"})
	assert.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, OutboxStatusPending, e.Status)
	assert.JSONEq(t, `{"k":"v"}`, string(e.Payload))
	assert.NoError(t, ValidateOutboxEvent(e))

	_, err = NewOutboxEvent("", "x", "y", "z", "t", func() {})
	assert.Error(t, err)
}

func TestValidateOutboxEvent(t *testing.T) {
	base := OutboxEvent{ID: "1", Topic: "t", EventType: "e", Payload: []byte("{}"), Status: OutboxStatusPending}
	assert.NoError(t, ValidateOutboxEvent(base))

	noTopic := base
	noTopic.Topic = ""
	assert.Error(t, ValidateOutboxEvent(noTopic))

	badStatus := base
	badStatus.Status = "lost"
	assert.Error(t, ValidateOutboxEvent(badStatus))
}

func TestOutboxRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewOutboxRepository(db)
	ctx := context.Background()

	t.Run("create inside transaction", func(t *testing.T) {
		event := OutboxEvent{ID: "e-1", AggregateType: "leave_request", AggregateID: "lr-1", EventType: "leave.requested", Topic: "t", Payload: []byte(`{}`), Status: OutboxStatusPending}

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO outbox_events`).
			WithArgs("e-1", "", "leave_request", "lr-1", "leave.requested", "t", []byte(`{}`), OutboxStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx, err := db.Begin()
		assert.NoError(t, err)
		assert.NoError(t, repo.WithTx(tx).Create(ctx, event))
		assert.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("create rejects invalid event", func(t *testing.T) {
		assert.Error(t, repo.Create(ctx, OutboxEvent{}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list pending", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`FROM outbox_events WHERE status IN \(\$1, \$2\) AND retry_count < \$3`).
			WithArgs(OutboxStatusPending, OutboxStatusFailed, MaxDeliveryAttempts, 10).
			WillReturnRows(sqlmock.NewRows([]string{"id", "request_id", "aggregate_type", "aggregate_id", "event_type", "topic", "payload", "status", "retry_count", "next_retry_at"}).
				AddRow("e-1", "rid", "leave_request", "lr-1", "leave.reviewed", "t", []byte(`{}`), OutboxStatusPending, 0, now))

		events, err := repo.ListPending(ctx, 10)
		assert.NoError(t, err)
		assert.Len(t, events, 1)
		assert.Equal(t, "leave.reviewed", events[0].EventType)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mark sent and failed", func(t *testing.T) {
		mock.ExpectExec(`UPDATE outbox_events SET status = \$2, processed_at = NOW\(\)`).
			WithArgs("e-1", OutboxStatusSent).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE outbox_events SET status = \$2, retry_count = retry_count \+ 1`).
			WithArgs("e-2", OutboxStatusFailed, "broker down").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkSent(ctx, "e-1"))
		assert.NoError(t, repo.MarkFailed(ctx, "e-2", "broker down"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
