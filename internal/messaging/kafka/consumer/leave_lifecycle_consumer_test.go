package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go-leave/internal/events"
	"go-leave/internal/shared/apperror"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeReader hands out queued messages and cancels the consumer once drained.
type fakeReader struct {
	queue     []kafkago.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(r.queue) == 0 {
		r.cancel()
		return kafkago.Message{}, ctx.Err()
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

// fakeRecorder fails a leave request's events with the queued errors before recording
// them. Outages are consumed one per attempt; invalid input stays.
type fakeRecorder struct {
	recorded  []events.LeaveLifecycleEvent
	failures  map[string][]error
	attempts  map[string]int
	onFailure func(leaveID string, attempt int)
}

func (f *fakeRecorder) Record(_ context.Context, event events.LeaveLifecycleEvent) error {
	if f.attempts == nil {
		f.attempts = map[string]int{}
	}
	f.attempts[event.LeaveRequestID]++

	if queued := f.failures[event.LeaveRequestID]; len(queued) > 0 {
		err := queued[0]
		if apperror.IsUnavailable(err) {
			f.failures[event.LeaveRequestID] = queued[1:]
		}
		if f.onFailure != nil {
			f.onFailure(event.LeaveRequestID, f.attempts[event.LeaveRequestID])
		}
		return err
	}
	f.recorded = append(f.recorded, event)
	return nil
}

func message(t *testing.T, offset int64, event events.LeaveLifecycleEvent) kafkago.Message {
	t.Helper()
	body, err := json.Marshal(event)
	assert.NoError(t, err)
	return kafkago.Message{Offset: offset, Value: body}
}

func fastRetries(t *testing.T) {
	t.Helper()
	prevBackoff, prevMax := retryBackoff, maxRetryBackoff
	retryBackoff, maxRetryBackoff = time.Millisecond, 2*time.Millisecond
	t.Cleanup(func() { retryBackoff, maxRetryBackoff = prevBackoff, prevMax })
}

func TestConsumeLeaveLifecycle(t *testing.T) {
	fastRetries(t)

	t.Run("success records, retries outages and drops invalid events", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		reader := &fakeReader{
			cancel: cancel,
			queue: []kafkago.Message{
				message(t, 1, events.LeaveLifecycleEvent{EventType: events.LeaveRequested, LeaveRequestID: "l-1"}),
				{Offset: 2, Value: []byte("not json")},
				message(t, 3, events.LeaveLifecycleEvent{EventType: events.LeaveReviewed, LeaveRequestID: "l-down"}),
				message(t, 4, events.LeaveLifecycleEvent{EventType: events.LeaveReviewed, LeaveRequestID: "l-bad"}),
				message(t, 5, events.LeaveLifecycleEvent{EventType: events.LeaveCancelled, LeaveRequestID: "l-2"}),
			},
		}
		recorder := &fakeRecorder{failures: map[string][]error{
			"l-down": {
				apperror.Unavailable(context.DeadlineExceeded),
				apperror.Unavailable(context.DeadlineExceeded),
			},
			"l-bad": {apperror.New(apperror.CodeInvalidInput, "bad event", 400)},
		}}

		ConsumeLeaveLifecycle(ctx, reader, recorder, zap.NewNop())

		assert.Len(t, recorder.recorded, 3)
		assert.Equal(t, "l-1", recorder.recorded[0].LeaveRequestID)
		assert.Equal(t, "l-down", recorder.recorded[1].LeaveRequestID)
		assert.Equal(t, "l-2", recorder.recorded[2].LeaveRequestID)
		assert.Equal(t, 3, recorder.attempts["l-down"])
		assert.Equal(t, 1, recorder.attempts["l-bad"])
		assert.Equal(t, []int64{1, 2, 3, 4, 5}, reader.committed)
	})

	t.Run("negative shutdown during an outage leaves the message uncommitted", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		down := apperror.Unavailable(context.DeadlineExceeded)
		reader := &fakeReader{
			cancel: cancel,
			queue: []kafkago.Message{
				message(t, 1, events.LeaveLifecycleEvent{EventType: events.LeaveRequested, LeaveRequestID: "l-1"}),
				message(t, 2, events.LeaveLifecycleEvent{EventType: events.LeaveReviewed, LeaveRequestID: "l-down"}),
				message(t, 3, events.LeaveLifecycleEvent{EventType: events.LeaveCancelled, LeaveRequestID: "l-2"}),
			},
		}
		recorder := &fakeRecorder{
			failures: map[string][]error{"l-down": {down, down, down, down, down}},
			onFailure: func(_ string, attempt int) {
				if attempt == 2 {
					cancel()
				}
			},
		}

		ConsumeLeaveLifecycle(ctx, reader, recorder, zap.NewNop())

		assert.Equal(t, []int64{1}, reader.committed)
		assert.Equal(t, 2, recorder.attempts["l-down"])
		// offset 3 is never fetched past the failed one
		assert.Len(t, reader.queue, 1)
		assert.Len(t, recorder.recorded, 1)
	})
}
