package jobqueue_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barview/backend/pkg/jobqueue"
)

func TestNewProcessor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	type emailPayload struct {
		To      string `json:"to"`
		Subject string `json:"subject"`
	}

	t.Run("decodes payload before invoking handler", func(t *testing.T) {
		t.Parallel()

		var got emailPayload
		p := jobqueue.NewProcessor("email:send", func(ctx context.Context, job *jobqueue.Job, payload emailPayload) error {
			got = payload
			return nil
		})
		assert.Equal(t, "email:send", p.Type())

		job := &jobqueue.Job{
			ID:   "j1",
			Type: "email:send",
			Data: json.RawMessage(`{"to":"a@b.c","subject":"hi"}`),
		}
		require.NoError(t, p.Process(ctx, job))
		assert.Equal(t, emailPayload{To: "a@b.c", Subject: "hi"}, got)
	})

	t.Run("empty payload yields zero value", func(t *testing.T) {
		t.Parallel()

		p := jobqueue.NewProcessor("email:send", func(ctx context.Context, job *jobqueue.Job, payload emailPayload) error {
			assert.Zero(t, payload)
			return nil
		})
		require.NoError(t, p.Process(ctx, &jobqueue.Job{ID: "j2", Type: "email:send"}))
	})

	t.Run("malformed payload fails without invoking handler", func(t *testing.T) {
		t.Parallel()

		called := false
		p := jobqueue.NewProcessor("email:send", func(ctx context.Context, job *jobqueue.Job, payload emailPayload) error {
			called = true
			return nil
		})

		job := &jobqueue.Job{
			ID:   "j3",
			Type: "email:send",
			Data: json.RawMessage(`{not json`),
		}
		err := p.Process(ctx, job)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "j3")
		assert.False(t, called)
	})

	t.Run("handler error is returned as-is", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("smtp unavailable")
		p := jobqueue.NewProcessor("email:send", func(ctx context.Context, job *jobqueue.Job, payload emailPayload) error {
			return wantErr
		})
		err := p.Process(ctx, &jobqueue.Job{ID: "j4", Type: "email:send"})
		assert.ErrorIs(t, err, wantErr)
	})
}

func TestNewRawProcessor(t *testing.T) {
	t.Parallel()

	p := jobqueue.NewRawProcessor("webhook:deliver", func(ctx context.Context, job *jobqueue.Job) error {
		assert.Equal(t, json.RawMessage(`{not json`), job.Data)
		return nil
	})
	assert.Equal(t, "webhook:deliver", p.Type())

	// Raw processors never touch the payload, so malformed data passes through.
	job := &jobqueue.Job{
		ID:   "j5",
		Type: "webhook:deliver",
		Data: json.RawMessage(`{not json`),
	}
	require.NoError(t, p.Process(context.Background(), job))
}
