package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barview/backend/pkg/logger"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json format by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf))
		log.Info("started", slog.String("queue", "emails"))

		record := logLine(t, &buf)
		assert.Equal(t, "started", record["msg"])
		assert.Equal(t, "emails", record["queue"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithFormat(logger.FormatText),
		)
		log.Info("started")

		out := buf.String()
		assert.Contains(t, out, "msg=started")
		assert.False(t, json.Valid(buf.Bytes()))
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithLevel(slog.LevelWarn),
		)
		log.Info("hidden")
		log.Warn("shown")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "shown")
	})

	t.Run("service and static attrs on every record", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithService("worker"),
			logger.WithAttr(slog.String("env", "test")),
		)
		log.Info("tick")

		record := logLine(t, &buf)
		assert.Equal(t, "worker", record["service"])
		assert.Equal(t, "test", record["env"])
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			logger.New(logger.WithFormat(logger.Format("xml")))
		})
	})

	t.Run("nil output is ignored", func(t *testing.T) {
		t.Parallel()

		assert.NotPanics(t, func() {
			logger.New(logger.WithOutput(nil))
		})
	})
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf))
	log.Error("job failed",
		logger.Component("jobqueue"),
		logger.QueueName("emails"),
		logger.JobID("j-42"),
		logger.JobType("email:send"),
		logger.Attempts(3),
		logger.Error(errors.New("smtp unavailable")),
	)

	record := logLine(t, &buf)
	assert.Equal(t, "jobqueue", record["component"])
	assert.Equal(t, "emails", record["queue"])
	assert.Equal(t, "j-42", record["job_id"])
	assert.Equal(t, "email:send", record["job_type"])
	assert.EqualValues(t, 3, record["attempts"])
	assert.Equal(t, "smtp unavailable", record["error"])
}

func TestErrorAttr_Nil(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf))
	log.Info("ok", logger.Error(nil))

	assert.False(t, strings.Contains(buf.String(), "error"))
}
