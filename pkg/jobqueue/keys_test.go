package jobqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	t.Parallel()

	k := newKeys("emails")

	assert.Equal(t, "jobqueue:{emails}:waiting", k.state(StatusWaiting))
	assert.Equal(t, "jobqueue:{emails}:active", k.state(StatusActive))
	assert.Equal(t, "jobqueue:{emails}:jobs", k.records())

	all := k.all()
	assert.Len(t, all, len(Statuses)+1)
	assert.Contains(t, all, k.records())
	for _, s := range Statuses {
		assert.Contains(t, all, k.state(s))
	}
}
