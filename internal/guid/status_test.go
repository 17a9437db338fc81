package guid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_CanTransitionTo_Monotonic(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusStarted, true},
		{StatusPending, StatusSuccess, true},
		{StatusStarted, StatusSending, true},
		{StatusSending, StatusSuccess, true},
		{StatusStarted, StatusPending, false},
		{StatusSuccess, StatusPending, false},
		{StatusPending, StatusPending, false},
		{Status("BOGUS"), StatusStarted, false},
		{StatusPending, Status("BOGUS"), false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.from.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestStatus_Valid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusSuccess.Valid())
	assert.False(t, Status("FAILURE").Valid())
}
