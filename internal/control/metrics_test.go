package control

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLEDSession(t *testing.T) {
	var l ledSession
	start := time.Unix(1000, 0)

	l.observe(true, start)
	assert.Equal(t, start, l.since)
	// staying on keeps the session start
	l.observe(true, start.Add(time.Second))
	assert.Equal(t, start, l.since)
	l.observe(false, start.Add(3*time.Second))
	assert.False(t, l.on)

	l.observe(true, start.Add(5*time.Second))
	assert.Equal(t, start.Add(5*time.Second), l.since)
}
