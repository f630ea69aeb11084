package auth

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginLimiter_SweepsOnInterval(t *testing.T) {
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	now := start
	l := NewLoginLimiter(10, 5)
	l.now = func() time.Time { return now }

	idle := func(n int) {
		for i := 0; i < n; i++ {
			l.clients[fmt.Sprintf("10.0.%d.%d", i/256, i%256)] = &client{lastSeen: start.Add(-time.Hour)}
		}
	}

	idle(sweepMinClients + 10)
	assert.True(t, l.Allow("fresh"))
	assert.Len(t, l.clients, 1)

	idle(sweepMinClients + 10)
	now = now.Add(sweepEvery / 2)
	assert.True(t, l.Allow("fresh"))
	assert.Len(t, l.clients, sweepMinClients+11, "swept again before the interval")

	now = now.Add(sweepEvery)
	assert.True(t, l.Allow("fresh"))
	assert.Len(t, l.clients, 1)
}
