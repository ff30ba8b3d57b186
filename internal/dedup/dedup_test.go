package dedup

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGuard_AcquireAndDeny(t *testing.T) {
	g := NewGuard()

	assert.True(t, g.TryAcquire("create-cron:c1:watch:100", 30*time.Second))
	assert.False(t, g.TryAcquire("create-cron:c1:watch:100", 30*time.Second),
		"second acquire inside the TTL must be rejected")
	assert.True(t, g.TryAcquire("create-cron:c1:other:100", 30*time.Second),
		"a different key is independent")
}

func TestGuard_Release(t *testing.T) {
	g := NewGuard()

	assert.True(t, g.TryAcquire("k", time.Minute))
	g.Release("k")
	assert.True(t, g.TryAcquire("k", time.Minute), "released key is immediately reusable")

	// Releasing an unheld key is a no-op.
	g.Release("never-held")
}

func TestGuard_Expiry(t *testing.T) {
	g := NewGuard()
	now := time.Now()
	g.now = func() time.Time { return now }

	assert.True(t, g.TryAcquire("k", 30*time.Second))

	now = now.Add(10 * time.Second)
	assert.False(t, g.TryAcquire("k", 30*time.Second), "still inside the TTL")

	now = now.Add(25 * time.Second)
	assert.True(t, g.TryAcquire("k", 30*time.Second), "expired key is reclaimed by the next acquirer")
}

func TestGuard_SweepBoundsSize(t *testing.T) {
	g := NewGuard()
	now := time.Now()
	g.now = func() time.Time { return now }

	for i := 0; i < 1500; i++ {
		assert.True(t, g.TryAcquire(fmt.Sprintf("k-%d", i), time.Second))
	}

	now = now.Add(time.Minute)
	g.TryAcquire("fresh", time.Second)
	assert.Less(t, g.Len(), 1500, "expired keys are swept once the map grows")
}
