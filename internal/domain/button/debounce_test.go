package button

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const window = 30 * time.Millisecond

// TestStateForLevel verifies the pull-up inversion: low level means pressed.
func TestStateForLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, Pressed, StateForLevel(false))
	require.Equal(t, Released, StateForLevel(true))
}

// TestDebouncerConfirmsAfterWindow asserts a stable level is confirmed exactly once.
func TestDebouncerConfirmsAfterWindow(t *testing.T) {
	t.Parallel()

	start := time.Now()
	d := NewDebouncer(window, Released)

	d.Observe(Pressed, start)

	// Too early: nothing confirmed yet.
	_, changed := d.Settle(start.Add(window / 2))
	require.False(t, changed)
	require.True(t, d.Dirty())

	st, changed := d.Settle(start.Add(window))
	require.True(t, changed)
	require.Equal(t, Pressed, st)

	// Settling again without new input reports nothing.
	_, changed = d.Settle(start.Add(2 * window))
	require.False(t, changed)
	require.False(t, d.Dirty())
}

// TestDebouncerCollapsesBounce checks that rapid toggles within the window
// collapse into at most one confirmed transition.
func TestDebouncerCollapsesBounce(t *testing.T) {
	t.Parallel()

	start := time.Now()
	d := NewDebouncer(window, Released)

	// Two raw presses 5ms apart with a release bounce in between.
	d.Observe(Pressed, start)
	d.Observe(Released, start.Add(2*time.Millisecond))
	d.Observe(Pressed, start.Add(5*time.Millisecond))

	st, changed := d.Settle(start.Add(5*time.Millisecond + window))
	require.True(t, changed)
	require.Equal(t, Pressed, st)

	// No second press sneaks through.
	_, changed = d.Settle(start.Add(10 * window))
	require.False(t, changed)
}

// TestDebouncerBounceBackToStable ensures a toggle that returns to the stable
// level before settling confirms nothing at all.
func TestDebouncerBounceBackToStable(t *testing.T) {
	t.Parallel()

	start := time.Now()
	d := NewDebouncer(window, Released)

	d.Observe(Pressed, start)
	d.Observe(Released, start.Add(3*time.Millisecond))

	_, changed := d.Settle(start.Add(3*time.Millisecond + window))
	require.False(t, changed)
	require.False(t, d.Dirty())
}

// TestDebouncerPressReleaseCycle verifies one confirmation per physical press and release.
func TestDebouncerPressReleaseCycle(t *testing.T) {
	t.Parallel()

	start := time.Now()
	d := NewDebouncer(window, Released)

	d.Observe(Pressed, start)

	st, changed := d.Settle(start.Add(window))
	require.True(t, changed)
	require.Equal(t, Pressed, st)

	release := start.Add(200 * time.Millisecond)
	d.Observe(Released, release)

	st, changed = d.Settle(release.Add(window))
	require.True(t, changed)
	require.Equal(t, Released, st)
}

// TestDebouncerDropsOutOfOrderTimestamps ensures stale timestamps are treated as noise.
func TestDebouncerDropsOutOfOrderTimestamps(t *testing.T) {
	t.Parallel()

	start := time.Now()
	d := NewDebouncer(window, Released)

	d.Observe(Pressed, start)

	// An event from the past must not restart or confirm anything.
	d.Observe(Released, start.Add(-time.Second))

	st, changed := d.Settle(start.Add(window))
	require.True(t, changed)
	require.Equal(t, Pressed, st)
}
