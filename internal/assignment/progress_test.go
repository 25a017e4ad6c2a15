package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressStartsIdle(t *testing.T) {
	p := NewProgress()
	snap := p.Snapshot()

	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, 0, snap.Total)
	assert.Nil(t, snap.Summary)
	assert.Empty(t, snap.Error)
}

func TestProgressBeginSetsTotalImmediately(t *testing.T) {
	p := NewProgress()
	require.NoError(t, p.Begin(12))

	// Total is known before any response arrives, so the caller can render
	// a determinate progress display pre-flight.
	snap := p.Snapshot()
	assert.Equal(t, StateProcessing, snap.State)
	assert.Equal(t, 12, snap.Total)
}

func TestProgressRejectsConcurrentBegin(t *testing.T) {
	p := NewProgress()
	require.NoError(t, p.Begin(4))

	assert.ErrorIs(t, p.Begin(4), ErrAlreadyProcessing)
}

func TestProgressCompleteKeepsSummary(t *testing.T) {
	p := NewProgress()
	require.NoError(t, p.Begin(6))

	// Skips and row failures inside the summary still mean "done".
	p.Complete(&Summary{TotalRequested: 6, Created: 4, Skipped: 1, Failed: 1})

	snap := p.Snapshot()
	assert.Equal(t, StateDone, snap.State)
	require.NotNil(t, snap.Summary)
	assert.Equal(t, 4, snap.Summary.Created)
}

func TestProgressFailDiscardsSummary(t *testing.T) {
	p := NewProgress()
	require.NoError(t, p.Begin(6))

	p.Fail("connection reset")

	snap := p.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.Nil(t, snap.Summary)
	assert.Equal(t, "connection reset", snap.Error)
}

func TestProgressResetReturnsToIdle(t *testing.T) {
	p := NewProgress()
	require.NoError(t, p.Begin(6))
	p.Complete(&Summary{TotalRequested: 6, Created: 6})

	require.NoError(t, p.Reset())

	snap := p.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, 0, snap.Total)
	assert.Nil(t, snap.Summary)
}

func TestProgressResetRefusedWhileProcessing(t *testing.T) {
	p := NewProgress()
	require.NoError(t, p.Begin(6))

	assert.ErrorIs(t, p.Reset(), ErrAlreadyProcessing)
	assert.Equal(t, StateProcessing, p.Snapshot().State)
}

func TestProgressBeginAfterErrorStartsFresh(t *testing.T) {
	p := NewProgress()
	require.NoError(t, p.Begin(6))
	p.Fail("boom")

	require.NoError(t, p.Begin(9))

	snap := p.Snapshot()
	assert.Equal(t, StateProcessing, snap.State)
	assert.Equal(t, 9, snap.Total)
	assert.Empty(t, snap.Error)
}

func TestProgressTerminalCallsOutsideProcessingAreNoOps(t *testing.T) {
	p := NewProgress()

	p.Complete(&Summary{TotalRequested: 1, Created: 1})
	assert.Equal(t, StateIdle, p.Snapshot().State)

	p.Fail("late transport error")
	assert.Equal(t, StateIdle, p.Snapshot().State)
}

func TestProgressRegistrySharesTrackerPerOwner(t *testing.T) {
	r := NewProgressRegistry()

	a := r.For("org-1")
	b := r.For("org-1")
	other := r.For("usr-2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)

	require.NoError(t, a.Begin(3))
	assert.Equal(t, StateProcessing, b.Snapshot().State)
	assert.Equal(t, StateIdle, other.Snapshot().State)
}
