package assignment

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"prodflow-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore mimics the relational store: the pair set is authoritative, a
// chunk insert is all-or-nothing, and a duplicate insert fails with
// ErrDuplicatePair exactly like the unique index would.
type fakeStore struct {
	mu            sync.Mutex
	persisted     map[PairKey]models.Assignment
	ownedProducts map[uint]struct{}
	ownedSteps    map[uint]struct{}
	failing       map[PairKey]error
	// stale, when set, is returned by ExistingPairs instead of the real
	// state. Simulates a concurrent writer that committed after the load.
	stale PairSet

	pairQueries int
	batchCalls  int
	singleCalls int
}

func newFakeStore(productIDs, stepIDs []uint) *fakeStore {
	f := &fakeStore{
		persisted:     make(map[PairKey]models.Assignment),
		ownedProducts: make(map[uint]struct{}),
		ownedSteps:    make(map[uint]struct{}),
		failing:       make(map[PairKey]error),
	}
	for _, id := range productIDs {
		f.ownedProducts[id] = struct{}{}
	}
	for _, id := range stepIDs {
		f.ownedSteps[id] = struct{}{}
	}
	return f
}

func (f *fakeStore) ExistingPairs(ownerID string) (PairSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pairQueries++
	if f.stale != nil {
		return f.stale, nil
	}
	set := make(PairSet, len(f.persisted))
	for k := range f.persisted {
		set[k] = struct{}{}
	}
	return set, nil
}

func (f *fakeStore) CountOwnedProducts(ownerID string, ids []uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, id := range ids {
		if _, ok := f.ownedProducts[id]; ok {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) CountOwnedSteps(ownerID string, ids []uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, id := range ids {
		if _, ok := f.ownedSteps[id]; ok {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) CreateAssignments(rows []models.Assignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	for _, row := range rows {
		key := PairKey{ProductID: row.ProductID, ProductionStepID: row.ProductionStepID}
		if err, ok := f.failing[key]; ok {
			return err
		}
		if _, ok := f.persisted[key]; ok {
			return ErrDuplicatePair
		}
	}
	for _, row := range rows {
		f.persisted[PairKey{ProductID: row.ProductID, ProductionStepID: row.ProductionStepID}] = row
	}
	return nil
}

func (f *fakeStore) CreateAssignment(row *models.Assignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.singleCalls++
	key := PairKey{ProductID: row.ProductID, ProductionStepID: row.ProductionStepID}
	if err, ok := f.failing[key]; ok {
		return err
	}
	if _, ok := f.persisted[key]; ok {
		return ErrDuplicatePair
	}
	f.persisted[key] = *row
	return nil
}

func (f *fakeStore) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batchCalls + f.singleCalls
}

func (f *fakeStore) sequenceOf(productID, stepID uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.persisted[PairKey{ProductID: productID, ProductionStepID: stepID}]
	if !ok {
		return -1
	}
	return row.SequenceNumber
}

func requireSummaryInvariant(t *testing.T, s *Summary) {
	t.Helper()
	require.Equal(t, s.TotalRequested, s.Created+s.Skipped+s.Failed)
}

func TestExecutorCreatesFullCrossProduct(t *testing.T) {
	products := []uint{1, 2, 3}
	steps := []uint{10, 20}
	store := newFakeStore(products, steps)

	summary, err := NewExecutor(store).Execute(Request{
		OwnerID:           "org-1",
		ProductIDs:        products,
		ProductionStepIDs: steps,
		Defaults:          Defaults{SequenceStart: 1, AutoIncrement: true},
	})
	require.NoError(t, err)

	assert.Equal(t, 6, summary.TotalRequested)
	assert.Equal(t, 6, summary.Created)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	requireSummaryInvariant(t, summary)

	// Per-product sequences in step order.
	for _, p := range products {
		assert.Equal(t, 1, store.sequenceOf(p, 10))
		assert.Equal(t, 2, store.sequenceOf(p, 20))
	}
	// One existing-pairs query for the whole run, not one per pair.
	assert.Equal(t, 1, store.pairQueries)
}

func TestExecutorSkipsExistingPairs(t *testing.T) {
	products := []uint{1, 2, 3}
	steps := []uint{10, 20}
	store := newFakeStore(products, steps)
	store.persisted[PairKey{ProductID: 1, ProductionStepID: 10}] = models.Assignment{
		ProductID: 1, ProductionStepID: 10, SequenceNumber: 9,
	}

	summary, err := NewExecutor(store).Execute(Request{
		OwnerID:           "org-1",
		ProductIDs:        products,
		ProductionStepIDs: steps,
		Defaults:          Defaults{SequenceStart: 1, AutoIncrement: true},
	})
	require.NoError(t, err)

	assert.Equal(t, 6, summary.TotalRequested)
	assert.Equal(t, 5, summary.Created)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	requireSummaryInvariant(t, summary)

	// The existing row is untouched and the skipped pair did not consume a
	// sequence number.
	assert.Equal(t, 9, store.sequenceOf(1, 10))
	assert.Equal(t, 1, store.sequenceOf(1, 20))
}

func TestExecutorIdempotentResubmission(t *testing.T) {
	products := []uint{1, 2}
	steps := []uint{10, 20, 30}
	store := newFakeStore(products, steps)
	executor := NewExecutor(store)
	req := Request{
		OwnerID:           "org-1",
		ProductIDs:        products,
		ProductionStepIDs: steps,
		Defaults:          Defaults{SequenceStart: 1, AutoIncrement: true},
	}

	first, err := executor.Execute(req)
	require.NoError(t, err)
	assert.Equal(t, 6, first.Created)

	second, err := executor.Execute(req)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 6, second.Skipped)
	assert.Equal(t, 0, second.Failed)
	requireSummaryInvariant(t, second)
}

func TestExecutorSequenceStartWithAutoIncrement(t *testing.T) {
	store := newFakeStore([]uint{1}, []uint{10, 20, 30})

	summary, err := NewExecutor(store).Execute(Request{
		OwnerID:           "org-1",
		ProductIDs:        []uint{1},
		ProductionStepIDs: []uint{10, 20, 30},
		Defaults:          Defaults{SequenceStart: 5, AutoIncrement: true},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Created)
	assert.Equal(t, 5, store.sequenceOf(1, 10))
	assert.Equal(t, 6, store.sequenceOf(1, 20))
	assert.Equal(t, 7, store.sequenceOf(1, 30))
}

func TestExecutorFixedSequenceWithoutAutoIncrement(t *testing.T) {
	store := newFakeStore([]uint{1, 2}, []uint{10, 20})

	summary, err := NewExecutor(store).Execute(Request{
		OwnerID:           "org-1",
		ProductIDs:        []uint{1, 2},
		ProductionStepIDs: []uint{10, 20},
		Defaults:          Defaults{SequenceStart: 4, AutoIncrement: false},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Created)
	for _, p := range []uint{1, 2} {
		for _, s := range []uint{10, 20} {
			assert.Equal(t, 4, store.sequenceOf(p, s))
		}
	}
}

func TestExecutorRowFailureIsIsolated(t *testing.T) {
	store := newFakeStore([]uint{1}, []uint{10, 20, 30})
	store.failing[PairKey{ProductID: 1, ProductionStepID: 20}] = errors.New("value too long for column")

	summary, err := NewExecutor(store).Execute(Request{
		OwnerID:           "org-1",
		ProductIDs:        []uint{1},
		ProductionStepIDs: []uint{10, 20, 30},
		Defaults:          Defaults{SequenceStart: 1, AutoIncrement: true},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalRequested)
	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	requireSummaryInvariant(t, summary)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "step 20")

	// The failed row's number is reused by the next step.
	assert.Equal(t, 1, store.sequenceOf(1, 10))
	assert.Equal(t, 2, store.sequenceOf(1, 30))
}

func TestExecutorRaceDuplicateCountsAsSkipped(t *testing.T) {
	store := newFakeStore([]uint{1}, []uint{10, 20})
	// A concurrent writer committed (1,10) after our pair set was loaded.
	store.persisted[PairKey{ProductID: 1, ProductionStepID: 10}] = models.Assignment{
		ProductID: 1, ProductionStepID: 10, SequenceNumber: 1,
	}
	store.stale = NewPairSet(nil)

	summary, err := NewExecutor(store).Execute(Request{
		OwnerID:           "org-1",
		ProductIDs:        []uint{1},
		ProductionStepIDs: []uint{10, 20},
		Defaults:          Defaults{SequenceStart: 1, AutoIncrement: true},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	requireSummaryInvariant(t, summary)

	// The lost race did not consume a sequence number either.
	assert.Equal(t, 1, store.sequenceOf(1, 20))
}

func TestExecutorChunksLargeBatches(t *testing.T) {
	steps := make([]uint, 0, 250)
	for i := uint(1); i <= 250; i++ {
		steps = append(steps, 100+i)
	}
	store := newFakeStore([]uint{1}, steps)

	summary, err := NewExecutor(store).Execute(Request{
		OwnerID:           "org-1",
		ProductIDs:        []uint{1},
		ProductionStepIDs: steps,
		Defaults:          Defaults{SequenceStart: 1, AutoIncrement: true},
	})
	require.NoError(t, err)

	assert.Equal(t, 250, summary.Created)
	assert.Equal(t, 3, store.batchCalls)
	assert.Equal(t, 0, store.singleCalls)
	assert.Equal(t, 1, store.sequenceOf(1, steps[0]))
	assert.Equal(t, 250, store.sequenceOf(1, steps[249]))
}

func TestExecutorCapsDiagnostics(t *testing.T) {
	steps := make([]uint, 0, 20)
	store := newFakeStore([]uint{1}, nil)
	store.ownedSteps = make(map[uint]struct{})
	for i := uint(1); i <= 20; i++ {
		steps = append(steps, i)
		store.ownedSteps[i] = struct{}{}
		if i <= 15 {
			store.failing[PairKey{ProductID: 1, ProductionStepID: i}] = fmt.Errorf("row error %d", i)
		}
	}

	summary, err := NewExecutor(store).Execute(Request{
		OwnerID:           "org-1",
		ProductIDs:        []uint{1},
		ProductionStepIDs: steps,
		Defaults:          Defaults{SequenceStart: 1, AutoIncrement: true},
	})
	require.NoError(t, err)

	assert.Equal(t, 15, summary.Failed)
	assert.Equal(t, 5, summary.Created)
	requireSummaryInvariant(t, summary)
	assert.Len(t, summary.Errors, maxDiagnostics)
	assert.Equal(t, 5, summary.ErrorOverflow)
}

func TestExecutorRejectsMissingOwner(t *testing.T) {
	store := newFakeStore([]uint{1}, []uint{10})

	_, err := NewExecutor(store).Execute(Request{
		ProductIDs:        []uint{1},
		ProductionStepIDs: []uint{10},
		Defaults:          Defaults{SequenceStart: 1, AutoIncrement: true},
	})

	require.ErrorIs(t, err, ErrMissingOwner)
	assert.Equal(t, 0, store.writes())
}

func TestExecutorRejectsMalformedInput(t *testing.T) {
	store := newFakeStore([]uint{1}, []uint{10})

	for name, req := range map[string]Request{
		"no products": {OwnerID: "org-1", ProductionStepIDs: []uint{10}},
		"no steps":    {OwnerID: "org-1", ProductIDs: []uint{1}},
		"zero product id": {
			OwnerID: "org-1", ProductIDs: []uint{0}, ProductionStepIDs: []uint{10},
		},
		"zero step id": {
			OwnerID: "org-1", ProductIDs: []uint{1}, ProductionStepIDs: []uint{0},
		},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewExecutor(store).Execute(req)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.NotEmpty(t, vErr.Fields)
		})
	}

	// Rejection happens before any write is attempted.
	assert.Equal(t, 0, store.writes())
}

func TestExecutorRejectsForeignIDs(t *testing.T) {
	store := newFakeStore([]uint{1}, []uint{10})

	_, err := NewExecutor(store).Execute(Request{
		OwnerID:           "org-1",
		ProductIDs:        []uint{1, 99},
		ProductionStepIDs: []uint{10},
		Defaults:          Defaults{SequenceStart: 1, AutoIncrement: true},
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "productIds", vErr.Fields[0].Field)
	assert.Equal(t, 0, store.writes())
}
