package assignment

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"prodflow-backend/internal/models"

	"golang.org/x/sync/errgroup"
)

const (
	// insertChunkSize bounds per-statement transaction overhead.
	insertChunkSize = 100
	// maxWorkers bounds the per-product fan-out of one bulk run.
	maxWorkers = 4
	// maxDiagnostics caps stored row-error messages; the rest is an
	// overflow count so huge batches cannot balloon the response.
	maxDiagnostics = 10
)

// ErrMissingOwner means the request reached the executor without a resolved
// tenant identity. Nothing is written in that case.
var ErrMissingOwner = errors.New("missing tenant identity")

// Request is one bulk-assignment submission.
type Request struct {
	OwnerID           string
	ProductIDs        []uint
	ProductionStepIDs []uint
	Defaults          Defaults
}

// Summary is the outcome contract: Created+Skipped+Failed always equals
// TotalRequested once a run completes.
type Summary struct {
	TotalRequested int      `json:"totalRequested"`
	Created        int      `json:"created"`
	Skipped        int      `json:"skipped"`
	Failed         int      `json:"failed"`
	Errors         []string `json:"errors,omitempty"`
	ErrorOverflow  int      `json:"errorOverflow,omitempty"`
}

// Executor materializes the product x step cross product as assignment rows.
// Existing pairs are skipped, row-level errors are absorbed into the
// summary, and a resubmission of the same request only attempts the pairs
// that are still missing.
type Executor struct {
	store     Store
	chunkSize int
	workers   int
}

func NewExecutor(store Store) *Executor {
	return &Executor{
		store:     store,
		chunkSize: insertChunkSize,
		workers:   maxWorkers,
	}
}

// Execute validates the request, then attempts every combination. Validation
// failures reject the whole request before any write; after that point the
// run always finishes and always returns a summary.
func (e *Executor) Execute(req Request) (*Summary, error) {
	if err := e.validate(req); err != nil {
		return nil, err
	}

	existing, err := e.store.ExistingPairs(req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("could not load existing assignments: %w", err)
	}

	acc := newAccumulator()

	var g errgroup.Group
	g.SetLimit(e.workers)
	for _, productID := range req.ProductIDs {
		g.Go(func() error {
			e.processProduct(req, productID, existing, acc)
			return nil
		})
	}
	// Workers never return errors; row failures live in the accumulator.
	_ = g.Wait()

	summary := acc.summary()
	summary.TotalRequested = len(req.ProductIDs) * len(req.ProductionStepIDs)
	return summary, nil
}

func (e *Executor) validate(req Request) error {
	if req.OwnerID == "" {
		return ErrMissingOwner
	}

	var fields []FieldError
	if len(req.ProductIDs) == 0 {
		fields = append(fields, FieldError{Field: "productIds", Message: "at least one product must be selected"})
	}
	if len(req.ProductionStepIDs) == 0 {
		fields = append(fields, FieldError{Field: "productionStepIds", Message: "at least one production step must be selected"})
	}
	for _, id := range req.ProductIDs {
		if id == 0 {
			fields = append(fields, FieldError{Field: "productIds", Message: "ids must be positive"})
			break
		}
	}
	for _, id := range req.ProductionStepIDs {
		if id == 0 {
			fields = append(fields, FieldError{Field: "productionStepIds", Message: "ids must be positive"})
			break
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	// Cross-tenant references are rejected wholesale, before any write.
	count, err := e.store.CountOwnedProducts(req.OwnerID, uniqueIDs(req.ProductIDs))
	if err != nil {
		return fmt.Errorf("could not verify products: %w", err)
	}
	if count != int64(len(uniqueIDs(req.ProductIDs))) {
		fields = append(fields, FieldError{Field: "productIds", Message: "contains unknown products"})
	}
	count, err = e.store.CountOwnedSteps(req.OwnerID, uniqueIDs(req.ProductionStepIDs))
	if err != nil {
		return fmt.Errorf("could not verify production steps: %w", err)
	}
	if count != int64(len(uniqueIDs(req.ProductionStepIDs))) {
		fields = append(fields, FieldError{Field: "productionStepIds", Message: "contains unknown production steps"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// processProduct walks one product's steps in request order. The sequence
// counter advances only when a row actually lands: a chunk insert is
// all-or-nothing, so when it fails the chunk is replayed row by row with
// freshly allocated numbers.
func (e *Executor) processProduct(req Request, productID uint, existing PairSet, acc *accumulator) {
	d := req.Defaults
	next := d.SequenceStart

	chunk := make([]models.Assignment, 0, e.chunkSize)
	chunkStart := next

	flush := func() {
		if len(chunk) == 0 {
			return
		}
		if err := e.store.CreateAssignments(chunk); err != nil {
			// Replay row-scoped so one bad row cannot sink its chunk.
			next = chunkStart
			for i := range chunk {
				row := chunk[i]
				if d.AutoIncrement {
					row.SequenceNumber = next
				} else {
					row.SequenceNumber = d.SequenceStart
				}
				switch err := e.store.CreateAssignment(&row); {
				case err == nil:
					acc.addCreated(1)
					if d.AutoIncrement {
						next++
					}
				case errors.Is(err, ErrDuplicatePair):
					// Lost a race with a concurrent writer: expected, skipped.
					acc.addSkipped(1)
				default:
					acc.addFailed(fmt.Sprintf("product %d / step %d: %v", row.ProductID, row.ProductionStepID, err))
				}
			}
		} else {
			acc.addCreated(len(chunk))
		}
		chunk = chunk[:0]
		chunkStart = next
	}

	for _, stepID := range req.ProductionStepIDs {
		key := PairKey{ProductID: productID, ProductionStepID: stepID}
		if existing.Contains(key) {
			acc.addSkipped(1)
			continue
		}

		row := models.Assignment{
			OwnerID:          req.OwnerID,
			ProductID:        productID,
			ProductionStepID: stepID,
			SequenceNumber:   d.SequenceStart,
			FactoryPrice:     d.FactoryPrice,
			CalculatedPrice:  d.CalculatedPrice,
			QuantityLimit1:   d.QuantityLimit1,
			QuantityLimit2:   d.QuantityLimit2,
			IsFinalStep:      d.IsFinalStep,
			IsVtStep:         d.IsVtStep,
			IsParkingStep:    d.IsParkingStep,
		}
		if d.AutoIncrement {
			row.SequenceNumber = next
			next++
		}

		chunk = append(chunk, row)
		if len(chunk) >= e.chunkSize {
			flush()
		}
	}
	flush()
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// accumulator collects outcomes from concurrent product workers.
type accumulator struct {
	created atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64

	mu       sync.Mutex
	errors   []string
	overflow int
}

func newAccumulator() *accumulator {
	return &accumulator{errors: make([]string, 0, maxDiagnostics)}
}

func (a *accumulator) addCreated(n int) { a.created.Add(int64(n)) }
func (a *accumulator) addSkipped(n int) { a.skipped.Add(int64(n)) }

func (a *accumulator) addFailed(msg string) {
	a.failed.Add(1)
	a.mu.Lock()
	if len(a.errors) < maxDiagnostics {
		a.errors = append(a.errors, msg)
	} else {
		a.overflow++
	}
	a.mu.Unlock()
}

func (a *accumulator) summary() *Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return &Summary{
		Created:       int(a.created.Load()),
		Skipped:       int(a.skipped.Load()),
		Failed:        int(a.failed.Load()),
		Errors:        a.errors,
		ErrorOverflow: a.overflow,
	}
}
