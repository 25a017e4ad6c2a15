package assignment

// PairKey identifies one product/step combination. The same key type backs
// the advisory conflict check and the executor's duplicate filter, so the
// two sides can never disagree on what counts as "the same pair". The
// advisory result may still be stale by the time the executor runs; the
// storage-level unique index has the final word.
type PairKey struct {
	ProductID        uint `json:"product_id"`
	ProductionStepID uint `json:"production_step_id"`
}

// PairSet is an O(1) membership set of existing pairs.
type PairSet map[PairKey]struct{}

func NewPairSet(pairs []PairKey) PairSet {
	set := make(PairSet, len(pairs))
	for _, p := range pairs {
		set[p] = struct{}{}
	}
	return set
}

func (s PairSet) Contains(k PairKey) bool {
	_, ok := s[k]
	return ok
}

// ConflictReport describes which combinations of a selection already exist.
type ConflictReport struct {
	Conflicts         []PairKey `json:"conflicts"`
	TotalCombinations int       `json:"total_combinations"`
	AllConflicted     bool      `json:"all_conflicted"`
}

// DetectConflicts scans the cross product of the selections against the
// existing pair set. Conflicts come back in product-major order, matching
// the order the executor would process them in.
func DetectConflicts(productIDs, stepIDs []uint, existing PairSet) ConflictReport {
	report := ConflictReport{
		Conflicts:         make([]PairKey, 0),
		TotalCombinations: len(productIDs) * len(stepIDs),
	}

	for _, productID := range productIDs {
		for _, stepID := range stepIDs {
			key := PairKey{ProductID: productID, ProductionStepID: stepID}
			if existing.Contains(key) {
				report.Conflicts = append(report.Conflicts, key)
			}
		}
	}

	report.AllConflicted = report.TotalCombinations > 0 &&
		len(report.Conflicts) == report.TotalCombinations

	return report
}
