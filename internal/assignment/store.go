package assignment

import (
	"errors"

	"prodflow-backend/internal/database"
	"prodflow-backend/internal/models"

	"gorm.io/gorm"
)

// ErrDuplicatePair is returned by a Store when an insert loses the race on
// the (owner, product, step) unique index. The executor counts it as
// skipped, not failed.
var ErrDuplicatePair = errors.New("assignment pair already exists")

// Store is the narrow persistence surface the bulk executor needs. The
// relational unique index behind CreateAssignment(s) is the authoritative
// duplicate check; everything the executor does in memory is an optimization
// on top of it.
type Store interface {
	// ExistingPairs loads every (product, step) pair already assigned for the
	// owner in one query.
	ExistingPairs(ownerID string) (PairSet, error)
	// CountOwnedProducts and CountOwnedSteps report how many of the given ids
	// exist under the owner, for pre-write validation.
	CountOwnedProducts(ownerID string, ids []uint) (int64, error)
	CountOwnedSteps(ownerID string, ids []uint) (int64, error)
	// CreateAssignments inserts a chunk in one statement; it either persists
	// every row or none.
	CreateAssignments(rows []models.Assignment) error
	// CreateAssignment inserts a single row, returning ErrDuplicatePair on a
	// unique-index violation.
	CreateAssignment(row *models.Assignment) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore returns the Postgres-backed Store used in production.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DefaultStore builds a Store over the global database handle.
func DefaultStore() Store {
	return NewStore(database.DB)
}

func (s *gormStore) ExistingPairs(ownerID string) (PairSet, error) {
	var pairs []PairKey
	err := s.db.Model(&models.Assignment{}).
		Select("product_id", "production_step_id").
		Where("owner_id = ?", ownerID).
		Find(&pairs).Error
	if err != nil {
		return nil, err
	}
	return NewPairSet(pairs), nil
}

func (s *gormStore) CountOwnedProducts(ownerID string, ids []uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Product{}).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Count(&count).Error
	return count, err
}

func (s *gormStore) CountOwnedSteps(ownerID string, ids []uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.ProductionStep{}).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Count(&count).Error
	return count, err
}

func (s *gormStore) CreateAssignments(rows []models.Assignment) error {
	return translateDuplicate(s.db.Create(&rows).Error)
}

func (s *gormStore) CreateAssignment(row *models.Assignment) error {
	return translateDuplicate(s.db.Create(row).Error)
}

func translateDuplicate(err error) error {
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicatePair
	}
	return err
}
