package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateLink: the (entityType, entityId) pair already exists on
	// the transaction.
	ErrDuplicateLink = errors.New("link already exists for this entity")

	// ErrUnsafeMergeRejected: the operation would delete a child that is
	// linked or reconciled, and the caller did not confirm.
	ErrUnsafeMergeRejected = errors.New("merge would discard linked or reconciled children; confirmation required")

	// ErrInvalidSplitTarget: the transaction cannot be split or linked in
	// its current state (a child, or a parent with live children).
	ErrInvalidSplitTarget = errors.New("transaction is not a valid split or link target")

	// ErrLinkedTransaction: the manual status cycle is disabled while links
	// exist.
	ErrLinkedTransaction = errors.New("transaction has links; status is derived, not cycled")

	// ErrNotFound: the requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

// SplitValidationError reports every violated constraint of a split commit,
// not just the first.
type SplitValidationError struct {
	Reasons []string
}

func (e *SplitValidationError) Error() string {
	return fmt.Sprintf("split validation failed: %s", strings.Join(e.Reasons, "; "))
}

// PartialSplitError signals that a split commit failed partway through its
// persistence calls. No automatic rollback is assumed; the caller reconciles
// using the completed-operation lists.
type PartialSplitError struct {
	ParentID          string
	CreatedChildIDs   []string
	DeletedChildIDs   []string
	ParentFlagUpdated bool
	Err               error
}

func (e *PartialSplitError) Error() string {
	return fmt.Sprintf("partial split failure on %s (%d children created, %d deleted): %v",
		e.ParentID, len(e.CreatedChildIDs), len(e.DeletedChildIDs), e.Err)
}

func (e *PartialSplitError) Unwrap() error { return e.Err }

// PersistenceError wraps a per-record storage failure during batch import.
// It never aborts the batch; the resolver counts it and moves on.
type PersistenceError struct {
	SequenceNumber string
	Op             string
	Err            error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure (%s) on %q: %v", e.Op, e.SequenceNumber, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
