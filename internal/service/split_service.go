package service

import (
	"time"

	"club-recon/internal/domain"
	"club-recon/internal/repository"
	"club-recon/internal/splitter"
	"club-recon/pkg/logger"
)

// SplitService applies split/merge plans to the ledger. The parent flag and
// the child set are treated as one unit: a failure partway through surfaces
// as a PartialSplitError listing what completed, since no rollback is
// assumed across individual repository calls.
type SplitService interface {
	Commit(transactionID string, lines []domain.SplitLine, confirm bool) (*domain.TransactionRecord, error)
	DeleteChild(childID string, confirm bool) (*domain.TransactionRecord, error)
}

type splitService struct {
	ledger repository.LedgerRepository
}

func NewSplitService(ledger repository.LedgerRepository) SplitService {
	return &splitService{ledger: ledger}
}

func (s *splitService) Commit(transactionID string, lines []domain.SplitLine, confirm bool) (*domain.TransactionRecord, error) {
	parent, err := s.ledger.GetByID(transactionID)
	if err != nil {
		return nil, err
	}

	children, err := s.ledger.GetChildren(parent.ID)
	if err != nil {
		return nil, err
	}

	plan, err := splitter.BuildPlan(parent, children, lines, confirm, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.apply(plan); err != nil {
		return nil, err
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"transaction_id": parent.ID,
		"children":       len(plan.Children),
		"revert":         plan.Revert,
	}).Info("Split committed")

	return s.ledger.GetByID(parent.ID)
}

func (s *splitService) DeleteChild(childID string, confirm bool) (*domain.TransactionRecord, error) {
	child, err := s.ledger.GetByID(childID)
	if err != nil {
		return nil, err
	}
	if !child.IsChild() {
		return nil, domain.ErrInvalidSplitTarget
	}

	parent, err := s.ledger.GetByID(*child.ParentID)
	if err != nil {
		return nil, err
	}
	children, err := s.ledger.GetChildren(parent.ID)
	if err != nil {
		return nil, err
	}

	plan, err := splitter.BuildChildDeletionPlan(parent, children, childID, confirm)
	if err != nil {
		return nil, err
	}

	if err := s.apply(plan); err != nil {
		return nil, err
	}
	return s.ledger.GetByID(parent.ID)
}

// apply executes the plan's mutations in a fixed order: deletions, then
// child inserts, then the parent flag update. On failure the returned
// PartialSplitError records exactly which operations completed.
func (s *splitService) apply(plan *splitter.Plan) error {
	partial := &domain.PartialSplitError{ParentID: plan.ParentID}

	for _, childID := range plan.DeleteChildIDs {
		if err := s.ledger.Delete(childID); err != nil {
			partial.Err = err
			return partial
		}
		partial.DeletedChildIDs = append(partial.DeletedChildIDs, childID)
	}

	for i := range plan.Children {
		if err := s.ledger.Insert(&plan.Children[i]); err != nil {
			partial.Err = err
			return partial
		}
		partial.CreatedChildIDs = append(partial.CreatedChildIDs, plan.Children[i].ID)
	}

	if err := s.ledger.SetSplitState(plan.ParentID, plan.ParentIsParent, plan.ParentChildCount); err != nil {
		partial.Err = err
		return partial
	}
	partial.ParentFlagUpdated = true
	return nil
}
