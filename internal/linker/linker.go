// Package linker maintains the many-to-many relation between transactions
// and club entities, and the 3-state manual reconciliation cycle. All
// operations mutate the in-memory record only; persisting is the caller's
// job, and entity side effects come back as explicit instructions.
package linker

import (
	"time"

	"club-recon/internal/domain"
)

// ProposeLink builds a link value without touching any state.
func ProposeLink(entity domain.CandidateEntity, confidence int, matchedBy domain.MatchOrigin, now time.Time) domain.EntityLink {
	return domain.EntityLink{
		EntityType: entity.Type,
		EntityID:   entity.ID,
		EntityName: entity.Name,
		Confidence: confidence,
		MatchedAt:  now,
		MatchedBy:  matchedBy,
	}
}

// AcceptLink appends the link and derives the reconciliation status. A
// parent with live children cannot be linked; its balance belongs to the
// children. Duplicate (entityType, entityId) pairs are rejected before any
// mutation.
func AcceptLink(tx *domain.TransactionRecord, link domain.EntityLink) error {
	if tx.IsParent {
		return domain.ErrInvalidSplitTarget
	}
	if tx.HasLink(link.EntityType, link.EntityID) {
		return domain.ErrDuplicateLink
	}
	tx.Links = append(tx.Links, link)
	tx.Status = domain.StatusReconciled
	return nil
}

// RemoveLink removes the link to entityID and recomputes status. When the
// last link goes away the status reverts to unverified, never silently to
// reconciled. Removing an expense link returns the revert instruction the
// caller must apply to the claim.
func RemoveLink(tx *domain.TransactionRecord, entityID string) (*domain.SideEffect, error) {
	removed, found := domain.EntityLink{}, false
	for i, l := range tx.Links {
		if l.EntityID == entityID {
			removed = l
			tx.Links = append(tx.Links[:i], tx.Links[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return nil, domain.ErrNotFound
	}

	if len(tx.Links) == 0 {
		tx.Status = domain.StatusUnverified
	}

	if removed.EntityType == domain.EntityExpense {
		return &domain.SideEffect{
			Action:     domain.EffectRevertExpenseStatus,
			EntityType: domain.EntityExpense,
			EntityID:   removed.EntityID,
			FromStatus: domain.ExpenseStatusReimbursed,
			ToStatus:   domain.ExpenseStatusApproved,
		}, nil
	}
	return nil, nil
}

// CycleStatus advances the manual cycle unverified -> notFound ->
// reconciled -> unverified. Only reachable while the transaction has zero
// links; with links the status is derived and the cycle is disabled.
func CycleStatus(tx *domain.TransactionRecord) error {
	if len(tx.Links) > 0 {
		return domain.ErrLinkedTransaction
	}
	switch tx.Status {
	case domain.StatusUnverified:
		tx.Status = domain.StatusNotFound
	case domain.StatusNotFound:
		tx.Status = domain.StatusReconciled
	case domain.StatusReconciled:
		tx.Status = domain.StatusUnverified
	default:
		tx.Status = domain.StatusNotFound
	}
	return nil
}
