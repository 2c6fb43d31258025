// Package splitter implements the transaction split/merge state machine:
// one standalone transaction becomes a parent with N children whose amounts
// sum exactly to the parent's magnitude, or a parent collapses back to
// standalone. Plans are computed purely; applying them is the service's job.
package splitter

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"club-recon/internal/domain"
)

// SumTolerance is the maximum allowed difference between the line sum and
// the parent magnitude, in currency units.
var SumTolerance = decimal.NewFromFloat(0.01)

// Plan is the full set of mutations one split or merge commit requires. The
// parent flags and the child set are a single transactional unit.
type Plan struct {
	ParentID string
	// Revert is true when the commit collapses the parent to standalone.
	Revert bool
	// Children to create, in line order. Empty on revert.
	Children []domain.TransactionRecord
	// DeleteChildIDs lists existing children replaced or removed.
	DeleteChildIDs []string
	// ParentIsParent / ParentChildCount are the flag values to store.
	ParentIsParent   bool
	ParentChildCount int
}

// Validate checks split lines against the parent before any mutation and
// returns every violated constraint.
func Validate(parent *domain.TransactionRecord, lines []domain.SplitLine) error {
	var reasons []string

	if parent.IsChild() {
		return domain.ErrInvalidSplitTarget
	}
	if len(parent.Links) > 0 {
		// Linked transactions own their amount; splitting would orphan the
		// link. Unlink first.
		return domain.ErrInvalidSplitTarget
	}

	if len(lines) < 2 {
		// 0 or 1 lines is a revert, always structurally valid.
		return nil
	}

	sum := decimal.Zero
	for i, line := range lines {
		if line.Description == "" {
			reasons = append(reasons, fmt.Sprintf("line %d: description is required", i+1))
		}
		if !line.Amount.IsPositive() {
			reasons = append(reasons, fmt.Sprintf("line %d: amount must be greater than zero", i+1))
		}
		sum = sum.Add(line.Amount)
	}

	target := parent.Amount.Abs()
	if sum.Sub(target).Abs().GreaterThan(SumTolerance) {
		reasons = append(reasons, fmt.Sprintf("line amounts sum to %s, expected %s", sum.StringFixed(2), target.StringFixed(2)))
	}

	if len(reasons) > 0 {
		return &domain.SplitValidationError{Reasons: reasons}
	}
	return nil
}

// BuildPlan computes the commit plan for replacing parent's child set with
// the given lines. existingChildren is the parent's current child set (empty
// for a standalone transaction). Deleting a linked or reconciled child loses
// its reconciliation history, so that requires confirm=true.
func BuildPlan(parent *domain.TransactionRecord, existingChildren []domain.TransactionRecord, lines []domain.SplitLine, confirm bool, now time.Time) (*Plan, error) {
	if err := Validate(parent, lines); err != nil {
		return nil, err
	}

	plan := &Plan{ParentID: parent.ID}
	for i := range existingChildren {
		child := &existingChildren[i]
		if child.IsReconciled() && !confirm {
			return nil, domain.ErrUnsafeMergeRejected
		}
		plan.DeleteChildIDs = append(plan.DeleteChildIDs, child.ID)
	}

	if len(lines) < 2 {
		plan.Revert = true
		return plan, nil
	}

	sign := decimal.NewFromInt(1)
	if parent.Amount.IsNegative() {
		sign = decimal.NewFromInt(-1)
	}

	plan.Children = make([]domain.TransactionRecord, 0, len(lines))
	for i, line := range lines {
		index := i + 1
		plan.Children = append(plan.Children, domain.TransactionRecord{
			ID:               uuid.New().String(),
			SequenceNumber:   fmt.Sprintf("%s.%d", parent.SequenceNumber, index),
			ExecutionDate:    parent.ExecutionDate,
			ValueDate:        parent.ValueDate,
			Amount:           line.Amount.Mul(sign),
			CounterpartyName: parent.CounterpartyName,
			CounterpartyIBAN: parent.CounterpartyIBAN,
			Communication:    fmt.Sprintf("%s (%d/%d)", parent.Communication, index, len(lines)),
			AccountNumber:    parent.AccountNumber,
			CategoryID:       line.CategoryID,
			AccountCode:      line.AccountCode,
			Notes:            childNotes(line),
			Status:           domain.StatusUnverified,
			ParentID:         &parent.ID,
			ChildIndex:       &index,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}

	plan.ParentIsParent = true
	plan.ParentChildCount = len(plan.Children)
	return plan, nil
}

// BuildChildDeletionPlan computes the plan for removing one child. If fewer
// than two children would remain, all remaining children are deleted and the
// parent reverts to standalone; the unsafe-merge guard applies to every
// child being removed.
func BuildChildDeletionPlan(parent *domain.TransactionRecord, children []domain.TransactionRecord, childID string, confirm bool) (*Plan, error) {
	target := -1
	for i := range children {
		if children[i].ID == childID {
			target = i
			break
		}
	}
	if target == -1 {
		return nil, domain.ErrNotFound
	}

	plan := &Plan{ParentID: parent.ID}

	if len(children)-1 < 2 {
		// Cascade: the whole child set goes and the parent reverts.
		for i := range children {
			if children[i].IsReconciled() && !confirm {
				return nil, domain.ErrUnsafeMergeRejected
			}
			plan.DeleteChildIDs = append(plan.DeleteChildIDs, children[i].ID)
		}
		plan.Revert = true
		return plan, nil
	}

	if children[target].IsReconciled() && !confirm {
		return nil, domain.ErrUnsafeMergeRejected
	}
	plan.DeleteChildIDs = []string{childID}
	plan.ParentIsParent = true
	plan.ParentChildCount = len(children) - 1
	return plan, nil
}

func childNotes(line domain.SplitLine) string {
	if line.Notes != "" {
		return fmt.Sprintf("%s (%s)", line.Description, line.Notes)
	}
	return line.Description
}
