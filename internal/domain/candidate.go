package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CandidateEntity is the matcher's view of an event, expense claim or member
// registration. The three entity schemas differ, but the matcher only reads
// these fields, so the candidate provider flattens them into this shape.
type CandidateEntity struct {
	Type            EntityType      `json:"type"`
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	CounterpartName string          `json:"counterpart_name,omitempty"`
	ExpectedAmount  decimal.Decimal `json:"expected_amount"`
	ExpectedDate    time.Time       `json:"expected_date"`
	ExpectedDateEnd *time.Time      `json:"expected_date_end,omitempty"`
	ExpectsCash     bool            `json:"expects_cash"`
}

// ExpenseClaimStatus values mirrored from the expense-claim collaborator.
// The link registry never mutates claims directly; it emits a SideEffect
// describing the transition the caller must apply.
const (
	ExpenseStatusApproved   = "APPROVED"
	ExpenseStatusReimbursed = "REIMBURSED"
)

// EffectAction identifies an external mutation the caller must perform.
type EffectAction string

const (
	// EffectRevertExpenseStatus: the unlinked expense claim must go back
	// from REIMBURSED to APPROVED.
	EffectRevertExpenseStatus EffectAction = "REVERT_EXPENSE_STATUS"
)

// SideEffect is an instruction to the caller, emitted instead of a hidden
// mutation of the linked entity.
type SideEffect struct {
	Action     EffectAction `json:"action"`
	EntityType EntityType   `json:"entity_type"`
	EntityID   string       `json:"entity_id"`
	FromStatus string       `json:"from_status"`
	ToStatus   string       `json:"to_status"`
}
