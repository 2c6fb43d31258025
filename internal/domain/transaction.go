package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus is the manual reconciliation state of a transaction.
type ReconciliationStatus string

const (
	StatusUnverified ReconciliationStatus = "UNVERIFIED"
	StatusNotFound   ReconciliationStatus = "NOT_FOUND"
	StatusReconciled ReconciliationStatus = "RECONCILED"
)

// EntityType identifies the kind of club entity a transaction can be linked to.
type EntityType string

const (
	EntityEvent        EntityType = "EVENT"
	EntityExpense      EntityType = "EXPENSE"
	EntityRegistration EntityType = "REGISTRATION"
)

// EntityTypes lists all entity types in a fixed order. Matching and grouping
// iterate over this slice so output ordering never depends on map iteration.
var EntityTypes = []EntityType{EntityEvent, EntityExpense, EntityRegistration}

// MatchOrigin records whether a link was created by a user or by the matcher.
type MatchOrigin string

const (
	MatchedManually      MatchOrigin = "MANUAL"
	MatchedAutomatically MatchOrigin = "AUTOMATIC"
)

// EntityLink is one association between a transaction and a club entity.
type EntityLink struct {
	EntityType EntityType  `json:"entity_type" db:"entity_type"`
	EntityID   string      `json:"entity_id" db:"entity_id"`
	EntityName string      `json:"entity_name" db:"entity_name"`
	Confidence int         `json:"confidence" db:"confidence"`
	MatchedAt  time.Time   `json:"matched_at" db:"matched_at"`
	MatchedBy  MatchOrigin `json:"matched_by" db:"matched_by"`
}

// TransactionRecord is a ledger entry. Negative amounts are expenses.
type TransactionRecord struct {
	ID               string               `json:"id" db:"id"`
	SequenceNumber   string               `json:"sequence_number" db:"sequence_number"`
	DedupHash        string               `json:"dedup_hash" db:"dedup_hash"`
	ExecutionDate    time.Time            `json:"execution_date" db:"execution_date"`
	ValueDate        time.Time            `json:"value_date" db:"value_date"`
	Amount           decimal.Decimal      `json:"amount" db:"amount"`
	CounterpartyName string               `json:"counterparty_name" db:"counterparty_name"`
	CounterpartyIBAN string               `json:"counterparty_iban" db:"counterparty_iban"`
	Communication    string               `json:"communication" db:"communication"`
	AccountNumber    string               `json:"account_number" db:"account_number"`
	CategoryID       *string              `json:"category_id,omitempty" db:"category_id"`
	AccountCode      *string              `json:"account_code,omitempty" db:"account_code"`
	Notes            string               `json:"notes,omitempty" db:"notes"`
	Status           ReconciliationStatus `json:"reconciliation_status" db:"reconciliation_status"`
	Links            []EntityLink         `json:"links"`
	ParentID         *string              `json:"parent_id,omitempty" db:"parent_id"`
	ChildIndex       *int                 `json:"child_index,omitempty" db:"child_index"`
	IsParent         bool                 `json:"is_parent" db:"is_parent"`
	ChildCount       int                  `json:"child_count" db:"child_count"`
	CreatedAt        time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at" db:"updated_at"`
}

// IsChild reports whether this record is a split child.
func (t *TransactionRecord) IsChild() bool {
	return t.ParentID != nil && *t.ParentID != ""
}

// IsReconciled is derived: a transaction is reconciled iff it carries at
// least one link or was explicitly marked reconciled.
func (t *TransactionRecord) IsReconciled() bool {
	return len(t.Links) > 0 || t.Status == StatusReconciled
}

// HasLink reports whether a link to the given entity already exists.
func (t *TransactionRecord) HasLink(entityType EntityType, entityID string) bool {
	for _, l := range t.Links {
		if l.EntityType == entityType && l.EntityID == entityID {
			return true
		}
	}
	return false
}

// LinkFor returns the link to the given entity id, if any.
func (t *TransactionRecord) LinkFor(entityID string) (EntityLink, bool) {
	for _, l := range t.Links {
		if l.EntityID == entityID {
			return l, true
		}
	}
	return EntityLink{}, false
}

// SplitLine is one proposed child transaction in a split commit. Amount is an
// unsigned magnitude; the committed child takes the parent's sign.
type SplitLine struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	CategoryID  *string         `json:"category_id,omitempty"`
	AccountCode *string         `json:"account_code,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}
