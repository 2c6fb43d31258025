package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-recon/internal/domain"
)

// fakeLedger is an in-memory LedgerRepository. failInsertAfter makes the
// Nth Insert call fail, to exercise partial-failure reporting.
type fakeLedger struct {
	records         map[string]*domain.TransactionRecord
	inserts         int
	failInsertAfter int
}

func newFakeLedger(records ...*domain.TransactionRecord) *fakeLedger {
	f := &fakeLedger{records: make(map[string]*domain.TransactionRecord)}
	for _, r := range records {
		f.records[r.ID] = r
	}
	return f
}

func (f *fakeLedger) Insert(tx *domain.TransactionRecord) error {
	f.inserts++
	if f.failInsertAfter > 0 && f.inserts > f.failInsertAfter {
		return fmt.Errorf("connection reset")
	}
	cp := *tx
	f.records[tx.ID] = &cp
	return nil
}

func (f *fakeLedger) Delete(id string) error {
	if _, ok := f.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeLedger) SetSplitState(id string, isParent bool, childCount int) error {
	r, ok := f.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.IsParent = isParent
	r.ChildCount = childCount
	return nil
}

func (f *fakeLedger) GetByID(id string) (*domain.TransactionRecord, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeLedger) GetChildren(parentID string) ([]domain.TransactionRecord, error) {
	var out []domain.TransactionRecord
	for _, r := range f.records {
		if r.ParentID != nil && *r.ParentID == parentID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeLedger) UpdateSequence(id, seq, hash string) error { return nil }
func (f *fakeLedger) UpdateCounterparty(id, name, iban string) error { return nil }
func (f *fakeLedger) UpdateClassification(id string, c, a *string, n string) error { return nil }
func (f *fakeLedger) UpdateStatus(id string, s domain.ReconciliationStatus) error { return nil }
func (f *fakeLedger) GetAll() ([]domain.TransactionRecord, error) { return nil, nil }
func (f *fakeLedger) GetByDateRange(s, e time.Time) ([]domain.TransactionRecord, error) {
	return nil, nil
}
func (f *fakeLedger) GetUnreconciled() ([]domain.TransactionRecord, error) { return nil, nil }

func splitParent() *domain.TransactionRecord {
	return &domain.TransactionRecord{
		ID:             "P1",
		SequenceNumber: "2025-00010",
		ExecutionDate:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		ValueDate:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:         decimal.NewFromInt(-100),
		Communication:  "Supplies",
		Status:         domain.StatusUnverified,
	}
}

func TestSplitService_CommitCreatesChildren(t *testing.T) {
	ledger := newFakeLedger(splitParent())
	svc := NewSplitService(ledger)

	lines := []domain.SplitLine{
		{Description: "Paint", Amount: decimal.NewFromInt(60)},
		{Description: "Brushes", Amount: decimal.NewFromInt(40)},
	}
	parent, err := svc.Commit("P1", lines, false)
	require.NoError(t, err)

	assert.True(t, parent.IsParent)
	assert.Equal(t, 2, parent.ChildCount)

	children, err := ledger.GetChildren("P1")
	require.NoError(t, err)
	require.Len(t, children, 2)
	for _, c := range children {
		assert.True(t, c.Amount.IsNegative(), "children carry the parent's sign")
	}
}

func TestSplitService_CommitRevert(t *testing.T) {
	ledger := newFakeLedger(splitParent())
	svc := NewSplitService(ledger)

	lines := []domain.SplitLine{
		{Description: "Paint", Amount: decimal.NewFromInt(60)},
		{Description: "Brushes", Amount: decimal.NewFromInt(40)},
	}
	_, err := svc.Commit("P1", lines, false)
	require.NoError(t, err)

	parent, err := svc.Commit("P1", nil, false)
	require.NoError(t, err)

	assert.False(t, parent.IsParent, "empty line set reverts the split")
	assert.Equal(t, 0, parent.ChildCount)
	children, _ := ledger.GetChildren("P1")
	assert.Empty(t, children)
}

func TestSplitService_PartialFailureReportsCompletedOps(t *testing.T) {
	ledger := newFakeLedger(splitParent())
	ledger.failInsertAfter = 1
	svc := NewSplitService(ledger)

	lines := []domain.SplitLine{
		{Description: "Paint", Amount: decimal.NewFromInt(60)},
		{Description: "Brushes", Amount: decimal.NewFromInt(40)},
	}
	_, err := svc.Commit("P1", lines, false)
	require.Error(t, err)

	var partial *domain.PartialSplitError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, "P1", partial.ParentID)
	assert.Len(t, partial.CreatedChildIDs, 1, "only the first insert completed")
	assert.Empty(t, partial.DeletedChildIDs)
	assert.False(t, partial.ParentFlagUpdated)
}

func TestSplitService_DeleteChildRejectsNonChild(t *testing.T) {
	ledger := newFakeLedger(splitParent())
	svc := NewSplitService(ledger)

	_, err := svc.DeleteChild("P1", false)
	assert.ErrorIs(t, err, domain.ErrInvalidSplitTarget)
}

func TestSplitService_DeleteLastSiblingCascades(t *testing.T) {
	ledger := newFakeLedger(splitParent())
	svc := NewSplitService(ledger)

	lines := []domain.SplitLine{
		{Description: "Paint", Amount: decimal.NewFromInt(60)},
		{Description: "Brushes", Amount: decimal.NewFromInt(40)},
	}
	_, err := svc.Commit("P1", lines, false)
	require.NoError(t, err)
	children, _ := ledger.GetChildren("P1")
	require.Len(t, children, 2)

	parent, err := svc.DeleteChild(children[0].ID, false)
	require.NoError(t, err)

	assert.False(t, parent.IsParent, "deleting below two children reverts the split")
	remaining, _ := ledger.GetChildren("P1")
	assert.Empty(t, remaining)
}
