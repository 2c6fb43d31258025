package linker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-recon/internal/domain"
)

func eventLink(id string) domain.EntityLink {
	return domain.EntityLink{
		EntityType: domain.EntityEvent,
		EntityID:   id,
		EntityName: "Spring Tournament",
		Confidence: 92,
		MatchedAt:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		MatchedBy:  domain.MatchedAutomatically,
	}
}

func TestProposeLink(t *testing.T) {
	now := time.Now()
	entity := domain.CandidateEntity{Type: domain.EntityExpense, ID: "EX1", Name: "Travel claim"}

	link := ProposeLink(entity, 77, domain.MatchedManually, now)

	assert.Equal(t, domain.EntityExpense, link.EntityType)
	assert.Equal(t, "EX1", link.EntityID)
	assert.Equal(t, 77, link.Confidence)
	assert.Equal(t, domain.MatchedManually, link.MatchedBy)
	assert.Equal(t, now, link.MatchedAt)
}

func TestAcceptLink_SetsReconciled(t *testing.T) {
	tx := &domain.TransactionRecord{ID: "T1", Status: domain.StatusUnverified}

	require.NoError(t, AcceptLink(tx, eventLink("EV1")))

	assert.Len(t, tx.Links, 1)
	assert.Equal(t, domain.StatusReconciled, tx.Status)
	assert.True(t, tx.IsReconciled())
}

func TestAcceptLink_DuplicatePairRejected(t *testing.T) {
	tx := &domain.TransactionRecord{ID: "T1", Status: domain.StatusUnverified}

	require.NoError(t, AcceptLink(tx, eventLink("EV1")))
	err := AcceptLink(tx, eventLink("EV1"))

	assert.ErrorIs(t, err, domain.ErrDuplicateLink)
	assert.Len(t, tx.Links, 1, "second accept must not append")
}

func TestAcceptLink_SameIDDifferentTypeAllowed(t *testing.T) {
	tx := &domain.TransactionRecord{ID: "T1", Status: domain.StatusUnverified}

	require.NoError(t, AcceptLink(tx, eventLink("X1")))
	other := eventLink("X1")
	other.EntityType = domain.EntityRegistration
	require.NoError(t, AcceptLink(tx, other))

	assert.Len(t, tx.Links, 2)
}

func TestAcceptLink_ParentRejected(t *testing.T) {
	tx := &domain.TransactionRecord{ID: "T1", IsParent: true, ChildCount: 2}

	err := AcceptLink(tx, eventLink("EV1"))
	assert.ErrorIs(t, err, domain.ErrInvalidSplitTarget)
}

func TestRemoveLink_ResetsStatusToUnverified(t *testing.T) {
	tx := &domain.TransactionRecord{ID: "T1", Status: domain.StatusUnverified}
	require.NoError(t, AcceptLink(tx, eventLink("EV1")))

	effect, err := RemoveLink(tx, "EV1")
	require.NoError(t, err)

	assert.Nil(t, effect, "event unlink has no side effect")
	assert.Empty(t, tx.Links)
	assert.Equal(t, domain.StatusUnverified, tx.Status, "never reverts to reconciled")
}

func TestRemoveLink_ExpenseEmitsRevertInstruction(t *testing.T) {
	tx := &domain.TransactionRecord{ID: "T1", Status: domain.StatusUnverified}
	link := eventLink("EX1")
	link.EntityType = domain.EntityExpense
	require.NoError(t, AcceptLink(tx, link))

	effect, err := RemoveLink(tx, "EX1")
	require.NoError(t, err)

	require.NotNil(t, effect)
	assert.Equal(t, domain.EffectRevertExpenseStatus, effect.Action)
	assert.Equal(t, "EX1", effect.EntityID)
	assert.Equal(t, domain.ExpenseStatusReimbursed, effect.FromStatus)
	assert.Equal(t, domain.ExpenseStatusApproved, effect.ToStatus)
}

func TestRemoveLink_KeepsStatusWhileLinksRemain(t *testing.T) {
	tx := &domain.TransactionRecord{ID: "T1", Status: domain.StatusUnverified}
	require.NoError(t, AcceptLink(tx, eventLink("EV1")))
	require.NoError(t, AcceptLink(tx, eventLink("EV2")))

	_, err := RemoveLink(tx, "EV1")
	require.NoError(t, err)

	assert.Len(t, tx.Links, 1)
	assert.Equal(t, domain.StatusReconciled, tx.Status)
}

func TestRemoveLink_UnknownEntity(t *testing.T) {
	tx := &domain.TransactionRecord{ID: "T1"}
	_, err := RemoveLink(tx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCycleStatus_ManualCycle(t *testing.T) {
	tx := &domain.TransactionRecord{ID: "T1", Status: domain.StatusUnverified}

	require.NoError(t, CycleStatus(tx))
	assert.Equal(t, domain.StatusNotFound, tx.Status)

	require.NoError(t, CycleStatus(tx))
	assert.Equal(t, domain.StatusReconciled, tx.Status)

	require.NoError(t, CycleStatus(tx))
	assert.Equal(t, domain.StatusUnverified, tx.Status)
}

func TestCycleStatus_DisabledWithLinks(t *testing.T) {
	tx := &domain.TransactionRecord{ID: "T1", Status: domain.StatusUnverified}
	require.NoError(t, AcceptLink(tx, eventLink("EV1")))

	err := CycleStatus(tx)
	assert.ErrorIs(t, err, domain.ErrLinkedTransaction)
	assert.Equal(t, domain.StatusReconciled, tx.Status)
}
