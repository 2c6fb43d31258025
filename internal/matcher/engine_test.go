package matcher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-recon/internal/domain"
)

var march = time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

func tx(id string, amount float64, date time.Time) domain.TransactionRecord {
	return domain.TransactionRecord{
		ID:            id,
		Amount:        decimal.NewFromFloat(amount),
		ExecutionDate: date,
		Status:        domain.StatusUnverified,
	}
}

func TestEngine_AutoTierForCloseAmountSameMonth(t *testing.T) {
	engine := NewEngine(nil)

	input := Input{
		Transactions: []domain.TransactionRecord{tx("T1", 150.00, march)},
		Candidates: []domain.CandidateEntity{{
			Type:           domain.EntityEvent,
			ID:             "EV1",
			Name:           "Spring Tournament",
			ExpectedAmount: decimal.NewFromFloat(145.00),
			ExpectedDate:   time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC),
		}},
	}

	output, err := engine.Match(input)
	require.NoError(t, err)
	require.Len(t, output.Proposals, 1)

	p := output.Proposals[0]
	assert.Equal(t, "T1", p.TransactionID)
	assert.Equal(t, "EV1", p.Entity.ID)
	assert.GreaterOrEqual(t, p.Confidence, 85)
	assert.Equal(t, TierAuto, p.Tier)
	assert.NotEmpty(t, p.Rationale)
}

func TestEngine_FarAmountDiscardedUnlessKeywordOverlap(t *testing.T) {
	engine := NewEngine(nil)

	candidate := domain.CandidateEntity{
		Type:           domain.EntityEvent,
		ID:             "EV1",
		Name:           "Annual Gala",
		ExpectedAmount: decimal.NewFromFloat(500.00),
		ExpectedDate:   march,
	}

	// No keyword overlap: below the floor, nothing surfaced.
	output, err := engine.Match(Input{
		Transactions: []domain.TransactionRecord{tx("T1", 150.00, march)},
		Candidates:   []domain.CandidateEntity{candidate},
	})
	require.NoError(t, err)
	assert.Empty(t, output.Proposals)

	// Memo mentions the event: the bonus pushes it into the review tier.
	withMemo := tx("T2", 150.00, march)
	withMemo.Communication = "Deposit annual gala"
	output, err = engine.Match(Input{
		Transactions: []domain.TransactionRecord{withMemo},
		Candidates:   []domain.CandidateEntity{candidate},
	})
	require.NoError(t, err)
	require.Len(t, output.Proposals, 1)
	assert.Equal(t, TierReview, output.Proposals[0].Tier)
	assert.Less(t, output.Proposals[0].Confidence, 85)
}

func TestEngine_BestCandidatePerTypeOnly(t *testing.T) {
	engine := NewEngine(nil)

	output, err := engine.Match(Input{
		Transactions: []domain.TransactionRecord{tx("T1", 100.00, march)},
		Candidates: []domain.CandidateEntity{
			{Type: domain.EntityEvent, ID: "EV1", Name: "A", ExpectedAmount: decimal.NewFromFloat(100.00), ExpectedDate: march},
			{Type: domain.EntityEvent, ID: "EV2", Name: "B", ExpectedAmount: decimal.NewFromFloat(98.00), ExpectedDate: march.AddDate(0, 0, 40)},
		},
	})
	require.NoError(t, err)
	require.Len(t, output.Proposals, 1, "only the best event candidate is surfaced")
	assert.Equal(t, "EV1", output.Proposals[0].Entity.ID)
}

func TestEngine_CrossTypeProposalsCoexist(t *testing.T) {
	engine := NewEngine(nil)

	output, err := engine.Match(Input{
		Transactions: []domain.TransactionRecord{tx("T1", -80.00, march)},
		Candidates: []domain.CandidateEntity{
			{Type: domain.EntityEvent, ID: "EV1", Name: "Event", ExpectedAmount: decimal.NewFromFloat(80.00), ExpectedDate: march},
			{Type: domain.EntityExpense, ID: "EX1", Name: "Claim", ExpectedAmount: decimal.NewFromFloat(80.00), ExpectedDate: march},
		},
	})
	require.NoError(t, err)
	assert.Len(t, output.Proposals, 2)
	// Fixed entity-type order: events before expenses.
	assert.Equal(t, "EV1", output.Proposals[0].Entity.ID)
	assert.Equal(t, "EX1", output.Proposals[1].Entity.ID)
}

func TestEngine_SplitSuggestionForBulkPayment(t *testing.T) {
	engine := NewEngine(nil)

	candidates := []domain.CandidateEntity{
		{Type: domain.EntityRegistration, ID: "R1", Name: "Alice / Camp", CounterpartName: "Club Treasurer", ExpectedAmount: decimal.NewFromFloat(50.00), ExpectedDate: march},
		{Type: domain.EntityRegistration, ID: "R2", Name: "Bob / Camp", CounterpartName: "Club Treasurer", ExpectedAmount: decimal.NewFromFloat(50.00), ExpectedDate: march},
		{Type: domain.EntityRegistration, ID: "R3", Name: "Carol / Camp", CounterpartName: "Club Treasurer", ExpectedAmount: decimal.NewFromFloat(50.00), ExpectedDate: march},
	}

	bulk := tx("T1", 150.00, march)
	bulk.CounterpartyName = "Club Treasurer"

	output, err := engine.Match(Input{
		Transactions: []domain.TransactionRecord{bulk},
		Candidates:   candidates,
	})
	require.NoError(t, err)
	assert.Empty(t, output.Proposals)
	require.Len(t, output.SplitSuggestions, 1)

	s := output.SplitSuggestions[0]
	assert.Equal(t, "T1", s.TransactionID)
	assert.Equal(t, domain.EntityRegistration, s.EntityType)
	assert.Equal(t, 3, s.SuggestedCount)
	assert.True(t, s.AverageAmount.Equal(decimal.NewFromFloat(50.00)))
}

func TestEngine_CashSuggestionBelowFloor(t *testing.T) {
	engine := NewEngine(nil)

	output, err := engine.Match(Input{
		Transactions: []domain.TransactionRecord{tx("T1", 10.00, march)},
		Candidates: []domain.CandidateEntity{{
			Type:           domain.EntityRegistration,
			ID:             "R1",
			Name:           "Dave / Tournament",
			ExpectedAmount: decimal.NewFromFloat(200.00),
			ExpectedDate:   march.AddDate(0, 2, 0),
			ExpectsCash:    true,
		}},
	})
	require.NoError(t, err)
	assert.Empty(t, output.Proposals)
	require.Len(t, output.CashSuggestions, 1)
	assert.Equal(t, "R1", output.CashSuggestions[0].Entity.ID)
}

func TestEngine_ParentTransactionsAreSkipped(t *testing.T) {
	engine := NewEngine(nil)

	parent := tx("P1", 100.00, march)
	parent.IsParent = true
	parent.ChildCount = 2

	output, err := engine.Match(Input{
		Transactions: []domain.TransactionRecord{parent},
		Candidates: []domain.CandidateEntity{
			{Type: domain.EntityEvent, ID: "EV1", Name: "Event", ExpectedAmount: decimal.NewFromFloat(100.00), ExpectedDate: march},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, output.Proposals)
}

func TestEngine_DeterministicOutput(t *testing.T) {
	engine := NewEngine(nil)

	input := Input{
		Transactions: []domain.TransactionRecord{
			tx("T1", 100.00, march),
			tx("T2", -45.00, march),
		},
		Candidates: []domain.CandidateEntity{
			{Type: domain.EntityExpense, ID: "EX2", Name: "Travel", ExpectedAmount: decimal.NewFromFloat(45.00), ExpectedDate: march},
			{Type: domain.EntityEvent, ID: "EV1", Name: "Event", ExpectedAmount: decimal.NewFromFloat(100.00), ExpectedDate: march},
			{Type: domain.EntityExpense, ID: "EX1", Name: "Travel", ExpectedAmount: decimal.NewFromFloat(45.00), ExpectedDate: march},
		},
	}

	first, err := engine.Match(input)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := engine.Match(input)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	// Equal-score tie between EX1 and EX2 resolves to the lower id.
	for _, p := range first.Proposals {
		if p.Entity.Type == domain.EntityExpense {
			assert.Equal(t, "EX1", p.Entity.ID)
		}
	}
}
