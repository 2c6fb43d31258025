package matcher

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"club-recon/internal/domain"
	"club-recon/internal/similarity"
	"club-recon/pkg/logger"
)

// Tier classifies a proposal by how much review it needs.
type Tier string

const (
	// TierAuto proposals are confident enough to accept without review.
	TierAuto Tier = "AUTO"
	// TierReview proposals need a treasurer's eye before acceptance.
	TierReview Tier = "REVIEW"
)

// Proposal is a scored (transaction, candidate) pairing surfaced to the
// caller. At most one proposal per entity type is emitted per transaction.
type Proposal struct {
	TransactionID string                 `json:"transaction_id"`
	Entity        domain.CandidateEntity `json:"entity"`
	Confidence    int                    `json:"confidence"`
	Tier          Tier                   `json:"tier"`
	Rationale     []string               `json:"rationale"`
}

// SplitSuggestion flags a transaction that likely covers several smaller
// entities, such as one wire covering a batch of registrations.
type SplitSuggestion struct {
	TransactionID  string            `json:"transaction_id"`
	EntityType     domain.EntityType `json:"entity_type"`
	SuggestedCount int               `json:"suggested_count"`
	AverageAmount  decimal.Decimal   `json:"average_amount"`
	BestCandidate  string            `json:"best_candidate_id"`
	Confidence     int               `json:"confidence"`
}

// CashSuggestion flags a low-confidence pairing with an entity that expects
// cash settlement. Never auto-applied.
type CashSuggestion struct {
	TransactionID string                 `json:"transaction_id"`
	Entity        domain.CandidateEntity `json:"entity"`
	Confidence    int                    `json:"confidence"`
}

// Input carries the unreconciled transactions and unmatched candidates for
// one matching pass.
type Input struct {
	Transactions []domain.TransactionRecord
	Candidates   []domain.CandidateEntity
}

// Output is the complete, deterministically ordered result of a pass.
type Output struct {
	Proposals        []Proposal        `json:"proposals"`
	SplitSuggestions []SplitSuggestion `json:"split_suggestions"`
	CashSuggestions  []CashSuggestion  `json:"cash_suggestions"`
}

// Engine scores transactions against candidate entities.
type Engine struct {
	weights Weights
}

// NewEngine builds an engine; a nil weights pointer selects the defaults.
func NewEngine(w *Weights) *Engine {
	if w == nil {
		defaults := DefaultWeights()
		w = &defaults
	}
	return &Engine{weights: *w}
}

// Match scores every (transaction, candidate) pair and retains, per
// transaction, the best candidate of each entity type. Output is fully
// ordered: transactions in input order, entity types in domain.EntityTypes
// order, ties broken by entity id.
func (e *Engine) Match(input Input) (*Output, error) {
	log := logger.GetLogger()
	log.WithFields(map[string]interface{}{
		"transactions": len(input.Transactions),
		"candidates":   len(input.Candidates),
	}).Info("Starting matching pass")

	byType := e.groupCandidates(input.Candidates)

	out := &Output{
		Proposals:        make([]Proposal, 0),
		SplitSuggestions: make([]SplitSuggestion, 0),
		CashSuggestions:  make([]CashSuggestion, 0),
	}

	for i := range input.Transactions {
		tx := &input.Transactions[i]
		if tx.IsParent {
			// A parent's balance is inert; its children match individually.
			continue
		}
		for _, entityType := range domain.EntityTypes {
			candidates := byType[entityType]
			if len(candidates) == 0 {
				continue
			}
			e.matchOne(tx, entityType, candidates, out)
		}
	}

	log.WithFields(map[string]interface{}{
		"proposals":         len(out.Proposals),
		"split_suggestions": len(out.SplitSuggestions),
		"cash_suggestions":  len(out.CashSuggestions),
	}).Info("Matching pass completed")

	return out, nil
}

// matchOne scores tx against every candidate of one type and appends at most
// one proposal or suggestion.
func (e *Engine) matchOne(tx *domain.TransactionRecord, entityType domain.EntityType, candidates []domain.CandidateEntity, out *Output) {
	var (
		best          *domain.CandidateEntity
		bestScore     float64
		bestRationale []string
	)

	for i := range candidates {
		cand := &candidates[i]
		score, rationale := e.Score(tx, cand)
		if score > bestScore || (score == bestScore && best != nil && cand.ID < best.ID) {
			best = cand
			bestScore = score
			bestRationale = rationale
		}
	}
	if best == nil || bestScore <= 0 {
		return
	}

	confidence := clampConfidence(bestScore)

	if bestScore < e.weights.MinimumFloor {
		// Below the floor nothing is proposed, but an entity expecting cash
		// settlement still surfaces as a cash-payment hint.
		if best.ExpectsCash {
			out.CashSuggestions = append(out.CashSuggestions, CashSuggestion{
				TransactionID: tx.ID,
				Entity:        *best,
				Confidence:    confidence,
			})
		}
		return
	}

	if e.exceedsSplitMargin(tx, best) {
		out.SplitSuggestions = append(out.SplitSuggestions, SplitSuggestion{
			TransactionID:  tx.ID,
			EntityType:     entityType,
			SuggestedCount: e.suggestedSplitCount(tx, candidates),
			AverageAmount:  averageExpectedAmount(candidates),
			BestCandidate:  best.ID,
			Confidence:     confidence,
		})
		return
	}

	tier := TierReview
	if bestScore >= e.weights.AutoThreshold {
		tier = TierAuto
	}
	out.Proposals = append(out.Proposals, Proposal{
		TransactionID: tx.ID,
		Entity:        *best,
		Confidence:    confidence,
		Tier:          tier,
		Rationale:     bestRationale,
	})
}

// Score computes the weighted confidence of one pair on the 0-100 scale,
// with a human-readable rationale. Components without data on either side
// are excluded and the remaining weights renormalized.
func (e *Engine) Score(tx *domain.TransactionRecord, cand *domain.CandidateEntity) (float64, []string) {
	w := e.weights
	rationale := make([]string, 0, 4)

	amountScore := similarity.AmountProximity(tx.Amount, cand.ExpectedAmount)
	dateScore := similarity.DateRangeProximity(tx.ExecutionDate, cand.ExpectedDate, cand.ExpectedDateEnd, w.DateWindowDays)

	total := amountScore*w.Amount + dateScore*w.Date
	weightSum := w.Amount + w.Date

	counterpart := cand.CounterpartName
	if counterpart == "" {
		counterpart = cand.Name
	}
	if tx.CounterpartyName != "" && counterpart != "" {
		nameScore := similarity.NameSimilarity(tx.CounterpartyName, counterpart)
		total += nameScore * w.Name
		weightSum += w.Name
		if nameScore >= 0.9 {
			rationale = append(rationale, fmt.Sprintf("counterparty %q matches %q", tx.CounterpartyName, counterpart))
		}
	}

	score := total / weightSum * 100

	switch {
	case amountScore >= 1.0:
		rationale = append(rationale, fmt.Sprintf("amount %s within 10%% of expected %s", tx.Amount.StringFixed(2), cand.ExpectedAmount.StringFixed(2)))
	case amountScore > 0:
		rationale = append(rationale, fmt.Sprintf("amount %s near expected %s", tx.Amount.StringFixed(2), cand.ExpectedAmount.StringFixed(2)))
	}
	if dateScore >= 1.0 {
		rationale = append(rationale, "dates in the same period")
	}

	if similarity.KeywordOverlap(tx.Communication, cand.Name) ||
		similarity.KeywordOverlap(tx.Communication, cand.Description) {
		score += w.KeywordBonus
		rationale = append(rationale, fmt.Sprintf("memo mentions %q", cand.Name))
	}

	if score > 100 {
		score = 100
	}
	return score, rationale
}

// exceedsSplitMargin reports whether the transaction magnitude is far above
// the single candidate's expected amount.
func (e *Engine) exceedsSplitMargin(tx *domain.TransactionRecord, cand *domain.CandidateEntity) bool {
	if cand.ExpectedAmount.IsZero() {
		return false
	}
	margin := decimal.NewFromFloat(e.weights.SplitMargin)
	return tx.Amount.Abs().GreaterThan(cand.ExpectedAmount.Abs().Mul(margin))
}

// suggestedSplitCount estimates how many entities a bulk payment covers.
func (e *Engine) suggestedSplitCount(tx *domain.TransactionRecord, candidates []domain.CandidateEntity) int {
	avg := averageExpectedAmount(candidates)
	if avg.IsZero() {
		return 0
	}
	count := int(tx.Amount.Abs().Div(avg).Round(0).IntPart())
	if count < 2 {
		count = 2
	}
	return count
}

func averageExpectedAmount(candidates []domain.CandidateEntity) decimal.Decimal {
	if len(candidates) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, c := range candidates {
		sum = sum.Add(c.ExpectedAmount.Abs())
	}
	return sum.Div(decimal.NewFromInt(int64(len(candidates))))
}

// groupCandidates splits candidates by type, sorted by id so equal-score
// ties resolve identically on every run.
func (e *Engine) groupCandidates(candidates []domain.CandidateEntity) map[domain.EntityType][]domain.CandidateEntity {
	byType := make(map[domain.EntityType][]domain.CandidateEntity, len(domain.EntityTypes))
	for _, c := range candidates {
		byType[c.Type] = append(byType[c.Type], c)
	}
	for _, entityType := range domain.EntityTypes {
		group := byType[entityType]
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
	}
	return byType
}

func clampConfidence(score float64) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score)
}
