package service

import (
	"fmt"

	"club-recon/internal/domain"
	"club-recon/internal/matcher"
	"club-recon/internal/repository"
)

// MatchingService runs the entity matcher over the unreconciled part of the
// ledger and the unmatched candidates.
type MatchingService interface {
	// Propose matches against candidates of one entity type, or of all
	// types when entityType is nil.
	Propose(entityType *domain.EntityType) (*matcher.Output, error)
}

type matchingService struct {
	ledger     repository.LedgerRepository
	candidates repository.CandidateRepository
	links      repository.LinkRepository
	engine     *matcher.Engine
}

func NewMatchingService(
	ledger repository.LedgerRepository,
	candidates repository.CandidateRepository,
	links repository.LinkRepository,
	engine *matcher.Engine,
) MatchingService {
	return &matchingService{
		ledger:     ledger,
		candidates: candidates,
		links:      links,
		engine:     engine,
	}
}

func (s *matchingService) Propose(entityType *domain.EntityType) (*matcher.Output, error) {
	transactions, err := s.ledger.GetUnreconciled()
	if err != nil {
		return nil, fmt.Errorf("failed to load unreconciled transactions: %w", err)
	}

	types := domain.EntityTypes
	if entityType != nil {
		types = []domain.EntityType{*entityType}
	}

	var candidates []domain.CandidateEntity
	for _, t := range types {
		fetched, err := s.candidates.FetchCandidates(t)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s candidates: %w", t, err)
		}
		linked, err := s.links.LinkedEntityIDs(t)
		if err != nil {
			return nil, fmt.Errorf("failed to load linked %s entities: %w", t, err)
		}
		for _, c := range fetched {
			if !linked[c.ID] {
				candidates = append(candidates, c)
			}
		}
	}

	return s.engine.Match(matcher.Input{
		Transactions: transactions,
		Candidates:   candidates,
	})
}
