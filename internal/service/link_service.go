package service

import (
	"time"

	"club-recon/internal/domain"
	"club-recon/internal/linker"
	"club-recon/internal/repository"
	"club-recon/pkg/logger"
)

// LinkService applies link-registry operations to persisted transactions.
type LinkService interface {
	Accept(transactionID string, link domain.EntityLink) (*domain.TransactionRecord, error)
	// Remove unlinks the entity and returns the side-effect instruction the
	// caller must apply, if any.
	Remove(transactionID, entityID string) (*domain.TransactionRecord, *domain.SideEffect, error)
	CycleStatus(transactionID string) (*domain.TransactionRecord, error)
}

type linkService struct {
	ledger repository.LedgerRepository
	links  repository.LinkRepository
}

func NewLinkService(ledger repository.LedgerRepository, links repository.LinkRepository) LinkService {
	return &linkService{ledger: ledger, links: links}
}

func (s *linkService) Accept(transactionID string, link domain.EntityLink) (*domain.TransactionRecord, error) {
	tx, err := s.ledger.GetByID(transactionID)
	if err != nil {
		return nil, err
	}

	if link.MatchedAt.IsZero() {
		link.MatchedAt = time.Now().UTC()
	}
	if err := linker.AcceptLink(tx, link); err != nil {
		return nil, err
	}

	if err := s.links.Add(tx.ID, link); err != nil {
		return nil, err
	}
	if err := s.ledger.UpdateStatus(tx.ID, tx.Status); err != nil {
		return nil, err
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"transaction_id": tx.ID,
		"entity_type":    link.EntityType,
		"entity_id":      link.EntityID,
		"matched_by":     link.MatchedBy,
	}).Info("Link accepted")

	return tx, nil
}

func (s *linkService) Remove(transactionID, entityID string) (*domain.TransactionRecord, *domain.SideEffect, error) {
	tx, err := s.ledger.GetByID(transactionID)
	if err != nil {
		return nil, nil, err
	}

	effect, err := linker.RemoveLink(tx, entityID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.links.Remove(tx.ID, entityID); err != nil {
		return nil, nil, err
	}
	if err := s.ledger.UpdateStatus(tx.ID, tx.Status); err != nil {
		return nil, nil, err
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"transaction_id": tx.ID,
		"entity_id":      entityID,
		"side_effect":    effect != nil,
	}).Info("Link removed")

	return tx, effect, nil
}

func (s *linkService) CycleStatus(transactionID string) (*domain.TransactionRecord, error) {
	tx, err := s.ledger.GetByID(transactionID)
	if err != nil {
		return nil, err
	}

	if err := linker.CycleStatus(tx); err != nil {
		return nil, err
	}
	if err := s.ledger.UpdateStatus(tx.ID, tx.Status); err != nil {
		return nil, err
	}
	return tx, nil
}
