package service

import (
	"time"

	"club-recon/internal/domain"
	"club-recon/internal/repository"
)

// TransactionService covers the plain ledger reads and field assignments
// that need no reconciliation logic.
type TransactionService interface {
	GetByID(id string) (*domain.TransactionRecord, error)
	List(start, end *time.Time) ([]domain.TransactionRecord, error)
	GetChildren(parentID string) ([]domain.TransactionRecord, error)
	Classify(id string, categoryID, accountCode *string, notes string) (*domain.TransactionRecord, error)
}

type transactionService struct {
	ledger repository.LedgerRepository
}

func NewTransactionService(ledger repository.LedgerRepository) TransactionService {
	return &transactionService{ledger: ledger}
}

func (s *transactionService) GetByID(id string) (*domain.TransactionRecord, error) {
	return s.ledger.GetByID(id)
}

func (s *transactionService) List(start, end *time.Time) ([]domain.TransactionRecord, error) {
	if start != nil && end != nil {
		return s.ledger.GetByDateRange(*start, *end)
	}
	return s.ledger.GetAll()
}

func (s *transactionService) GetChildren(parentID string) ([]domain.TransactionRecord, error) {
	return s.ledger.GetChildren(parentID)
}

func (s *transactionService) Classify(id string, categoryID, accountCode *string, notes string) (*domain.TransactionRecord, error) {
	if err := s.ledger.UpdateClassification(id, categoryID, accountCode, notes); err != nil {
		return nil, err
	}
	return s.ledger.GetByID(id)
}
