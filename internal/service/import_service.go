package service

import (
	"fmt"
	"io"

	"club-recon/internal/domain"
	"club-recon/internal/parser"
	"club-recon/internal/repository"
	"club-recon/internal/resolver"
	"club-recon/pkg/logger"
)

// ImportService runs a bank CSV export through the dedup/enrichment
// resolver against the current ledger.
type ImportService interface {
	ImportCSV(r io.Reader, accountNumber string) (*resolver.BatchSummary, error)
}

type importService struct {
	ledger    repository.LedgerRepository
	batchSize int
}

func NewImportService(ledger repository.LedgerRepository, batchSize int) ImportService {
	return &importService{ledger: ledger, batchSize: batchSize}
}

// ImportCSV parses the export and resolves records in file order. One
// resolver spans all parser batches so in-batch index updates carry through
// the whole file.
func (s *importService) ImportCSV(r io.Reader, accountNumber string) (*resolver.BatchSummary, error) {
	existing, err := s.ledger.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	res := resolver.New(existing, s.ledger)
	total := &resolver.BatchSummary{}

	csvParser := parser.NewBankCSVParser(accountNumber)
	err = csvParser.Parse(r, s.batchSize, func(batch []domain.TransactionRecord) error {
		summary := res.ResolveBatch(batch)
		total.Total += summary.Total
		total.New += summary.New
		total.Completed += summary.Completed
		total.Enriched += summary.Enriched
		total.Duplicates += summary.Duplicates
		total.Errors += summary.Errors
		total.Failures = append(total.Failures, summary.Failures...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("import failed: %w", err)
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"total":      total.Total,
		"new":        total.New,
		"duplicates": total.Duplicates,
		"errors":     total.Errors,
	}).Info("Import completed")

	return total, nil
}
