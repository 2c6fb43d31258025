package parser

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"club-recon/internal/domain"
	"club-recon/pkg/logger"
)

// BankCSVParser reads a bank export in streaming mode and produces ledger
// records in file order, which the resolver depends on.
type BankCSVParser struct {
	accountNumber string // default when the file carries no account column
}

func NewBankCSVParser(accountNumber string) *BankCSVParser {
	return &BankCSVParser{accountNumber: accountNumber}
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006"}

// Parse reads the CSV and invokes callback per batch. Rows that fail to
// parse are logged and skipped; they never abort the file.
func (p *BankCSVParser) Parse(r io.Reader, batchSize int, callback func([]domain.TransactionRecord) error) error {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	columnMap := mapColumns(header)
	if err := validateColumns(columnMap); err != nil {
		return err
	}

	batch := make([]domain.TransactionRecord, 0, batchSize)
	lineNumber := 1

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNumber++
		if err != nil {
			logger.GetLogger().WithError(err).WithField("line", lineNumber).Warn("Failed to read CSV row, skipping")
			continue
		}

		record, err := p.parseRow(row, columnMap)
		if err != nil {
			logger.GetLogger().WithError(err).WithField("line", lineNumber).Warn("Failed to parse row, skipping")
			continue
		}

		batch = append(batch, *record)
		if len(batch) >= batchSize {
			if err := callback(batch); err != nil {
				return err
			}
			batch = make([]domain.TransactionRecord, 0, batchSize)
		}
	}

	if len(batch) > 0 {
		if err := callback(batch); err != nil {
			return err
		}
	}
	return nil
}

func (p *BankCSVParser) parseRow(row []string, columnMap map[string]int) (*domain.TransactionRecord, error) {
	get := func(col string) string {
		idx, ok := columnMap[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	executionDate, err := parseDate(get("execution_date"))
	if err != nil {
		return nil, fmt.Errorf("invalid execution_date: %w", err)
	}

	valueDate := executionDate
	if v := get("value_date"); v != "" {
		valueDate, err = parseDate(v)
		if err != nil {
			return nil, fmt.Errorf("invalid value_date: %w", err)
		}
	}

	amount, err := parseAmount(get("amount"))
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	account := get("account_number")
	if account == "" {
		account = p.accountNumber
	}

	record := &domain.TransactionRecord{
		ID:               uuid.New().String(),
		SequenceNumber:   get("sequence_number"),
		ExecutionDate:    executionDate,
		ValueDate:        valueDate,
		Amount:           amount,
		CounterpartyName: get("counterparty_name"),
		CounterpartyIBAN: get("counterparty_iban"),
		Communication:    get("communication"),
		AccountNumber:    account,
		Status:           domain.StatusUnverified,
	}
	record.DedupHash = DedupHash(record)
	return record, nil
}

// DedupHash derives the content hash used for duplicate detection. The
// sequence number is deliberately excluded: completed and incomplete forms
// of the same movement must hash identically.
func DedupHash(r *domain.TransactionRecord) string {
	parts := []string{
		r.ExecutionDate.Format("2006-01-02"),
		r.Amount.StringFixed(2),
		strings.ToLower(strings.TrimSpace(r.CounterpartyIBAN)),
		strings.ToLower(strings.TrimSpace(r.Communication)),
		strings.ToLower(strings.TrimSpace(r.AccountNumber)),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}

// parseAmount accepts both "1234.56" and the comma decimal separator
// "1234,56" some bank exports use.
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	return decimal.NewFromString(s)
}

var columnAliases = map[string][]string{
	"sequence_number":   {"sequence_number", "sequence", "statement_number", "numero"},
	"execution_date":    {"execution_date", "date", "booking_date"},
	"value_date":        {"value_date", "valuta"},
	"amount":            {"amount", "montant"},
	"counterparty_name": {"counterparty_name", "counterparty", "contrepartie"},
	"counterparty_iban": {"counterparty_iban", "iban"},
	"communication":     {"communication", "memo", "description"},
	"account_number":    {"account_number", "account"},
}

func mapColumns(header []string) map[string]int {
	normalized := make(map[string]int, len(header))
	for i, h := range header {
		normalized[strings.ToLower(strings.TrimSpace(h))] = i
	}

	columnMap := make(map[string]int)
	for canonical, aliases := range columnAliases {
		for _, alias := range aliases {
			if idx, ok := normalized[alias]; ok {
				columnMap[canonical] = idx
				break
			}
		}
	}
	return columnMap
}

func validateColumns(columnMap map[string]int) error {
	for _, required := range []string{"execution_date", "amount"} {
		if _, ok := columnMap[required]; !ok {
			return fmt.Errorf("invalid CSV format: missing required column %q", required)
		}
	}
	return nil
}
