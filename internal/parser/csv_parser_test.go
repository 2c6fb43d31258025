package parser

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-recon/internal/domain"
)

const sampleCSV = `sequence_number,execution_date,value_date,amount,counterparty_name,counterparty_iban,communication
2025-00001,2025-02-10,2025-02-11,"-42,50",Acme Catering,BE68539007547034,Invoice 4711
2025-00002,2025-02-12,,125.00,Jean Dupont,,Registration spring camp
2025-,2025-02-13,2025-02-13,-9.99,,,Bank fee
`

func parseAll(t *testing.T, csv string) []domain.TransactionRecord {
	t.Helper()
	p := NewBankCSVParser("BE01234567890123")
	var records []domain.TransactionRecord
	err := p.Parse(strings.NewReader(csv), 100, func(batch []domain.TransactionRecord) error {
		records = append(records, batch...)
		return nil
	})
	require.NoError(t, err)
	return records
}

func TestBankCSVParser_Parse(t *testing.T) {
	records := parseAll(t, sampleCSV)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "2025-00001", first.SequenceNumber)
	assert.True(t, first.Amount.Equal(decimal.NewFromFloat(-42.50)), "comma decimal separator accepted")
	assert.Equal(t, "Acme Catering", first.CounterpartyName)
	assert.Equal(t, "BE68539007547034", first.CounterpartyIBAN)
	assert.Equal(t, domain.StatusUnverified, first.Status)
	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, first.DedupHash)

	second := records[1]
	assert.Equal(t, second.ExecutionDate, second.ValueDate, "value date defaults to execution date")
	assert.Equal(t, "BE01234567890123", second.AccountNumber, "account falls back to the parser default")

	third := records[2]
	assert.Equal(t, "2025-", third.SequenceNumber, "incomplete sequence numbers survive parsing")
}

func TestBankCSVParser_ImportOrderPreserved(t *testing.T) {
	records := parseAll(t, sampleCSV)
	assert.Equal(t, "2025-00001", records[0].SequenceNumber)
	assert.Equal(t, "2025-00002", records[1].SequenceNumber)
	assert.Equal(t, "2025-", records[2].SequenceNumber)
}

func TestBankCSVParser_SkipsBadRows(t *testing.T) {
	csv := `sequence_number,execution_date,amount
2025-00001,2025-02-10,10.00
2025-00002,not-a-date,20.00
2025-00003,2025-02-12,abc
2025-00004,2025-02-13,40.00
`
	records := parseAll(t, csv)
	require.Len(t, records, 2)
	assert.Equal(t, "2025-00001", records[0].SequenceNumber)
	assert.Equal(t, "2025-00004", records[1].SequenceNumber)
}

func TestBankCSVParser_MissingRequiredColumns(t *testing.T) {
	p := NewBankCSVParser("")
	err := p.Parse(strings.NewReader("foo,bar\n1,2\n"), 10, func([]domain.TransactionRecord) error { return nil })
	assert.ErrorContains(t, err, "missing required column")
}

func TestBankCSVParser_ColumnAliases(t *testing.T) {
	csv := `Numero,Date,Montant,Contrepartie,Memo
2025-00001,15/02/2025,-30.00,Acme,Fee
`
	records := parseAll(t, csv)
	require.Len(t, records, 1)
	assert.Equal(t, "Acme", records[0].CounterpartyName)
	assert.Equal(t, 15, records[0].ExecutionDate.Day())
	assert.Equal(t, "Fee", records[0].Communication)
}

func TestDedupHash_IgnoresSequenceNumber(t *testing.T) {
	a := domain.TransactionRecord{SequenceNumber: "2025-"}
	b := domain.TransactionRecord{SequenceNumber: "2025-00042"}
	a.Amount = decimal.NewFromFloat(-42.50)
	b.Amount = decimal.NewFromFloat(-42.50)

	assert.Equal(t, DedupHash(&a), DedupHash(&b),
		"incomplete and completed forms of the same movement hash identically")
}

func TestDedupHash_SensitiveToContent(t *testing.T) {
	a := domain.TransactionRecord{Amount: decimal.NewFromFloat(-42.50), Communication: "Invoice 4711"}
	b := domain.TransactionRecord{Amount: decimal.NewFromFloat(-42.50), Communication: "Invoice 4712"}
	assert.NotEqual(t, DedupHash(&a), DedupHash(&b))
}
