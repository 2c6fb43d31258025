package repository

import (
	"database/sql"
	"time"

	"club-recon/internal/domain"
	"club-recon/pkg/logger"
)

// LedgerRepository persists transaction records. Every method may fail
// individually; batch callers tolerate per-record failure.
type LedgerRepository interface {
	Insert(tx *domain.TransactionRecord) error
	UpdateSequence(id, sequenceNumber, dedupHash string) error
	UpdateCounterparty(id, name, iban string) error
	UpdateClassification(id string, categoryID, accountCode *string, notes string) error
	UpdateStatus(id string, status domain.ReconciliationStatus) error
	SetSplitState(id string, isParent bool, childCount int) error
	Delete(id string) error
	GetByID(id string) (*domain.TransactionRecord, error)
	GetAll() ([]domain.TransactionRecord, error)
	GetByDateRange(start, end time.Time) ([]domain.TransactionRecord, error)
	GetChildren(parentID string) ([]domain.TransactionRecord, error)
	GetUnreconciled() ([]domain.TransactionRecord, error)
}

type ledgerRepository struct {
	db    *sql.DB
	links LinkRepository
}

func NewLedgerRepository(db *sql.DB, links LinkRepository) LedgerRepository {
	return &ledgerRepository{db: db, links: links}
}

const transactionColumns = `
	id, sequence_number, dedup_hash, execution_date, value_date, amount,
	counterparty_name, counterparty_iban, communication, account_number,
	category_id, account_code, notes, reconciliation_status,
	parent_id, child_index, is_parent, child_count, created_at, updated_at
`

func (r *ledgerRepository) Insert(tx *domain.TransactionRecord) error {
	query := `
		INSERT INTO transactions (
			id, sequence_number, dedup_hash, execution_date, value_date, amount,
			counterparty_name, counterparty_iban, communication, account_number,
			category_id, account_code, notes, reconciliation_status,
			parent_id, child_index, is_parent, child_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		tx.ID, tx.SequenceNumber, tx.DedupHash, tx.ExecutionDate, tx.ValueDate, tx.Amount,
		tx.CounterpartyName, tx.CounterpartyIBAN, tx.Communication, tx.AccountNumber,
		tx.CategoryID, tx.AccountCode, tx.Notes, tx.Status,
		tx.ParentID, tx.ChildIndex, tx.IsParent, tx.ChildCount,
	).Scan(&tx.CreatedAt, &tx.UpdatedAt)

	if err != nil {
		logger.GetLogger().WithError(err).WithField("sequence", tx.SequenceNumber).Error("Failed to insert transaction")
		return err
	}
	return nil
}

func (r *ledgerRepository) UpdateSequence(id, sequenceNumber, dedupHash string) error {
	return r.exec(
		`UPDATE transactions SET sequence_number = $1, dedup_hash = $2, updated_at = NOW() WHERE id = $3`,
		sequenceNumber, dedupHash, id,
	)
}

func (r *ledgerRepository) UpdateCounterparty(id, name, iban string) error {
	return r.exec(
		`UPDATE transactions
		 SET counterparty_name = $1,
		     counterparty_iban = CASE WHEN counterparty_iban = '' THEN $2 ELSE counterparty_iban END,
		     updated_at = NOW()
		 WHERE id = $3`,
		name, iban, id,
	)
}

func (r *ledgerRepository) UpdateClassification(id string, categoryID, accountCode *string, notes string) error {
	return r.exec(
		`UPDATE transactions SET category_id = $1, account_code = $2, notes = $3, updated_at = NOW() WHERE id = $4`,
		categoryID, accountCode, notes, id,
	)
}

func (r *ledgerRepository) UpdateStatus(id string, status domain.ReconciliationStatus) error {
	return r.exec(
		`UPDATE transactions SET reconciliation_status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
}

func (r *ledgerRepository) SetSplitState(id string, isParent bool, childCount int) error {
	return r.exec(
		`UPDATE transactions SET is_parent = $1, child_count = $2, updated_at = NOW() WHERE id = $3`,
		isParent, childCount, id,
	)
}

func (r *ledgerRepository) Delete(id string) error {
	return r.exec(`DELETE FROM transactions WHERE id = $1`, id)
}

func (r *ledgerRepository) exec(query string, args ...interface{}) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to update transaction")
		return err
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ledgerRepository) GetByID(id string) (*domain.TransactionRecord, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	var tx domain.TransactionRecord
	err := scanTransaction(r.db.QueryRow(query, id), &tx)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get transaction")
		return nil, err
	}

	links, err := r.links.ListByTransaction(id)
	if err != nil {
		return nil, err
	}
	tx.Links = links
	return &tx, nil
}

func (r *ledgerRepository) GetAll() ([]domain.TransactionRecord, error) {
	return r.query(`SELECT ` + transactionColumns + ` FROM transactions ORDER BY execution_date, sequence_number, id`)
}

func (r *ledgerRepository) GetByDateRange(start, end time.Time) ([]domain.TransactionRecord, error) {
	return r.query(
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE execution_date >= $1 AND execution_date <= $2
		 ORDER BY execution_date, sequence_number, id`,
		start, end,
	)
}

func (r *ledgerRepository) GetChildren(parentID string) ([]domain.TransactionRecord, error) {
	return r.query(
		`SELECT `+transactionColumns+` FROM transactions WHERE parent_id = $1 ORDER BY child_index`,
		parentID,
	)
}

// GetUnreconciled returns non-parent transactions with no links and a status
// other than reconciled, ordered deterministically for the matcher.
func (r *ledgerRepository) GetUnreconciled() ([]domain.TransactionRecord, error) {
	return r.query(
		`SELECT ` + transactionColumns + ` FROM transactions t
		 WHERE t.is_parent = FALSE
		   AND t.reconciliation_status <> 'RECONCILED'
		   AND NOT EXISTS (SELECT 1 FROM entity_links l WHERE l.transaction_id = t.id)
		 ORDER BY t.execution_date, t.sequence_number, t.id`,
	)
}

func (r *ledgerRepository) query(query string, args ...interface{}) ([]domain.TransactionRecord, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query transactions")
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.TransactionRecord
	for rows.Next() {
		var tx domain.TransactionRecord
		if err := scanTransaction(rows, &tx); err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan transaction")
			continue
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachLinks(transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *ledgerRepository) attachLinks(transactions []domain.TransactionRecord) error {
	if len(transactions) == 0 {
		return nil
	}
	ids := make([]string, len(transactions))
	for i := range transactions {
		ids[i] = transactions[i].ID
	}
	byTransaction, err := r.links.ListByTransactions(ids)
	if err != nil {
		return err
	}
	for i := range transactions {
		transactions[i].Links = byTransaction[transactions[i].ID]
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner, tx *domain.TransactionRecord) error {
	return row.Scan(
		&tx.ID, &tx.SequenceNumber, &tx.DedupHash, &tx.ExecutionDate, &tx.ValueDate, &tx.Amount,
		&tx.CounterpartyName, &tx.CounterpartyIBAN, &tx.Communication, &tx.AccountNumber,
		&tx.CategoryID, &tx.AccountCode, &tx.Notes, &tx.Status,
		&tx.ParentID, &tx.ChildIndex, &tx.IsParent, &tx.ChildCount, &tx.CreatedAt, &tx.UpdatedAt,
	)
}
