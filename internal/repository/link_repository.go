package repository

import (
	"database/sql"

	"github.com/lib/pq"

	"club-recon/internal/domain"
	"club-recon/pkg/logger"
)

// LinkRepository persists the transaction/entity link relation.
type LinkRepository interface {
	Add(transactionID string, link domain.EntityLink) error
	Remove(transactionID, entityID string) error
	ListByTransaction(transactionID string) ([]domain.EntityLink, error)
	ListByTransactions(transactionIDs []string) (map[string][]domain.EntityLink, error)
	LinkedEntityIDs(entityType domain.EntityType) (map[string]bool, error)
}

type linkRepository struct {
	db *sql.DB
}

func NewLinkRepository(db *sql.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Add(transactionID string, link domain.EntityLink) error {
	query := `
		INSERT INTO entity_links (transaction_id, entity_type, entity_id, entity_name, confidence, matched_at, matched_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(query, transactionID, link.EntityType, link.EntityID, link.EntityName, link.Confidence, link.MatchedAt, link.MatchedBy)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("transaction_id", transactionID).Error("Failed to add link")
	}
	return err
}

func (r *linkRepository) Remove(transactionID, entityID string) error {
	result, err := r.db.Exec(
		`DELETE FROM entity_links WHERE transaction_id = $1 AND entity_id = $2`,
		transactionID, entityID,
	)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to remove link")
		return err
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const linkColumns = `transaction_id, entity_type, entity_id, entity_name, confidence, matched_at, matched_by`

func (r *linkRepository) ListByTransaction(transactionID string) ([]domain.EntityLink, error) {
	byTransaction, err := r.ListByTransactions([]string{transactionID})
	if err != nil {
		return nil, err
	}
	return byTransaction[transactionID], nil
}

func (r *linkRepository) ListByTransactions(transactionIDs []string) (map[string][]domain.EntityLink, error) {
	query := `SELECT ` + linkColumns + ` FROM entity_links WHERE transaction_id = ANY($1) ORDER BY matched_at, entity_id`

	rows, err := r.db.Query(query, pq.Array(transactionIDs))
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query links")
		return nil, err
	}
	defer rows.Close()

	byTransaction := make(map[string][]domain.EntityLink)
	for rows.Next() {
		var transactionID string
		var link domain.EntityLink
		err := rows.Scan(&transactionID, &link.EntityType, &link.EntityID, &link.EntityName, &link.Confidence, &link.MatchedAt, &link.MatchedBy)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan link")
			continue
		}
		byTransaction[transactionID] = append(byTransaction[transactionID], link)
	}
	return byTransaction, rows.Err()
}

// LinkedEntityIDs returns the ids of entities of one type that already have
// at least one link; the matcher excludes them from candidate sets.
func (r *linkRepository) LinkedEntityIDs(entityType domain.EntityType) (map[string]bool, error) {
	rows, err := r.db.Query(`SELECT DISTINCT entity_id FROM entity_links WHERE entity_type = $1`, entityType)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query linked entities")
		return nil, err
	}
	defer rows.Close()

	linked := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		linked[id] = true
	}
	return linked, rows.Err()
}
