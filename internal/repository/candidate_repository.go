package repository

import (
	"database/sql"
	"fmt"

	"club-recon/internal/domain"
	"club-recon/pkg/logger"
)

// CandidateRepository flattens events, expense claims and member
// registrations into the matcher's CandidateEntity shape.
type CandidateRepository interface {
	FetchCandidates(entityType domain.EntityType) ([]domain.CandidateEntity, error)
}

type candidateRepository struct {
	db *sql.DB
}

func NewCandidateRepository(db *sql.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

func (r *candidateRepository) FetchCandidates(entityType domain.EntityType) ([]domain.CandidateEntity, error) {
	switch entityType {
	case domain.EntityEvent:
		return r.fetchEvents()
	case domain.EntityExpense:
		return r.fetchExpenseClaims()
	case domain.EntityRegistration:
		return r.fetchRegistrations()
	default:
		return nil, fmt.Errorf("unknown entity type: %s", entityType)
	}
}

func (r *candidateRepository) fetchEvents() ([]domain.CandidateEntity, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), COALESCE(organizer, ''),
		       expected_amount, starts_at, ends_at, expects_cash
		FROM events
		ORDER BY id
	`
	rows, err := r.db.Query(query)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query events")
		return nil, err
	}
	defer rows.Close()

	var candidates []domain.CandidateEntity
	for rows.Next() {
		c := domain.CandidateEntity{Type: domain.EntityEvent}
		var endsAt sql.NullTime
		err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CounterpartName, &c.ExpectedAmount, &c.ExpectedDate, &endsAt, &c.ExpectsCash)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan event")
			continue
		}
		if endsAt.Valid {
			t := endsAt.Time
			c.ExpectedDateEnd = &t
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (r *candidateRepository) fetchExpenseClaims() ([]domain.CandidateEntity, error) {
	// Only approved claims are waiting for a reimbursement transaction.
	query := `
		SELECT id, title, COALESCE(description, ''), claimant, amount, submitted_at
		FROM expense_claims
		WHERE status = $1
		ORDER BY id
	`
	rows, err := r.db.Query(query, domain.ExpenseStatusApproved)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query expense claims")
		return nil, err
	}
	defer rows.Close()

	var candidates []domain.CandidateEntity
	for rows.Next() {
		c := domain.CandidateEntity{Type: domain.EntityExpense}
		err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CounterpartName, &c.ExpectedAmount, &c.ExpectedDate)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan expense claim")
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (r *candidateRepository) fetchRegistrations() ([]domain.CandidateEntity, error) {
	query := `
		SELECT r.id, r.member_name || ' / ' || e.name, COALESCE(e.description, ''),
		       r.member_name, r.fee, r.registered_at, r.expects_cash
		FROM registrations r
		JOIN events e ON e.id = r.event_id
		WHERE r.paid = FALSE
		ORDER BY r.id
	`
	rows, err := r.db.Query(query)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query registrations")
		return nil, err
	}
	defer rows.Close()

	var candidates []domain.CandidateEntity
	for rows.Next() {
		c := domain.CandidateEntity{Type: domain.EntityRegistration}
		err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CounterpartName, &c.ExpectedAmount, &c.ExpectedDate, &c.ExpectsCash)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan registration")
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
