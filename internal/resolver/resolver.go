// Package resolver decides, for each imported bank record, whether it is
// new, a duplicate, a completion of a partially-written ledger entry, or an
// enrichment of a sparse one.
package resolver

import (
	"regexp"

	"club-recon/internal/domain"
	"club-recon/internal/similarity"
	"club-recon/pkg/logger"
)

// Disposition is the outcome chosen for one incoming record.
type Disposition string

const (
	DispositionNew       Disposition = "NEW"
	DispositionDuplicate Disposition = "DUPLICATE"
	// DispositionCompleted: an existing entry with an incomplete sequence
	// number was updated in place with the incoming record's values.
	DispositionCompleted Disposition = "COMPLETED"
	// DispositionEnriched: empty fields of an existing entry were filled
	// from the incoming record. Non-empty values are never overwritten.
	DispositionEnriched Disposition = "ENRICHED"
)

// Sequence numbers like "2025-" are written by the bank export before the
// final numbering pass; the full form is "2025-00042".
var incompleteSequencePattern = regexp.MustCompile(`^\d{4}-$`)

// IsIncompleteSequence reports whether a sequence number is a recognized
// incomplete pattern (year prefix with no suffix).
func IsIncompleteSequence(seq string) bool {
	return incompleteSequencePattern.MatchString(seq)
}

// Writer is the ledger mutation surface the resolver needs. Each call may
// fail individually; the resolver tolerates per-record failure.
type Writer interface {
	Insert(record *domain.TransactionRecord) error
	UpdateSequence(id, sequenceNumber, dedupHash string) error
	UpdateCounterparty(id, name, iban string) error
}

// BatchSummary counts what happened to one import batch.
type BatchSummary struct {
	Total      int                        `json:"total"`
	New        int                        `json:"new"`
	Completed  int                        `json:"completed"`
	Enriched   int                        `json:"enriched"`
	Duplicates int                        `json:"duplicates"`
	Errors     int                        `json:"errors"`
	Failures   []*domain.PersistenceError `json:"-"`
}

// Resolver holds the in-memory lookup state for one batch. It is not safe
// for concurrent use: each accepted disposition extends the indexes so later
// records in the same batch see it, which also means batch order matters.
type Resolver struct {
	writer     Writer
	byHash     map[string]*domain.TransactionRecord
	bySequence map[string]*domain.TransactionRecord
	incomplete []*domain.TransactionRecord
}

// New builds a resolver over a snapshot of the existing ledger.
func New(existing []domain.TransactionRecord, writer Writer) *Resolver {
	r := &Resolver{
		writer:     writer,
		byHash:     make(map[string]*domain.TransactionRecord, len(existing)),
		bySequence: make(map[string]*domain.TransactionRecord, len(existing)),
	}
	for i := range existing {
		r.index(&existing[i])
	}
	return r
}

func (r *Resolver) index(rec *domain.TransactionRecord) {
	if rec.DedupHash != "" {
		r.byHash[rec.DedupHash] = rec
	}
	if rec.SequenceNumber != "" {
		if IsIncompleteSequence(rec.SequenceNumber) {
			r.incomplete = append(r.incomplete, rec)
		} else {
			r.bySequence[rec.SequenceNumber] = rec
		}
	}
}

// ResolveBatch processes incoming records in order. A persistence failure on
// one record is counted and the batch continues.
func (r *Resolver) ResolveBatch(incoming []domain.TransactionRecord) *BatchSummary {
	log := logger.GetLogger()
	summary := &BatchSummary{Total: len(incoming)}

	for i := range incoming {
		disposition, err := r.Resolve(&incoming[i])
		if err != nil {
			summary.Errors++
			if perr, ok := err.(*domain.PersistenceError); ok {
				summary.Failures = append(summary.Failures, perr)
			}
			log.WithError(err).WithField("sequence", incoming[i].SequenceNumber).Warn("Record failed, continuing batch")
			continue
		}
		switch disposition {
		case DispositionNew:
			summary.New++
		case DispositionCompleted:
			summary.Completed++
		case DispositionEnriched:
			summary.Enriched++
		case DispositionDuplicate:
			summary.Duplicates++
		}
	}

	log.WithFields(map[string]interface{}{
		"total":      summary.Total,
		"new":        summary.New,
		"completed":  summary.Completed,
		"enriched":   summary.Enriched,
		"duplicates": summary.Duplicates,
		"errors":     summary.Errors,
	}).Info("Import batch resolved")

	return summary
}

// Resolve classifies one incoming record, applies the resulting mutation
// through the writer, and updates the lookup indexes.
//
// Evaluation order, most specific first:
//  1. incomplete-number completion
//  2. enrichment via hash or sequence
//  3. duplicate via hash or sequence
//  4. new
func (r *Resolver) Resolve(incoming *domain.TransactionRecord) (Disposition, error) {
	if existing := r.findIncompleteMatch(incoming); existing != nil {
		if err := r.writer.UpdateSequence(existing.ID, incoming.SequenceNumber, incoming.DedupHash); err != nil {
			return "", &domain.PersistenceError{SequenceNumber: incoming.SequenceNumber, Op: "update-sequence", Err: err}
		}
		r.removeIncomplete(existing)
		existing.SequenceNumber = incoming.SequenceNumber
		existing.DedupHash = incoming.DedupHash
		r.index(existing)
		return DispositionCompleted, nil
	}

	existing := r.lookup(incoming)
	if existing == nil {
		if err := r.writer.Insert(incoming); err != nil {
			return "", &domain.PersistenceError{SequenceNumber: incoming.SequenceNumber, Op: "insert", Err: err}
		}
		r.index(incoming)
		return DispositionNew, nil
	}

	if existing.CounterpartyName == "" && incoming.CounterpartyName != "" {
		if err := r.writer.UpdateCounterparty(existing.ID, incoming.CounterpartyName, incoming.CounterpartyIBAN); err != nil {
			return "", &domain.PersistenceError{SequenceNumber: incoming.SequenceNumber, Op: "update-counterparty", Err: err}
		}
		existing.CounterpartyName = incoming.CounterpartyName
		if existing.CounterpartyIBAN == "" {
			existing.CounterpartyIBAN = incoming.CounterpartyIBAN
		}
		return DispositionEnriched, nil
	}

	return DispositionDuplicate, nil
}

// lookup finds an existing entry by hash first, then by exact sequence
// number. Both paths feed the same dispositions: a record can come back with
// a changed memo (new hash) while keeping its sequence number.
func (r *Resolver) lookup(incoming *domain.TransactionRecord) *domain.TransactionRecord {
	if incoming.DedupHash != "" {
		if existing, ok := r.byHash[incoming.DedupHash]; ok {
			return existing
		}
	}
	if incoming.SequenceNumber != "" && !IsIncompleteSequence(incoming.SequenceNumber) {
		if existing, ok := r.bySequence[incoming.SequenceNumber]; ok {
			return existing
		}
	}
	return nil
}

// findIncompleteMatch looks for an existing entry whose sequence number is
// incomplete but whose other fields match the incoming record within
// tolerance. Only complete incoming sequence numbers can complete one.
func (r *Resolver) findIncompleteMatch(incoming *domain.TransactionRecord) *domain.TransactionRecord {
	if incoming.SequenceNumber == "" || IsIncompleteSequence(incoming.SequenceNumber) {
		return nil
	}
	for _, existing := range r.incomplete {
		if fieldsMatch(existing, incoming) {
			return existing
		}
	}
	return nil
}

// fieldsMatch compares date, amount, counterparty and memo within tolerance.
func fieldsMatch(a, b *domain.TransactionRecord) bool {
	if !a.Amount.Equal(b.Amount) {
		return false
	}
	diff := a.ExecutionDate.Sub(b.ExecutionDate)
	if diff < 0 {
		diff = -diff
	}
	if diff.Hours() > 72 {
		return false
	}
	if a.CounterpartyName != "" && b.CounterpartyName != "" {
		if similarity.NameSimilarity(a.CounterpartyName, b.CounterpartyName) < 0.8 {
			return false
		}
	}
	if a.Communication != "" && b.Communication != "" {
		if similarity.Normalize(a.Communication) != similarity.Normalize(b.Communication) {
			return false
		}
	}
	return true
}

func (r *Resolver) removeIncomplete(rec *domain.TransactionRecord) {
	for i, candidate := range r.incomplete {
		if candidate == rec {
			r.incomplete = append(r.incomplete[:i], r.incomplete[i+1:]...)
			return
		}
	}
}
