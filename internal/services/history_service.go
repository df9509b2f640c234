package services

import (
	"math"
	"sync"
	"time"

	apperrors "loanrisk/internal/errors"
	"loanrisk/internal/logger"
	"loanrisk/internal/models"
	"loanrisk/internal/store"
	"loanrisk/internal/uuid"
)

// Store key owned by the history service.
const historyKey = "history:predictions"

// historyService is the bounded, newest-first ledger of past prediction
// outcomes. Entries are immutable once appended; appending past the cap
// evicts the oldest entries.
type historyService struct {
	mu      sync.Mutex
	store   *store.KV
	cap     int
	records []models.PredictionRecord
}

// NewHistoryService loads the ledger from the store. Missing or corrupted
// state resets to an empty ledger.
func NewHistoryService(kv *store.KV, cap int) HistoryServicer {
	s := &historyService{store: kv, cap: cap}
	if err := kv.Get(historyKey, &s.records); err != nil {
		if err != store.ErrKeyNotFound {
			logger.Get().Warnw("resetting prediction history to defaults", "error", err)
		}
		s.records = nil
	}
	if len(s.records) > cap {
		s.records = s.records[:cap]
	}
	return s
}

// BuildRecord assembles an immutable ledger entry from an application and
// its scoring outcome, assigning a time-ordered ID and the derived risk
// classification.
func BuildRecord(app models.LoanApplication, decision models.Decision, approvalProb, rejectionProb float64) models.PredictionRecord {
	risk := models.AssessRisk(rejectionProb)
	return models.PredictionRecord{
		ID:                   uuid.New(),
		Timestamp:            time.Now().UTC(),
		Application:          app,
		Decision:             decision,
		ApprovalProbability:  approvalProb,
		RejectionProbability: rejectionProb,
		RiskScore:            risk.Score,
		RiskLevel:            risk.Level,
	}
}

// Append inserts the record at the front, evicting the oldest entries
// past the cap, and persists before returning.
func (s *historyService) Append(record models.PredictionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append([]models.PredictionRecord{record}, s.records...)
	if len(s.records) > s.cap {
		s.records = s.records[:s.cap]
	}

	if err := s.store.Put(historyKey, s.records); err != nil {
		s.records = s.records[1:]
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}

// All returns a newest-first copy of the ledger.
func (s *historyService) All() []models.PredictionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.PredictionRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Find returns the record with the given ID.
func (s *historyService) Find(id string) (*models.PredictionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == id {
			record := s.records[i]
			return &record, nil
		}
	}
	return nil, apperrors.ErrPredictionNotFound
}

// Aggregates recomputes the derived metrics over the current entries.
// An empty ledger yields all zeros.
func (s *historyService) Aggregates() models.Aggregates {
	s.mu.Lock()
	defer s.mu.Unlock()

	agg := models.Aggregates{Total: len(s.records)}
	if agg.Total == 0 {
		return agg
	}

	riskSum := 0
	for _, r := range s.records {
		if r.Approved() {
			agg.Approved++
		} else {
			agg.Rejected++
		}
		riskSum += r.RiskScore
	}
	agg.ApprovalRatePct = math.Round(float64(agg.Approved)/float64(agg.Total)*1000) / 10
	agg.AverageRiskScore = int(math.Round(float64(riskSum) / float64(agg.Total)))
	return agg
}

// Clear empties the ledger; admin maintenance operation.
func (s *historyService) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.records
	s.records = nil
	if err := s.store.Put(historyKey, []models.PredictionRecord{}); err != nil {
		s.records = prev
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}
