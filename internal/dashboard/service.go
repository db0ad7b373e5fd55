package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wonny/fundwatch/internal/history"
	"github.com/wonny/fundwatch/internal/portfolio"
	"github.com/wonny/fundwatch/pkg/logger"
)

// Publisher pushes evaluations to live subscribers
type Publisher interface {
	Publish(topic string, payload interface{})
}

// Topics published by the service
const (
	TopicEvaluation = "evaluation"
	TopicStatus     = "status"
)

// Snapshot is the cached dashboard state
type Snapshot struct {
	Status     Status      `json:"status"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`
	UpdatedAt  time.Time   `json:"updated_at,omitempty"`
	Stale      bool        `json:"stale"` // older than the stale TTL
	LastError  string      `json:"last_error,omitempty"`
}

// Service runs evaluation cycles and keeps the latest result
// ⭐ SSOT: 대시보드 상태는 이 구조체에서만
type Service struct {
	evaluator *Evaluator
	funds     *portfolio.Repository
	history   *history.Cache
	publisher Publisher
	loc       *time.Location
	staleTTL  time.Duration
	now       func() time.Time
	logger    *logger.Logger

	mu        sync.RWMutex
	latest    *Evaluation
	updatedAt time.Time
	status    Status
	lastError string
}

// NewService creates a dashboard service. publisher may be nil.
func NewService(evaluator *Evaluator, funds *portfolio.Repository, hist *history.Cache, publisher Publisher, loc *time.Location, staleTTL time.Duration, log *logger.Logger) *Service {
	return &Service{
		evaluator: evaluator,
		funds:     funds,
		history:   hist,
		publisher: publisher,
		loc:       loc,
		staleTTL:  staleTTL,
		now:       time.Now,
		logger:    log,
		status:    StatusIdle,
	}
}

// Evaluate runs one cycle without touching the cached state
func (s *Service) Evaluate(ctx context.Context) (*Evaluation, error) {
	p, err := s.funds.Load(ctx)
	if err != nil {
		return nil, err
	}

	navHistory, _, err := s.history.Load(ctx)
	if err != nil {
		return nil, err
	}

	return s.evaluator.Evaluate(ctx, p, navHistory, s.now().In(s.loc))
}

// Refresh runs one cycle, caches and publishes it. An ErrNoQuotes cycle flips
// the status to connecting and keeps the previous evaluation.
func (s *Service) Refresh(ctx context.Context) (*Evaluation, error) {
	eval, err := s.Evaluate(ctx)

	s.mu.Lock()
	switch {
	case err == nil:
		s.latest = eval
		s.updatedAt = eval.At
		s.status = StatusLive
		s.lastError = ""
	case errors.Is(err, ErrNoQuotes):
		s.status = StatusConnecting
		s.lastError = err.Error()
	default:
		s.lastError = err.Error()
	}
	status := s.status
	s.mu.Unlock()

	if s.publisher != nil {
		s.publisher.Publish(TopicStatus, status)
		if err == nil {
			s.publisher.Publish(TopicEvaluation, eval)
		}
	}

	if err != nil {
		return nil, err
	}
	return eval, nil
}

// Latest returns the cached state
func (s *Service) Latest() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Status:     s.status,
		Evaluation: s.latest,
		UpdatedAt:  s.updatedAt,
		LastError:  s.lastError,
	}
	if s.latest != nil && s.staleTTL > 0 {
		snap.Stale = s.now().Sub(s.updatedAt) > s.staleTTL
	}
	return snap
}
