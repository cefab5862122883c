// Package session keeps the per-client state of a long-running process: the
// project being deployed, the recommendations computed for it and the one the
// client selected. Each session owns its own remote resource cache, so
// lookups made for one client are never served to another.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	deployerrors "github.com/ariel-frischer/recipedeploy/internal/errors"
	"github.com/ariel-frischer/recipedeploy/internal/recommendation"
	"github.com/ariel-frischer/recipedeploy/internal/resource"
)

// Session is one client's deployment workflow.
type Session struct {
	ID          string
	ProjectPath string
	AWSRegion   string
	CreatedAt   time.Time

	// Resources caches remote lookups for the lifetime of the session.
	Resources *resource.Cache

	mu              sync.Mutex
	accountID       string
	recommendations []*recommendation.Recommendation
	selected        *recommendation.Recommendation
	lastUsed        time.Time
}

// AccountID returns the account resolved for the session, if any.
func (s *Session) AccountID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountID
}

// SetAccountID records the account the session deploys to.
func (s *Session) SetAccountID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountID = id
}

// SetRecommendations replaces the computed recommendations and clears the selection.
func (s *Session) SetRecommendations(recs []*recommendation.Recommendation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recommendations = recs
	s.selected = nil
}

// Recommendations returns the computed recommendations in ranked order.
func (s *Session) Recommendations() []*recommendation.Recommendation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*recommendation.Recommendation, len(s.recommendations))
	copy(out, s.recommendations)
	return out
}

// Recommendation returns the recommendation for a recipe id.
func (s *Session) Recommendation(recipeID string) (*recommendation.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.recommendations {
		if rec.Recipe.Id == recipeID {
			return rec, nil
		}
	}
	return nil, deployerrors.RecommendationNotFound(recipeID)
}

// Select makes the recommendation for recipeID the session's target.
func (s *Session) Select(recipeID string) (*recommendation.Recommendation, error) {
	rec, err := s.Recommendation(recipeID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.selected = rec
	s.mu.Unlock()
	return rec, nil
}

// Selected returns the selected recommendation.
func (s *Session) Selected() (*recommendation.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil, deployerrors.New(deployerrors.NotFound, deployerrors.CodeRecommendationNotFound,
			"no recommendation has been selected for session "+s.ID)
	}
	return s.selected, nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Manager is the registry of live sessions.
type Manager struct {
	querier resource.Querier
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty registry. Sessions wrap querier in their own
// cache; a nil querier disables remote lookups.
func NewManager(querier resource.Querier, logger *zap.Logger) *Manager {
	if querier == nil {
		querier = resource.Offline{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		querier:  querier,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session for a project.
func (m *Manager) Create(projectPath, awsRegion string) *Session {
	now := m.now()
	s := &Session{
		ID:          uuid.NewString(),
		ProjectPath: projectPath,
		AWSRegion:   awsRegion,
		CreatedAt:   now,
		Resources:   resource.NewCache(m.querier, m.logger.Named("resource")),
		lastUsed:    now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("session started",
		zap.String("session", s.ID),
		zap.String("project", projectPath))
	return s
}

// Get returns a live session and marks it used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, deployerrors.SessionNotFound(id)
	}
	s.touch(m.now())
	return s, nil
}

// Close ends a session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return deployerrors.SessionNotFound(id)
	}
	m.logger.Info("session closed", zap.String("session", id))
	return nil
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Prune closes sessions unused for longer than maxIdle and reports how many
// were closed.
func (m *Manager) Prune(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()
	pruned := 0
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			pruned++
		}
	}
	if pruned > 0 {
		m.logger.Info("pruned idle sessions", zap.Int("count", pruned))
	}
	return pruned
}
