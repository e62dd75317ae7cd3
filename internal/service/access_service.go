package service

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// AccessService holds the operator allow-list. An empty list denies everyone.
type AccessService struct {
	mu      sync.RWMutex
	allowed map[int64]struct{}
	logger  *zerolog.Logger
}

func NewAccessService(ids []int64, logger *zerolog.Logger) *AccessService {
	s := &AccessService{logger: logger}
	s.Reload(ids)
	return s
}

func (s *AccessService) IsAllowed(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.allowed[userID]
	return ok
}

// Reload replaces the allow-list.
func (s *AccessService) Reload(ids []int64) {
	allowed := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}

	s.mu.Lock()
	s.allowed = allowed
	s.mu.Unlock()

	if len(allowed) == 0 {
		s.logger.Warn().Msg("Operator allow-list is empty, operator commands are disabled")
		return
	}
	s.logger.Info().Int("operators", len(allowed)).Msg("Operator allow-list loaded")
}

// AllowedIDs returns the allow-list in ascending order.
func (s *AccessService) AllowedIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.allowed))
	for id := range s.allowed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
