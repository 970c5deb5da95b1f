// Package session keeps a per-candidate memory of funnel parameters in Redis
// so a returning candidate resumes where they stopped. Memory is best-effort:
// a turn must work the same, just colder, when Redis is unavailable.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coopentrega/recruiting-ai-platform/internal/funnel"
	"github.com/coopentrega/recruiting-ai-platform/pkg/logging"
)

// DefaultTTL keeps a candidate's memory for 30 days.
const DefaultTTL = 30 * 24 * time.Hour

// TrackedKeys is the whitelist of parameters worth remembering across turns.
// Everything else in the engine snapshot is transient.
var TrackedKeys = []string{
	funnel.KeyName, funnel.KeyPhone, funnel.KeyCity, funnel.KeyOpenings,
	funnel.KeyMotoOK, funnel.KeyCNHOK, funnel.KeyAndroidOK, funnel.KeyRequisites,
	"q1", "q2", "q3", "q4", "q5",
	funnel.KeyApproved, funnel.KeyScore, funnel.KeySummary,
	funnel.KeyVacancyID, funnel.KeyPharmacy, funnel.KeyShift, funnel.KeyFee,
	funnel.KeyProtocol,
}

// Store persists candidate memory under lead:<phone> keys.
type Store struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewStore creates a store. ttl <= 0 selects DefaultTTL.
func NewStore(client *redis.Client, ttl time.Duration, logger *logging.Logger) *Store {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{redis: client, ttl: ttl, logger: logger}
}

func leadKey(phone string) string {
	return fmt.Sprintf("lead:%s", phone)
}

// Get loads the candidate's memory. Misses and transport errors both return
// an empty snapshot.
func (s *Store) Get(ctx context.Context, phone string) funnel.Params {
	data, err := s.redis.Get(ctx, leadKey(phone)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("session read failed", "error", err, "phone", phone)
		}
		return funnel.Params{}
	}
	var params funnel.Params
	if err := json.Unmarshal(data, &params); err != nil {
		s.logger.Warn("session decode failed", "error", err, "phone", phone)
		return funnel.Params{}
	}
	return params
}

// Set replaces the candidate's memory and refreshes its TTL.
func (s *Store) Set(ctx context.Context, phone string, params funnel.Params) error {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("session: marshal params: %w", err)
	}
	if err := s.redis.Set(ctx, leadKey(phone), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: persist params: %w", err)
	}
	return nil
}

// Merge folds the tracked subset of patch into the stored memory and returns
// the merged snapshot. Persistence failures are logged, not propagated.
func (s *Store) Merge(ctx context.Context, phone string, patch funnel.Params) funnel.Params {
	tracked := funnel.Params{}
	for _, key := range TrackedKeys {
		if v, ok := patch[key]; ok && v != nil {
			tracked[key] = v
		}
	}
	current := s.Get(ctx, phone)
	if len(tracked) == 0 {
		return current
	}
	merged := current.Merge(tracked)
	if err := s.Set(ctx, phone, merged); err != nil {
		s.logger.Warn("session merge failed", "error", err, "phone", phone)
	}
	return merged
}
