package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// DefaultExpiry is how long a fetched rate set stays valid. Rates
// drift slowly enough that a day-old snapshot is fine for a
// calculator.
const DefaultExpiry = 24 * time.Hour

// cachingService decorates a rates.Service with an in-memory snapshot
// and an optional on-disk cache file, so restarts (and offline runs
// with a warm file) skip the network entirely.
type cachingService struct {
	next   Service
	expiry time.Duration

	// path of the cache file; empty disables persistence
	path string

	// lock synchronizes access to the snapshot
	lock      sync.Mutex
	rates     map[string]float64
	fetchedAt time.Time
}

// NewCachingService returns a caching Service. path may be empty for a
// memory-only cache.
func NewCachingService(expiry time.Duration, path string, s Service) Service {
	return &cachingService{
		next:   s,
		expiry: expiry,
		path:   path,
	}
}

// cacheFile is the on-disk snapshot format.
type cacheFile struct {
	Timestamp int64              `json:"timestamp"`
	Rates     map[string]float64 `json:"rates"`
}

func (s *cachingService) Rates(ctx context.Context) (map[string]float64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.rates != nil && time.Since(s.fetchedAt) < s.expiry {
		return s.rates, nil
	}
	if rates, at, ok := s.loadFile(); ok && time.Since(at) < s.expiry {
		s.rates, s.fetchedAt = rates, at
		return rates, nil
	}

	rates, err := s.next.Rates(ctx)
	if err != nil {
		// A stale snapshot beats no rates at all.
		if s.rates != nil {
			return s.rates, nil
		}
		return nil, fmt.Errorf("refreshing rates: %w", err)
	}
	s.rates, s.fetchedAt = rates, time.Now()
	s.saveFile(rates, s.fetchedAt)
	return rates, nil
}

func (s *cachingService) loadFile() (map[string]float64, time.Time, bool) {
	if s.path == "" {
		return nil, time.Time{}, false
	}
	bytes, err := os.ReadFile(s.path)
	if err != nil {
		return nil, time.Time{}, false
	}
	var file cacheFile
	if err := json.Unmarshal(bytes, &file); err != nil || file.Rates == nil {
		return nil, time.Time{}, false
	}
	return file.Rates, time.Unix(file.Timestamp, 0), true
}

func (s *cachingService) saveFile(rates map[string]float64, at time.Time) {
	if s.path == "" {
		return
	}
	bytes, err := json.Marshal(cacheFile{Timestamp: at.Unix(), Rates: rates})
	if err != nil {
		return
	}
	// Failures are ignored; the file cache is best effort.
	_ = os.WriteFile(s.path, bytes, 0o644)
}
