// Package history keeps the bounded, in-memory log of generated emails.
package history

import (
	"errors"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/email-composer/internal/model"
	"github.com/capitalize-ai/email-composer/pkg/metrics"
)

// DefaultLimit is the number of records kept when no bound is configured.
const DefaultLimit = 20

var (
	// ErrRecordNotFound is returned when no record has the given ID.
	ErrRecordNotFound = errors.New("history record not found")
	// ErrIndexOutOfRange is returned for positions outside the store.
	ErrIndexOutOfRange = errors.New("history index out of range")
)

// Store is an ordered, size-bounded record log. Index-based operations use
// insertion order (oldest first); callers reverse for display.
type Store struct {
	mu      sync.RWMutex
	limit   int
	records []*model.HistoryRecord

	now   func() time.Time
	newID func() string
}

// NewStore creates a store holding at most limit records.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{
		limit: limit,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

// Limit returns the configured bound.
func (s *Store) Limit() int {
	return s.limit
}

// Append inserts rec at the end, assigning an ID and timestamp when unset,
// and evicts the oldest records beyond the bound. It returns the stored
// record.
func (s *Store) Append(rec model.HistoryRecord) model.HistoryRecord {
	if rec.ID == "" {
		rec.ID = s.newID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, &rec)
	metrics.HistoryRecordsTotal.Inc()

	if over := len(s.records) - s.limit; over > 0 {
		clear(s.records[:over])
		s.records = slices.Delete(s.records, 0, over)
		metrics.HistoryEvictionsTotal.Add(float64(over))
	}

	return rec
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Records returns a copy of all records in insertion order.
func (s *Store) Records() []model.HistoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.HistoryRecord, len(s.records))
	for i, r := range s.records {
		out[i] = *r
	}
	return out
}

// NewestFirst returns a copy of all records, most recent first.
func (s *Store) NewestFirst() []model.HistoryRecord {
	out := s.Records()
	slices.Reverse(out)
	return out
}

// At returns the record at position index.
func (s *Store) At(index int) (model.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.records) {
		return model.HistoryRecord{}, ErrIndexOutOfRange
	}
	return *s.records[index], nil
}

// Get returns the record with the given ID.
func (s *Store) Get(id string) (model.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return *s.records[i], nil
	}
	return model.HistoryRecord{}, ErrRecordNotFound
}

// IndexOf returns the position of the record with the given ID, or -1.
func (s *Store) IndexOf(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id)
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.records, func(r *model.HistoryRecord) bool {
		return r.ID == id
	})
}

// ToggleFavorite flips the favorite flag of the record at index.
func (s *Store) ToggleFavorite(index int) (model.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.records) {
		return model.HistoryRecord{}, ErrIndexOutOfRange
	}
	r := s.records[index]
	r.Favorite = !r.Favorite
	return *r, nil
}

// ToggleFavoriteByID flips the favorite flag of the record with the given ID.
func (s *Store) ToggleFavoriteByID(id string) (model.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.HistoryRecord{}, ErrRecordNotFound
	}
	r := s.records[i]
	r.Favorite = !r.Favorite
	return *r, nil
}

// UpdateContent overwrites the content of the record with the given ID.
// Metadata and timestamp are unchanged.
func (s *Store) UpdateContent(id, content string) (model.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.HistoryRecord{}, ErrRecordNotFound
	}
	s.records[i].Content = content
	return *s.records[i], nil
}

// Delete removes the record at index. Later records shift down by one.
func (s *Store) Delete(index int) (model.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.records) {
		return model.HistoryRecord{}, ErrIndexOutOfRange
	}
	removed := *s.records[index]
	s.records = slices.Delete(s.records, index, index+1)
	return removed, nil
}

// Clear removes every record, which also empties the favorites view.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.records)
	s.records = nil
}

// FindByContent returns the oldest record whose content equals text.
// Duplicate generations are indistinguishable here; prefer Get by ID.
func (s *Store) FindByContent(text string) (model.HistoryRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.Content == text {
			return *r, true
		}
	}
	return model.HistoryRecord{}, false
}

// Favorites yields favorite records in insertion order. The sequence is
// evaluated lazily and may be ranged over repeatedly; each pass sees the
// store as it is at that time.
func (s *Store) Favorites() iter.Seq[model.HistoryRecord] {
	return func(yield func(model.HistoryRecord) bool) {
		for i := 0; ; i++ {
			s.mu.RLock()
			if i >= len(s.records) {
				s.mu.RUnlock()
				return
			}
			rec := *s.records[i]
			s.mu.RUnlock()

			if rec.Favorite && !yield(rec) {
				return
			}
		}
	}
}

// FavoritesNewestFirst collects the favorites view for display.
func (s *Store) FavoritesNewestFirst() []model.HistoryRecord {
	out := slices.Collect(s.Favorites())
	if out == nil {
		return []model.HistoryRecord{}
	}
	slices.Reverse(out)
	return out
}
