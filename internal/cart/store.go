package cart

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("cart not found")

const (
	minQuantity = 1
	maxQuantity = 20
)

// Storage persists a session's cart lines across reloads. Implementations
// live in the storage package; the store treats persistence as best-effort.
type Storage interface {
	Load(ctx context.Context, sessionID string) ([]Line, error)
	Save(ctx context.Context, sessionID string, lines []Line) error
	Delete(ctx context.Context, sessionID string) error
}

// Store holds the ordered cart lines for one session. All operations are
// synchronous; a mutation is visible to any read that follows it.
type Store struct {
	mu        sync.Mutex
	sessionID string
	lines     []Line
	storage   Storage
}

// NewStore creates an empty store. storage may be nil for ephemeral carts.
func NewStore(sessionID string, storage Storage) *Store {
	return &Store{
		sessionID: sessionID,
		storage:   storage,
	}
}

// Hydrate replaces the in-memory lines with the persisted ones.
// A missing persisted cart yields an empty store, not an error.
func (s *Store) Hydrate(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}

	lines, err := s.storage.Load(ctx, s.sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	s.lines = lines
	s.mu.Unlock()
	return nil
}

// AddLine assigns a fresh id, appends the line and returns the stored copy.
// Shape validation is an upstream concern.
func (s *Store) AddLine(input LineInput) Line {
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}

	line := Line{
		ID:              uuid.NewString(),
		ProductID:       input.ProductID,
		Title:           input.Title,
		Image:           input.Image,
		Date:            input.Date,
		Adults:          input.Adults,
		Children:        input.Children,
		Infants:         input.Infants,
		SpecialRequests: input.SpecialRequests,
		UnitPriceAdult:  input.UnitPriceAdult,
		Quantity:        quantity,
		TotalPrice:      input.TotalPrice,
	}

	s.mu.Lock()
	s.lines = append(s.lines, line)
	s.mu.Unlock()

	s.persist()
	return line
}

// RemoveLine removes the line if present; removing an absent id is a no-op.
func (s *Store) RemoveLine(id string) {
	s.mu.Lock()
	removed := false
	for i, line := range s.lines {
		if line.ID == id {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()

	if removed {
		s.persist()
	}
}

// UpdateQuantity sets the quantity of a line. Out-of-range quantities and
// unknown ids are silent no-ops. The line's TotalPrice is deliberately left
// as-is: it is a snapshot frozen at add time.
func (s *Store) UpdateQuantity(id string, quantity int) {
	if quantity < minQuantity || quantity > maxQuantity {
		return
	}

	s.mu.Lock()
	updated := false
	for i := range s.lines {
		if s.lines[i].ID == id {
			s.lines[i].Quantity = quantity
			updated = true
			break
		}
	}
	s.mu.Unlock()

	if updated {
		s.persist()
	}
}

// UpdateLine applies an explicit patch to a line. This is the only path that
// may overwrite TotalPrice. Unknown ids are a no-op.
func (s *Store) UpdateLine(id string, patch LinePatch) {
	s.mu.Lock()
	updated := false
	for i := range s.lines {
		if s.lines[i].ID != id {
			continue
		}
		if patch.Date != nil {
			s.lines[i].Date = *patch.Date
		}
		if patch.Adults != nil {
			s.lines[i].Adults = *patch.Adults
		}
		if patch.Children != nil {
			s.lines[i].Children = *patch.Children
		}
		if patch.Infants != nil {
			s.lines[i].Infants = *patch.Infants
		}
		if patch.SpecialRequests != nil {
			s.lines[i].SpecialRequests = *patch.SpecialRequests
		}
		if patch.Quantity != nil && *patch.Quantity >= minQuantity && *patch.Quantity <= maxQuantity {
			s.lines[i].Quantity = *patch.Quantity
		}
		if patch.TotalPrice != nil {
			s.lines[i].TotalPrice = *patch.TotalPrice
		}
		updated = true
		break
	}
	s.mu.Unlock()

	if updated {
		s.persist()
	}
}

// Clear empties the cart unconditionally. Safe to call repeatedly.
func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()

	if s.storage != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := s.storage.Delete(ctx, s.sessionID); err != nil && !errors.Is(err, ErrNotFound) {
			log.Printf("cart storage delete error: %v", err)
		}
	}
}

// ClearLines removes exactly the given ids, leaving any line added after the
// ids were snapshotted in place. An empty remainder deletes the persisted
// cart the same way Clear does.
func (s *Store) ClearLines(ids []string) {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	kept := s.lines[:0]
	for _, line := range s.lines {
		if _, ok := drop[line.ID]; !ok {
			kept = append(kept, line)
		}
	}
	s.lines = kept
	empty := len(kept) == 0
	s.mu.Unlock()

	if empty {
		if s.storage != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.storage.Delete(ctx, s.sessionID); err != nil && !errors.Is(err, ErrNotFound) {
				log.Printf("cart storage delete error: %v", err)
			}
		}
		return
	}
	s.persist()
}

// Total sums TotalPrice across the current lines.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, line := range s.lines {
		total = total.Add(line.TotalPrice)
	}
	return total
}

// Lines returns a copy of the current lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Len reports the number of lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// persist writes the current lines through the storage port, logging failures
// instead of surfacing them.
func (s *Store) persist() {
	if s.storage == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.storage.Save(ctx, s.sessionID, s.Lines()); err != nil {
		log.Printf("cart storage save error: %v", err)
	}
}
