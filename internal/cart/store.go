package cart

import (
	"fmt"
	"log"
	"sync"
)

// Observer receives the total item count after every mutation, e.g. to
// keep a displayed cart counter current.
type Observer func(itemCount int)

// Store owns the session's cart: an ordered sequence of lines, at most one
// per product. Every mutating operation persists the new state before
// returning and then notifies observers synchronously.
type Store struct {
	mu        sync.Mutex
	lines     []Line
	persister Persister
	observers []Observer
}

// NewStore restores the cart from persisted state. Missing or unreadable
// state starts an empty cart rather than failing the session; lines with
// a non-positive quantity are dropped on restore so a bad document cannot
// smuggle the invariant away.
func NewStore(p Persister) *Store {
	s := &Store{persister: p}

	lines, err := p.Load()
	if err != nil {
		log.Printf("[cart] restore failed, starting empty: %v", err)
		return s
	}
	for _, ln := range lines {
		if ln.Quantity >= 1 && ln.ProductID != "" {
			s.lines = append(s.lines, ln)
		}
	}
	return s
}

// Subscribe registers an observer. Observers are invoked synchronously,
// in registration order, after every successful in-memory mutation.
func (s *Store) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Add inserts line or, if a line for the same product exists, increments
// its quantity by delta. A positive stock caps the resulting quantity:
// exceeding stock saturates, it does not error. Inserting with delta < 1
// fails with ErrInvalidQuantity.
func (s *Store) Add(line Line, delta, stock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ProductID != line.ProductID {
			continue
		}
		q := s.lines[i].Quantity + delta
		if stock > 0 && q > stock {
			q = stock
		}
		if q <= 0 {
			// decrement to zero behaves like removal, same as the
			// quantity controls on the cart page
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return s.commit()
		}
		s.lines[i].Quantity = q
		return s.commit()
	}

	if delta < 1 {
		return fmt.Errorf("%w: insert with delta %d", ErrInvalidQuantity, delta)
	}
	if stock > 0 && delta > stock {
		delta = stock
	}
	line.Quantity = delta
	s.lines = append(s.lines, line)
	return s.commit()
}

// SetQuantity replaces the quantity of an existing line. A quantity <= 0
// removes the line; removed reports whether that happened. Fails with
// ErrItemNotFound if the product is not in the cart.
func (s *Store) SetQuantity(productID string, quantity int) (removed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ProductID != productID {
			continue
		}
		if quantity <= 0 {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return true, s.commit()
		}
		s.lines[i].Quantity = quantity
		return false, s.commit()
	}
	return false, fmt.Errorf("%w: %s", ErrItemNotFound, productID)
}

// Remove deletes the line for productID. Removing an absent item is a
// no-op, not an error.
func (s *Store) Remove(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return s.commit()
		}
	}
	return nil
}

// Clear empties the cart unconditionally. Used by the checkout pipeline
// after a confirmed order, or explicitly by the user.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	return s.commit()
}

// Snapshot returns an immutable copy of the current lines, decoupling
// pricing and order construction from later mutation.
func (s *Store) Snapshot() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

// ItemCount is the sum of all line quantities, the number shown on the
// cart badge.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemCountLocked()
}

func (s *Store) itemCountLocked() int {
	n := 0
	for _, ln := range s.lines {
		n += ln.Quantity
	}
	return n
}

// commit persists the new state and notifies observers. The in-memory
// mutation stays applied even when the durable write fails; the caller
// gets ErrPersistenceFailed so it can tell the user.
func (s *Store) commit() error {
	saveErr := s.persister.Save(append([]Line(nil), s.lines...))

	count := s.itemCountLocked()
	for _, o := range s.observers {
		o(count)
	}

	if saveErr != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, saveErr)
	}
	return nil
}
