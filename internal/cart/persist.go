package cart

import (
	"errors"

	"github.com/cakedaddy/storefront/internal/localstore"
)

// storagePersister writes the line slice through a localstore.Store under
// the canonical cart key.
type storagePersister struct {
	store *localstore.Store
}

// NewStoragePersister adapts a localstore.Store to the cart's Persister
// port.
func NewStoragePersister(s *localstore.Store) Persister {
	return &storagePersister{store: s}
}

func (p *storagePersister) Save(lines []Line) error {
	return p.store.Put(StorageKey, lines)
}

func (p *storagePersister) Load() ([]Line, error) {
	var lines []Line
	err := p.store.Get(StorageKey, &lines)
	if errors.Is(err, localstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lines, nil
}
