package registry

import (
	"errors"
	"fmt"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/entity"
	"sort"
	"sync"
)

var (
	ErrRegistryNotFound = errors.New("registry not found")
	ErrRegistryExists   = errors.New("registry already registered")
)

// Directory resolves registry addresses to registries.
type Directory interface {
	Register(registry Registry) error
	Get(address entity.Address) (Registry, error)
	All() []Registry
}

type directory struct {
	mu         sync.RWMutex
	registries map[entity.Address]Registry
}

func NewDirectory(registries ...Registry) (Directory, error) {
	d := &directory{registries: make(map[entity.Address]Registry)}
	for _, r := range registries {
		if err := d.Register(r); err != nil {
			return nil, err
		}
	}

	return d, nil
}

func (d *directory) Register(registry Registry) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.registries[registry.Address()]; ok {
		return fmt.Errorf("%w: %s", ErrRegistryExists, registry.Address())
	}
	d.registries[registry.Address()] = registry

	return nil
}

func (d *directory) Get(address entity.Address) (Registry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.registries[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRegistryNotFound, address)
	}

	return r, nil
}

func (d *directory) All() []Registry {
	d.mu.RLock()
	defer d.mu.RUnlock()

	all := make([]Registry, 0, len(d.registries))
	for _, r := range d.registries {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Address() < all[j].Address() })

	return all
}
