package runs

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/xxxsen/importdash/internal/importflow"
	appErr "github.com/xxxsen/importdash/internal/pkg/errors"
)

// Registry holds the live import runs. A run that is not touched for the
// idle TTL, or that is pushed out by size, is closed and its staged files
// are released.
type Registry struct {
	gw    importflow.Gateway
	opts  []importflow.Option
	cache *expirable.LRU[string, *importflow.Controller]
}

func NewRegistry(gw importflow.Gateway, size int, idleTTL time.Duration, opts ...importflow.Option) *Registry {
	if size <= 0 {
		size = 1024
	}
	if idleTTL <= 0 {
		idleTTL = 2 * time.Hour
	}
	return &Registry{
		gw:   gw,
		opts: opts,
		cache: expirable.NewLRU[string, *importflow.Controller](size, func(_ string, c *importflow.Controller) {
			c.Close()
		}, idleTTL),
	}
}

func (r *Registry) Create(owner, identity string) *importflow.Controller {
	id := uuid.NewString()
	c := importflow.New(id, owner, identity, r.gw, r.opts...)
	r.cache.Add(id, c)
	return c
}

// Get returns the run when owner owns it. Runs of other owners read as
// missing.
func (r *Registry) Get(owner, id string) (*importflow.Controller, error) {
	c, ok := r.cache.Get(id)
	if !ok || c.Owner() != owner {
		return nil, appErr.ErrNotFound
	}
	// re-adding refreshes the idle deadline
	r.cache.Add(id, c)
	return c, nil
}

func (r *Registry) Remove(owner, id string) error {
	c, ok := r.cache.Peek(id)
	if !ok || c.Owner() != owner {
		return appErr.ErrNotFound
	}
	r.cache.Remove(id)
	return nil
}

func (r *Registry) Len() int {
	return r.cache.Len()
}

// Close releases every run.
func (r *Registry) Close() {
	r.cache.Purge()
}
