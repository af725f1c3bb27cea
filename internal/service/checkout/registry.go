package checkout

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"sprouting-academy/internal/inflight"
)

// Registry holds open visits. Any eviction, whether explicit, by TTL, by
// capacity or by purge, tears the visit down.
type Registry struct {
	visits   *expirable.LRU[string, *Visit]
	inflight inflight.Tracker
}

func NewRegistry(limit int, ttl time.Duration) *Registry {
	r := &Registry{}
	r.visits = expirable.NewLRU[string, *Visit](limit, r.evicted, ttl)
	return r
}

func (r *Registry) evicted(_ string, v *Visit) {
	r.inflight.Start()
	go func() {
		defer r.inflight.Done()
		v.teardown(context.Background())
	}()
}

func (r *Registry) Add(v *Visit) {
	r.visits.Add(v.ID, v)
}

func (r *Registry) Get(id string) (*Visit, bool) {
	return r.visits.Get(id)
}

// Remove ends a visit. It reports whether the visit was open.
func (r *Registry) Remove(id string) bool {
	return r.visits.Remove(id)
}

func (r *Registry) Len() int {
	return r.visits.Len()
}

// Wait blocks until pending teardowns finish or ctx is done.
func (r *Registry) Wait(ctx context.Context) error {
	return r.inflight.Wait(ctx)
}

// Purge tears every open visit down and waits for the cancels to settle.
func (r *Registry) Purge(ctx context.Context) error {
	r.visits.Purge()
	return r.Wait(ctx)
}
