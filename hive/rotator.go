package hive

import (
	"sync"

	"github.com/bayanihive/delegation-roulette/constants"
)

// EndpointRotator owns the list of condenser API endpoints and the index
// of the one currently in use. Failover advances the index round-robin.
type EndpointRotator struct {
	mtx       sync.Mutex
	endpoints []string
	current   int
}

func NewEndpointRotator(endpoints []string) (*EndpointRotator, error) {
	if len(endpoints) == 0 {
		return nil, constants.ErrNoEndpointsConfigured
	}
	return &EndpointRotator{endpoints: endpoints}, nil
}

func (r *EndpointRotator) Current() string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return r.endpoints[r.current]
}

// Next advances to the following endpoint and returns it.
func (r *EndpointRotator) Next() string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.current = (r.current + 1) % len(r.endpoints)
	return r.endpoints[r.current]
}

func (r *EndpointRotator) Len() int {
	return len(r.endpoints)
}
