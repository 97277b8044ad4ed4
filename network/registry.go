package network

import (
	"sync"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/connectivityd/connectivity"
)

type registration struct {
	filter    connectivity.Filter
	callback  connectivity.Callback
	available map[connectivity.NetworkID]bool
}

// registry is the bookkeeping shared by all platforms. It remembers which networks each
// listener has been told about, so a lost event always follows an available one.
type registry struct {
	mtx           sync.Mutex
	registrations map[connectivity.Registration]*registration
	networks      map[connectivity.NetworkID]connectivity.Network
	nextID        connectivity.Registration

	// queue holds notifications in the order they were computed. Only the goroutine that
	// set delivering drains it.
	queue      []notification
	delivering bool
}

func newRegistry() *registry {
	return &registry{
		registrations: make(map[connectivity.Registration]*registration),
		networks:      make(map[connectivity.NetworkID]connectivity.Network),
		nextID:        1,
	}
}

type notification struct {
	registration connectivity.Registration
	callback     connectivity.Callback
	id           connectivity.NetworkID
	available    bool
}

func (n notification) deliver() {
	if n.available {
		n.callback.OnAvailable(n.id)
	} else {
		n.callback.OnLost(n.id)
	}
}

// flushLocked queues notifications and delivers the queue in order, outside the lock. If another
// goroutine is already delivering, it picks them up instead. Must be called with r.mtx held and
// returns with it released.
func (r *registry) flushLocked(notifications []notification) {
	r.queue = append(r.queue, notifications...)

	if r.delivering {
		r.mtx.Unlock()
		return
	}

	r.delivering = true

	for len(r.queue) > 0 {
		n := r.queue[0]
		r.queue = r.queue[1:]

		if _, ok := r.registrations[n.registration]; !ok {
			continue
		}

		r.mtx.Unlock()
		n.deliver()
		r.mtx.Lock()
	}

	r.delivering = false
	r.mtx.Unlock()
}

// register adds a listener and announces networks that already match its filter.
func (r *registry) register(filter connectivity.Filter, callback connectivity.Callback) (connectivity.Registration, error) {
	if callback == nil {
		return 0, errors.New("callback must not be nil")
	}

	r.mtx.Lock()

	id := r.nextID
	r.nextID++

	reg := &registration{
		filter:    filter,
		callback:  callback,
		available: make(map[connectivity.NetworkID]bool),
	}
	r.registrations[id] = reg

	var notifications []notification
	for _, n := range r.networks {
		if filter.Matches(n) {
			reg.available[n.ID] = true
			notifications = append(notifications, notification{id, callback, n.ID, true})
		}
	}

	r.flushLocked(notifications)

	return id, nil
}

// unregister reports whether the registration was still active.
func (r *registry) unregister(id connectivity.Registration) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	_, ok := r.registrations[id]
	delete(r.registrations, id)

	return ok
}

func (r *registry) empty() bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return len(r.registrations) == 0
}

// update records the current shape of a network and notifies listeners whose view changed.
func (r *registry) update(n connectivity.Network) {
	r.mtx.Lock()
	r.networks[n.ID] = n
	notifications := r.diff(n.ID, func(reg *registration) bool {
		return reg.filter.Matches(n)
	})
	r.flushLocked(notifications)
}

// remove forgets a network and reports it lost where it was available.
func (r *registry) remove(id connectivity.NetworkID) {
	r.mtx.Lock()
	delete(r.networks, id)
	notifications := r.diff(id, func(*registration) bool {
		return false
	})
	r.flushLocked(notifications)
}

func (r *registry) list() []connectivity.Network {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	networks := make([]connectivity.Network, 0, len(r.networks))
	for _, n := range r.networks {
		networks = append(networks, n)
	}

	return networks
}

func (r *registry) diff(id connectivity.NetworkID, matches func(*registration) bool) []notification {
	var notifications []notification

	for regID, reg := range r.registrations {
		now := matches(reg)
		if now == reg.available[id] {
			continue
		}

		if now {
			reg.available[id] = true
		} else {
			delete(reg.available, id)
		}

		notifications = append(notifications, notification{regID, reg.callback, id, now})
	}

	return notifications
}
