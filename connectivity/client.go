package connectivity

import (
	"sync"
)

// StatusClient is a single subscription to an Observer. Updates is closed when the client is
// cancelled or the observer is torn down.
type StatusClient struct {
	Updates <-chan NetworkStatus
	Id      uint32

	updates    chan NetworkStatus
	cancelChan chan struct{}
	cancelOnce sync.Once
	observer   *Observer

	mtx     sync.Mutex
	pending []NetworkStatus
	wake    chan struct{}
}

func newStatusClient(o *Observer, id uint32) *StatusClient {
	updates := make(chan NetworkStatus)

	return &StatusClient{
		Updates:    updates,
		Id:         id,
		updates:    updates,
		cancelChan: make(chan struct{}),
		observer:   o,
		pending:    make([]NetworkStatus, 0, o.bufferSize),
		wake:       make(chan struct{}, 1),
	}
}

// Cancel ends this subscription without affecting any other.
func (c *StatusClient) Cancel() {
	c.observer.deleteClient(c.Id)
	c.stop()
}

func (c *StatusClient) stop() {
	c.cancelOnce.Do(func() {
		close(c.cancelChan)
	})
}

// enqueue never blocks. A full queue loses its oldest entry.
func (c *StatusClient) enqueue(status NetworkStatus) {
	c.mtx.Lock()
	if len(c.pending) >= c.observer.bufferSize {
		c.observer.log.Debugf("Client %d is falling behind, dropping %v", c.Id, c.pending[0])
		c.pending = c.pending[1:]
	}
	c.pending = append(c.pending, status)
	c.mtx.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *StatusClient) take() []NetworkStatus {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	pending := c.pending
	c.pending = make([]NetworkStatus, 0, c.observer.bufferSize)

	return pending
}

// run delivers pending updates in order until the client is stopped or done is closed.
func (c *StatusClient) run(done <-chan struct{}) {
	defer close(c.updates)

	var (
		last      NetworkStatus
		delivered bool
	)

	for {
		select {
		case <-c.wake:
		case <-c.cancelChan:
			return
		case <-done:
			return
		}

		for _, status := range c.take() {
			// dropped entries can leave two equal values next to each other
			if delivered && status == last {
				continue
			}

			select {
			case <-c.cancelChan:
				return
			case <-done:
				return
			default:
			}

			select {
			case c.updates <- status:
				last = status
				delivered = true
			case <-c.cancelChan:
				return
			case <-done:
				return
			}
		}
	}
}
