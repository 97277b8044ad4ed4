package connectivity

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-errors/errors"
)

const defaultBufferSize = 16

// check Observer compliance to its interface during compile time
var _ Reporter = (*Observer)(nil)

type Config struct {
	Platform Platform
	// Filter overrides DefaultFilter when it names at least one capability or transport.
	Filter Filter
	// BufferSize bounds the pending updates per subscriber. Defaults to 16.
	BufferSize int
	Logger     Logger
}

// RegistrationError is returned when the platform refuses the network listener.
type RegistrationError struct {
	Err error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("could not register network listener: %v", e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// Observer mirrors the platform's network notifications as a single NetworkStatus.
type Observer struct {
	log          Logger
	platform     Platform
	registration Registration
	bufferSize   int

	// status is the slot read by CurrentStatus, written by every accepted event.
	status atomic.Int32

	mtx        sync.Mutex
	published  NetworkStatus
	closed     bool
	clients    map[uint32]*StatusClient
	nextClient uint32

	closeOnce sync.Once
	done      chan struct{}
}

// NewObserver registers a single listener with the platform and keeps the status up to date
// until ctx ends or Close is called.
func NewObserver(ctx context.Context, config *Config) (*Observer, error) {
	if config.Platform == nil {
		return nil, errors.New("no platform configured")
	}

	o := &Observer{
		platform:   config.Platform,
		bufferSize: config.BufferSize,
		published:  Disconnected,
		clients:    make(map[uint32]*StatusClient),
		done:       make(chan struct{}),
	}

	if config.Logger != nil {
		o.log = config.Logger
	} else {
		o.log = noopLogger{}
	}

	if o.bufferSize <= 0 {
		o.bufferSize = defaultBufferSize
	}

	filter := config.Filter
	if len(filter.Capabilities) == 0 && len(filter.Transports) == 0 {
		filter = DefaultFilter()
	}

	registration, err := o.platform.Register(filter, &listener{observer: o})
	if err != nil {
		return nil, &RegistrationError{Err: err}
	}

	o.registration = registration

	o.log.Debugf("Registered network listener %d", registration)

	go func() {
		select {
		case <-ctx.Done():
			_ = o.Close()
		case <-o.done:
		}
	}()

	return o, nil
}

// CurrentStatus never blocks.
func (o *Observer) CurrentStatus() NetworkStatus {
	return NetworkStatus(o.status.Load())
}

// StatusChanges subscribes to the status. The client first receives the current status and
// then every change. Once the observer is closed the returned client's channel is closed.
func (o *Observer) StatusChanges() *StatusClient {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	client := newStatusClient(o, o.nextClient)
	o.nextClient++

	if o.closed {
		client.stop()
		close(client.updates)
		return client
	}

	o.clients[client.Id] = client
	client.enqueue(o.published)

	go client.run(o.done)

	return client
}

// WaitForStatusChange blocks until the status differs from status. It returns false when ctx
// ends or the observer is closed first.
func (o *Observer) WaitForStatusChange(ctx context.Context, status NetworkStatus) bool {
	client := o.StatusChanges()
	defer client.Cancel()

	for {
		select {
		case s, ok := <-client.Updates:
			if !ok {
				return false
			}

			if s != status {
				return true
			}
		case <-ctx.Done():
			return false
		}
	}
}

// Done is closed after teardown.
func (o *Observer) Done() <-chan struct{} {
	return o.done
}

// Close unregisters the platform listener and closes all subscriptions. Only the first call
// has an effect.
func (o *Observer) Close() error {
	o.closeOnce.Do(func() {
		o.mtx.Lock()
		o.closed = true
		clients := o.clients
		o.clients = make(map[uint32]*StatusClient)
		o.mtx.Unlock()

		// the platform may be delivering an event right now, so its lock must not be
		// taken while holding ours
		err := o.platform.Unregister(o.registration)
		if err != nil {
			o.log.Errorf("Could not unregister network listener %d: %v", o.registration, err)
		} else {
			o.log.Debugf("Unregistered network listener %d", o.registration)
		}

		for _, client := range clients {
			client.stop()
		}

		close(o.done)
	})

	return nil
}

func (o *Observer) handle(status NetworkStatus) {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	if o.closed {
		o.log.Debugf("Ignoring %v after teardown", status)
		return
	}

	o.status.Store(int32(status))

	if status == o.published {
		return
	}

	o.published = status

	o.log.Infof("Network status changed to %v", status)

	for _, client := range o.clients {
		client.enqueue(status)
	}
}

func (o *Observer) deleteClient(id uint32) {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	delete(o.clients, id)
}

// listener keeps the platform callbacks off the Observer's exported API.
type listener struct {
	observer *Observer
}

func (l *listener) OnAvailable(id NetworkID) {
	l.observer.log.Debugf("Network %v available", id)
	l.observer.handle(Connected)
}

func (l *listener) OnLost(id NetworkID) {
	l.observer.log.Debugf("Network %v lost", id)
	l.observer.handle(Disconnected)
}
