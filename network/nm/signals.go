package nm

import (
	"strings"
	"sync"

	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

type SignalKind int

const (
	DeviceAdded SignalKind = iota
	DeviceRemoved
	DeviceChanged
)

func (k SignalKind) String() string {
	switch k {
	case DeviceAdded:
		return "added"
	case DeviceRemoved:
		return "removed"
	case DeviceChanged:
		return "changed"
	default:
		return "unknown"
	}
}

type Signal struct {
	Kind   SignalKind
	Device dbus.ObjectPath
}

type SignalsClient struct {
	Signals <-chan *Signal
	Cancel  func()
}

type match struct {
	iface   string
	member  string
	options []dbus.MatchOption
}

var matches = []match{
	{nmInterface, "DeviceAdded", []dbus.MatchOption{dbus.WithMatchObjectPath(objectPath)}},
	{nmInterface, "DeviceRemoved", []dbus.MatchOption{dbus.WithMatchObjectPath(objectPath)}},
	{deviceInterface, "StateChanged", []dbus.MatchOption{dbus.WithMatchPathNamespace(devicesPath)}},
	{propertiesInterface, "PropertiesChanged", []dbus.MatchOption{dbus.WithMatchPathNamespace(devicesPath)}},
}

// Signals subscribes to device lifecycle and state signals.
func (n *NetworkManager) Signals() (*SignalsClient, error) {
	signalChan := make(chan *dbus.Signal, 16)
	deviceChan := make(chan *Signal)
	done := make(chan struct{})

	var (
		wg   sync.WaitGroup
		once sync.Once
	)

	removeMatches := func() {
		for _, m := range matches {
			_ = n.conn.BusObject().RemoveMatchSignal(m.iface, m.member, m.options...)
		}
	}

	client := &SignalsClient{
		Signals: deviceChan,
		Cancel: func() {
			once.Do(func() {
				n.conn.RemoveSignal(signalChan)
				removeMatches()
				close(done)
				wg.Wait()
			})
		},
	}

	n.conn.Signal(signalChan)

	for _, m := range matches {
		call := n.conn.BusObject().AddMatchSignal(m.iface, m.member, m.options...)
		if call.Err != nil {
			n.conn.RemoveSignal(signalChan)
			removeMatches()
			return nil, errors.Errorf("could not add signal %v.%v: %v", m.iface, m.member, call.Err)
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(deviceChan)

		for {
			select {
			case signal, ok := <-signalChan:
				if !ok {
					return
				}

				s, ok := parseSignal(signal)
				if !ok {
					continue
				}

				select {
				case deviceChan <- s:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	return client, nil
}

func parseSignal(signal *dbus.Signal) (*Signal, bool) {
	switch signal.Name {
	case nmInterface + ".DeviceAdded", nmInterface + ".DeviceRemoved":
		if signal.Path != objectPath || len(signal.Body) < 1 {
			return nil, false
		}

		path, ok := signal.Body[0].(dbus.ObjectPath)
		if !ok {
			return nil, false
		}

		kind := DeviceAdded
		if signal.Name == nmInterface+".DeviceRemoved" {
			kind = DeviceRemoved
		}

		return &Signal{Kind: kind, Device: path}, true
	case deviceInterface + ".StateChanged":
		if !isDevicePath(signal.Path) {
			return nil, false
		}

		return &Signal{Kind: DeviceChanged, Device: signal.Path}, true
	case propertiesInterface + ".PropertiesChanged":
		if !isDevicePath(signal.Path) || len(signal.Body) < 1 {
			return nil, false
		}

		// connectivity and state live on the generic device interface
		if iface, ok := signal.Body[0].(string); !ok || iface != deviceInterface {
			return nil, false
		}

		return &Signal{Kind: DeviceChanged, Device: signal.Path}, true
	default:
		return nil, false
	}
}

func isDevicePath(path dbus.ObjectPath) bool {
	return strings.HasPrefix(string(path), string(devicesPath)+"/")
}
