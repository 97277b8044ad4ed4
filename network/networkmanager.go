package network

import (
	"sync"

	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
	"github.com/the-lightning-land/connectivityd/connectivity"
	"github.com/the-lightning-land/connectivityd/network/nm"
)

// check NetworkManagerPlatform compliance to its interface during compile time
var _ Platform = (*NetworkManagerPlatform)(nil)

type NetworkManagerConfig struct {
	Logger Logger
}

// NetworkManagerPlatform reports the devices managed by NetworkManager.
type NetworkManagerPlatform struct {
	log      Logger
	nm       *nm.NetworkManager
	registry *registry
	signals  *nm.SignalsClient
	wg       sync.WaitGroup

	devicesMtx sync.Mutex
	devices    map[dbus.ObjectPath]connectivity.NetworkID
}

func NewNetworkManagerPlatform(config *NetworkManagerConfig) *NetworkManagerPlatform {
	p := &NetworkManagerPlatform{
		nm:       nm.New(),
		registry: newRegistry(),
		devices:  make(map[dbus.ObjectPath]connectivity.NetworkID),
	}

	if config.Logger != nil {
		p.log = config.Logger
	} else {
		p.log = noopLogger{}
	}

	return p
}

func (p *NetworkManagerPlatform) Start() error {
	err := p.nm.Start()
	if err != nil {
		return errors.Errorf("could not start network manager: %v", err)
	}

	// subscribe first so no change between listing and subscribing goes unnoticed
	p.signals, err = p.nm.Signals()
	if err != nil {
		_ = p.nm.Stop()
		return errors.Errorf("could not subscribe to device signals: %v", err)
	}

	devices, err := p.nm.Devices()
	if err != nil {
		_ = p.Stop()
		return errors.Errorf("could not list devices: %v", err)
	}

	for _, device := range devices {
		p.refresh(device.Path())
	}

	p.wg.Add(1)
	go p.run()

	return nil
}

func (p *NetworkManagerPlatform) Stop() error {
	if p.signals != nil {
		p.signals.Cancel()
	}

	p.wg.Wait()

	err := p.nm.Stop()
	if err != nil {
		return errors.Errorf("could not stop network manager: %v", err)
	}

	return nil
}

func (p *NetworkManagerPlatform) Register(filter connectivity.Filter, callback connectivity.Callback) (connectivity.Registration, error) {
	return p.registry.register(filter, callback)
}

func (p *NetworkManagerPlatform) Unregister(id connectivity.Registration) error {
	if !p.registry.unregister(id) {
		p.log.Debugf("Listener %d was not registered", id)
	}

	if p.registry.empty() {
		p.log.Debugf("No listeners left")
	}

	return nil
}

func (p *NetworkManagerPlatform) Networks() []connectivity.Network {
	return p.registry.list()
}

func (p *NetworkManagerPlatform) run() {
	defer p.wg.Done()

	for signal := range p.signals.Signals {
		p.log.Debugf("Device %v %v", signal.Device, signal.Kind)

		switch signal.Kind {
		case nm.DeviceRemoved:
			p.forget(signal.Device)
		default:
			p.refresh(signal.Device)
		}
	}
}

func (p *NetworkManagerPlatform) refresh(path dbus.ObjectPath) {
	props, err := p.nm.Device(path).GetAll()
	if err != nil {
		p.log.Warnf("Could not read device %v: %v", path, err)
		p.forget(path)
		return
	}

	network, present := deviceNetwork(props)

	p.devicesMtx.Lock()
	p.devices[path] = network.ID
	p.devicesMtx.Unlock()

	if present {
		p.registry.update(network)
	} else {
		p.registry.remove(network.ID)
	}
}

func (p *NetworkManagerPlatform) forget(path dbus.ObjectPath) {
	p.devicesMtx.Lock()
	id, ok := p.devices[path]
	delete(p.devices, path)
	p.devicesMtx.Unlock()

	if ok {
		p.registry.remove(id)
	}
}

// deviceNetwork reports the network a device provides and whether it is up.
func deviceNetwork(props *nm.DeviceProperties) (connectivity.Network, bool) {
	network := connectivity.Network{
		ID: connectivity.NetworkID(props.Interface),
	}

	switch props.Type {
	case nm.DeviceTypeWifi:
		network.Transport = connectivity.TransportWifi
	case nm.DeviceTypeModem:
		network.Transport = connectivity.TransportCellular
	case nm.DeviceTypeEthernet:
		network.Transport = connectivity.TransportEthernet
	default:
		network.Transport = connectivity.TransportOther
	}

	if hasInternet(props.Ip4Connectivity, props.Ip6Connectivity) {
		network.Capabilities = []connectivity.Capability{connectivity.CapabilityInternet}
	}

	return network, props.State == nm.DeviceStateActivated
}

// hasInternet treats a device with unknown connectivity on both families as internet capable,
// since NetworkManager reports unknown whenever connectivity checking is turned off.
func hasInternet(ip4, ip6 nm.Connectivity) bool {
	if ip4 >= nm.ConnectivityPortal || ip6 >= nm.ConnectivityPortal {
		return true
	}

	return ip4 == nm.ConnectivityUnknown && ip6 == nm.ConnectivityUnknown
}
