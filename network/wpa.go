package network

import (
	"sync"

	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
	"github.com/the-lightning-land/connectivityd/connectivity"
	"github.com/the-lightning-land/connectivityd/network/wpa"
)

// check WpaPlatform compliance to its interface during compile time
var _ Platform = (*WpaPlatform)(nil)

type WpaConfig struct {
	Interface string
	Logger    Logger
}

// WpaPlatform reports a single Wi-Fi interface managed by wpa_supplicant. The network counts
// as internet capable while the interface is associated, as wpa_supplicant has no way to
// verify reachability.
type WpaPlatform struct {
	log      Logger
	wpa      *wpa.Wpa
	ifname   string
	iface    *wpa.Interface
	changes  *wpa.PropertiesChangedClient
	registry *registry
	wg       sync.WaitGroup

	// associated is only touched by Start and then by run
	associated bool
}

func NewWpaPlatform(config *WpaConfig) *WpaPlatform {
	p := &WpaPlatform{
		ifname:   config.Interface,
		wpa:      wpa.New(),
		registry: newRegistry(),
	}

	if config.Logger != nil {
		p.log = config.Logger
	} else {
		p.log = noopLogger{}
	}

	return p
}

func (p *WpaPlatform) Start() error {
	err := p.wpa.Start()
	if err != nil {
		return errors.Errorf("could not start wpa: %v", err)
	}

	iface, err := p.wpa.GetInterface(p.ifname)
	if err != nil {
		_ = p.wpa.Stop()
		return errors.Errorf("could not find interface %v: %v", p.ifname, err)
	}

	p.iface = iface

	p.changes, err = iface.PropertiesChanged()
	if err != nil {
		_ = p.wpa.Stop()
		return errors.Errorf("could not listen to interface changes: %v", err)
	}

	state, err := iface.State()
	if err != nil {
		_ = p.Stop()
		return errors.Errorf("could not read interface state: %v", err)
	}

	if p.apply(state) {
		p.logCurrentBSS()
	}

	p.wg.Add(1)
	go p.run()

	return nil
}

func (p *WpaPlatform) Stop() error {
	if p.changes != nil {
		p.changes.Cancel()
	}

	p.wg.Wait()

	err := p.wpa.Stop()
	if err != nil {
		return errors.Errorf("could not stop wpa: %v", err)
	}

	return nil
}

func (p *WpaPlatform) Register(filter connectivity.Filter, callback connectivity.Callback) (connectivity.Registration, error) {
	return p.registry.register(filter, callback)
}

func (p *WpaPlatform) Unregister(id connectivity.Registration) error {
	if !p.registry.unregister(id) {
		p.log.Debugf("Listener %d was not registered", id)
	}

	if p.registry.empty() {
		p.log.Debugf("No listeners left")
	}

	return nil
}

func (p *WpaPlatform) Networks() []connectivity.Network {
	return p.registry.list()
}

func (p *WpaPlatform) run() {
	defer p.wg.Done()

	for changed := range p.changes.PropertiesChanged {
		state, ok := stateChange(changed)
		if !ok {
			continue
		}

		if p.apply(state) {
			p.logCurrentBSS()
		}
	}
}

// apply maps an interface state onto the presence of the network and reports whether the
// interface has just become associated. Key handshakes keep the current presence, as
// wpa_supplicant runs them on every rekey while staying associated.
func (p *WpaPlatform) apply(state string) bool {
	p.log.Debugf("Interface %v is in state %v", p.ifname, state)

	id := connectivity.NetworkID(p.ifname)

	switch state {
	case wpa.StateCompleted:
		joined := !p.associated
		p.associated = true

		p.registry.update(connectivity.Network{
			ID:           id,
			Transport:    connectivity.TransportWifi,
			Capabilities: []connectivity.Capability{connectivity.CapabilityInternet},
		})

		return joined
	case wpa.StateAssociated, wpa.State4WayHandshake, wpa.StateGroupHandshake:
		return false
	default:
		p.associated = false
		p.registry.remove(id)

		return false
	}
}

func (p *WpaPlatform) logCurrentBSS() {
	bss, err := p.iface.CurrentBSS()
	if err != nil || bss == nil {
		return
	}

	props, err := bss.GetAll()
	if err != nil {
		p.log.Debugf("Could not read current bss %v: %v", bss, err)
		return
	}

	p.log.Infof("Associated with %v (%v, %v MHz)", props.Ssid, props.Bssid, props.Frequency)
}

func stateChange(changed map[string]dbus.Variant) (string, bool) {
	val, ok := changed["State"]
	if !ok {
		return "", false
	}

	state, ok := val.Value().(string)
	return state, ok
}
