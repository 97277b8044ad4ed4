package wpa

import (
	"sync"

	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

// Interface states reported by wpa_supplicant.
const (
	StateDisconnected      = "disconnected"
	StateInactive          = "inactive"
	StateScanning          = "scanning"
	StateAuthenticating    = "authenticating"
	StateAssociating       = "associating"
	StateAssociated        = "associated"
	State4WayHandshake     = "4way_handshake"
	StateGroupHandshake    = "group_handshake"
	StateCompleted         = "completed"
	StateInterfaceDisabled = "interface_disabled"
)

type Interface struct {
	wpa  *Wpa
	name string
	obj  dbus.BusObject
}

func (i *Interface) Name() string {
	return i.name
}

func (i *Interface) State() (string, error) {
	v, err := i.obj.GetProperty(interfaceInterface + ".State")
	if err != nil {
		return "", errors.Errorf("could not get state: %v", err)
	}

	state, ok := v.Value().(string)
	if !ok {
		return "", errors.Errorf("could not convert state to string: %v", v)
	}

	return state, nil
}

// CurrentBSS returns nil while the interface is not associated.
func (i *Interface) CurrentBSS() (*BSS, error) {
	v, err := i.obj.GetProperty(interfaceInterface + ".CurrentBSS")
	if err != nil {
		return nil, errors.Errorf("could not get current bss: %v", err)
	}

	path, ok := v.Value().(dbus.ObjectPath)
	if !ok {
		return nil, errors.Errorf("could not convert current bss: %v", v)
	}

	if path == "/" {
		return nil, nil
	}

	return &BSS{
		obj: i.wpa.conn.Object(busName, path),
	}, nil
}

type PropertiesChangedClient struct {
	PropertiesChanged <-chan map[string]dbus.Variant
	Cancel            func()
}

// PropertiesChanged subscribes to property changes of the interface.
func (i *Interface) PropertiesChanged() (*PropertiesChangedClient, error) {
	changeChan := make(chan map[string]dbus.Variant)
	signalChan := make(chan *dbus.Signal, 16)
	done := make(chan struct{})

	var (
		wg   sync.WaitGroup
		once sync.Once
	)

	client := &PropertiesChangedClient{
		PropertiesChanged: changeChan,
		Cancel: func() {
			once.Do(func() {
				i.wpa.conn.RemoveSignal(signalChan)

				_ = i.wpa.conn.BusObject().RemoveMatchSignal(propertiesInterface, "PropertiesChanged", dbus.WithMatchObjectPath(i.obj.Path()))

				close(done)
				wg.Wait()
			})
		},
	}

	i.wpa.conn.Signal(signalChan)

	call := i.wpa.conn.BusObject().AddMatchSignal(propertiesInterface, "PropertiesChanged", dbus.WithMatchObjectPath(i.obj.Path()))
	if call.Err != nil {
		i.wpa.conn.RemoveSignal(signalChan)
		return nil, errors.Errorf("could not add signal: %v", call.Err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(changeChan)

		for {
			select {
			case signal, ok := <-signalChan:
				if !ok {
					return
				}

				changed, ok := parsePropertiesChanged(signal, i.obj.Path())
				if !ok {
					continue
				}

				select {
				case changeChan <- changed:
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

func parsePropertiesChanged(signal *dbus.Signal, path dbus.ObjectPath) (map[string]dbus.Variant, bool) {
	if signal.Name != propertiesInterface+".PropertiesChanged" || signal.Path != path {
		return nil, false
	}

	if len(signal.Body) < 2 {
		return nil, false
	}

	if iface, ok := signal.Body[0].(string); !ok || iface != interfaceInterface {
		return nil, false
	}

	changed, ok := signal.Body[1].(map[string]dbus.Variant)
	if !ok {
		return nil, false
	}

	return changed, true
}
