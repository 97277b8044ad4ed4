package nm

import (
	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

type DeviceType uint32

const (
	DeviceTypeUnknown  DeviceType = 0
	DeviceTypeEthernet DeviceType = 1
	DeviceTypeWifi     DeviceType = 2
	DeviceTypeModem    DeviceType = 8
)

type DeviceState uint32

const (
	DeviceStateUnknown      DeviceState = 0
	DeviceStateDisconnected DeviceState = 30
	DeviceStateActivated    DeviceState = 100
)

type Connectivity uint32

const (
	ConnectivityUnknown Connectivity = iota
	ConnectivityNone
	ConnectivityPortal
	ConnectivityLimited
	ConnectivityFull
)

type Device struct {
	obj dbus.BusObject
}

func (d *Device) Path() dbus.ObjectPath {
	return d.obj.Path()
}

func (d *Device) String() string {
	return string(d.obj.Path())
}

type DeviceProperties struct {
	Interface       string
	Type            DeviceType
	State           DeviceState
	Ip4Connectivity Connectivity
	Ip6Connectivity Connectivity
}

func (d *Device) GetAll() (*DeviceProperties, error) {
	call := d.obj.Call(propertiesInterface+".GetAll", 0, deviceInterface)
	if call.Err != nil {
		return nil, errors.Errorf("could not get all properties: %v", call.Err)
	}

	props, ok := call.Body[0].(map[string]dbus.Variant)
	if !ok {
		return nil, errors.Errorf("could not convert output")
	}

	return parseDeviceProperties(props)
}

func parseDeviceProperties(props map[string]dbus.Variant) (*DeviceProperties, error) {
	device := DeviceProperties{}

	if val, ok := props["Interface"]; ok {
		if iface, ok := val.Value().(string); ok {
			device.Interface = iface
		} else {
			return nil, errors.Errorf("could not convert Interface to string: %v", val)
		}
	} else {
		return nil, errors.Errorf("mandatory property Interface was missing")
	}

	deviceType, err := uint32Property(props, "DeviceType", true)
	if err != nil {
		return nil, err
	}
	device.Type = DeviceType(deviceType)

	state, err := uint32Property(props, "State", true)
	if err != nil {
		return nil, err
	}
	device.State = DeviceState(state)

	// older NetworkManager releases do not expose per device connectivity
	ip4, err := uint32Property(props, "Ip4Connectivity", false)
	if err != nil {
		return nil, err
	}
	device.Ip4Connectivity = Connectivity(ip4)

	ip6, err := uint32Property(props, "Ip6Connectivity", false)
	if err != nil {
		return nil, err
	}
	device.Ip6Connectivity = Connectivity(ip6)

	return &device, nil
}

func uint32Property(props map[string]dbus.Variant, name string, mandatory bool) (uint32, error) {
	val, ok := props[name]
	if !ok {
		if mandatory {
			return 0, errors.Errorf("mandatory property %v was missing", name)
		}

		return 0, nil
	}

	v, ok := val.Value().(uint32)
	if !ok {
		return 0, errors.Errorf("could not convert %v to uint32: %v", name, val)
	}

	return v, nil
}
