package nm

import (
	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

const (
	busName             = "org.freedesktop.NetworkManager"
	objectPath          = dbus.ObjectPath("/org/freedesktop/NetworkManager")
	devicesPath         = dbus.ObjectPath("/org/freedesktop/NetworkManager/Devices")
	nmInterface         = "org.freedesktop.NetworkManager"
	deviceInterface     = "org.freedesktop.NetworkManager.Device"
	propertiesInterface = "org.freedesktop.DBus.Properties"
)

// NetworkManager talks to NetworkManager over a private system bus connection.
type NetworkManager struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

func New() *NetworkManager {
	return &NetworkManager{}
}

func (n *NetworkManager) Start() error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return errors.Errorf("could not connect to system bus: %v", err)
	}

	n.conn = conn
	n.obj = conn.Object(busName, objectPath)

	return nil
}

func (n *NetworkManager) Stop() error {
	if n.conn == nil {
		return nil
	}

	err := n.conn.Close()
	if err != nil {
		return errors.Errorf("could not close system bus connection: %v", err)
	}

	return nil
}

func (n *NetworkManager) Devices() ([]*Device, error) {
	call := n.obj.Call(nmInterface+".GetDevices", 0)
	if call.Err != nil {
		return nil, errors.Errorf("could not get devices: %v", call.Err)
	}

	var paths []dbus.ObjectPath
	err := call.Store(&paths)
	if err != nil {
		return nil, errors.Errorf("could not store devices: %v", err)
	}

	var devices []*Device

	for _, path := range paths {
		devices = append(devices, n.Device(path))
	}

	return devices, nil
}

func (n *NetworkManager) Device(path dbus.ObjectPath) *Device {
	return &Device{
		obj: n.conn.Object(busName, path),
	}
}
