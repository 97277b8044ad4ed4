package wpa

import (
	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

const (
	busName             = "fi.w1.wpa_supplicant1"
	objectPath          = dbus.ObjectPath("/fi/w1/wpa_supplicant1")
	interfaceInterface  = "fi.w1.wpa_supplicant1.Interface"
	bssInterface        = "fi.w1.wpa_supplicant1.BSS"
	propertiesInterface = "org.freedesktop.DBus.Properties"
)

// Wpa talks to wpa_supplicant over a private system bus connection.
type Wpa struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

func New() *Wpa {
	return &Wpa{}
}

func (w *Wpa) Start() error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return errors.Errorf("could not connect to system bus: %v", err)
	}

	w.conn = conn
	w.obj = conn.Object(busName, objectPath)

	return nil
}

func (w *Wpa) Stop() error {
	if w.conn == nil {
		return nil
	}

	err := w.conn.Close()
	if err != nil {
		return errors.Errorf("could not close system bus connection: %v", err)
	}

	return nil
}

func (w *Wpa) GetInterface(ifname string) (*Interface, error) {
	call := w.obj.Call(busName+".GetInterface", 0, ifname)
	if call.Err != nil {
		return nil, errors.Errorf("could not get interface: %v", call.Err)
	}

	var path dbus.ObjectPath
	err := call.Store(&path)
	if err != nil {
		return nil, errors.Errorf("could not store value: %v", err)
	}

	return &Interface{
		wpa:  w,
		name: ifname,
		obj:  w.conn.Object(busName, path),
	}, nil
}
