package wpa

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/require"
)

func TestParseBss(t *testing.T) {
	bss, err := parseBss(map[string]dbus.Variant{
		"SSID":      dbus.MakeVariant([]byte("candy")),
		"BSSID":     dbus.MakeVariant([]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}),
		"Frequency": dbus.MakeVariant(uint16(2412)),
	})
	require.NoError(t, err)
	require.Equal(t, &Bss{Ssid: "candy", Bssid: "deadbeef0001", Frequency: 2412}, bss)

	_, err = parseBss(map[string]dbus.Variant{
		"SSID": dbus.MakeVariant([]byte("candy")),
	})
	require.Error(t, err)
}

func TestParsePropertiesChanged(t *testing.T) {
	path := dbus.ObjectPath("/fi/w1/wpa_supplicant1/Interfaces/0")
	changes := map[string]dbus.Variant{
		"State": dbus.MakeVariant("completed"),
	}

	changed, ok := parsePropertiesChanged(&dbus.Signal{
		Path: path,
		Name: "org.freedesktop.DBus.Properties.PropertiesChanged",
		Body: []interface{}{"fi.w1.wpa_supplicant1.Interface", changes, []string{}},
	}, path)
	require.True(t, ok)
	require.Equal(t, changes, changed)

	_, ok = parsePropertiesChanged(&dbus.Signal{
		Path: "/fi/w1/wpa_supplicant1/Interfaces/1",
		Name: "org.freedesktop.DBus.Properties.PropertiesChanged",
		Body: []interface{}{"fi.w1.wpa_supplicant1.Interface", changes, []string{}},
	}, path)
	require.False(t, ok)

	_, ok = parsePropertiesChanged(&dbus.Signal{
		Path: path,
		Name: "org.freedesktop.DBus.Properties.PropertiesChanged",
		Body: []interface{}{"fi.w1.wpa_supplicant1.BSS", changes, []string{}},
	}, path)
	require.False(t, ok)
}
