package network

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/connectivityd/connectivity"
)

func TestStateChange(t *testing.T) {
	state, ok := stateChange(map[string]dbus.Variant{
		"State":      dbus.MakeVariant("completed"),
		"CurrentBSS": dbus.MakeVariant(dbus.ObjectPath("/fi/w1/wpa_supplicant1/Interfaces/0/BSSs/1")),
	})
	require.True(t, ok)
	require.Equal(t, "completed", state)

	_, ok = stateChange(map[string]dbus.Variant{
		"Scanning": dbus.MakeVariant(true),
	})
	require.False(t, ok)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		states []string
		events []string
	}{
		{
			name:   "group key rekey",
			states: []string{"completed", "group_handshake", "completed"},
			events: []string{"available wlan0"},
		},
		{
			name:   "pairwise key rekey",
			states: []string{"completed", "4way_handshake", "completed"},
			events: []string{"available wlan0"},
		},
		{
			name:   "disassociation",
			states: []string{"completed", "disconnected", "scanning", "associating", "associated", "4way_handshake", "completed"},
			events: []string{"available wlan0", "lost wlan0", "available wlan0"},
		},
		{
			name:   "roaming",
			states: []string{"completed", "authenticating", "associating", "associated", "4way_handshake", "completed"},
			events: []string{"available wlan0", "lost wlan0", "available wlan0"},
		},
		{
			name:   "failed handshake",
			states: []string{"scanning", "associating", "associated", "4way_handshake", "disconnected"},
			events: nil,
		},
		{
			name:   "interface disabled",
			states: []string{"completed", "interface_disabled", "inactive"},
			events: []string{"available wlan0", "lost wlan0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewWpaPlatform(&WpaConfig{Interface: "wlan0"})

			cb := &recordingCallback{}
			_, err := p.Register(connectivity.DefaultFilter(), cb)
			require.NoError(t, err)

			for _, state := range tt.states {
				p.apply(state)
			}

			require.Equal(t, tt.events, cb.recorded())
		})
	}
}

func TestApplyReportsAssociation(t *testing.T) {
	p := NewWpaPlatform(&WpaConfig{Interface: "wlan0"})

	require.True(t, p.apply("completed"))
	require.False(t, p.apply("group_handshake"))
	require.False(t, p.apply("completed"))
	require.False(t, p.apply("disconnected"))
	require.True(t, p.apply("completed"))
}
