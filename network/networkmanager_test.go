package network

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/connectivityd/connectivity"
	"github.com/the-lightning-land/connectivityd/network/nm"
)

func TestDeviceNetwork(t *testing.T) {
	tests := []struct {
		name      string
		props     nm.DeviceProperties
		transport connectivity.Transport
		internet  bool
		present   bool
	}{
		{
			name: "activated wifi with full connectivity",
			props: nm.DeviceProperties{
				Interface:       "wlan0",
				Type:            nm.DeviceTypeWifi,
				State:           nm.DeviceStateActivated,
				Ip4Connectivity: nm.ConnectivityFull,
			},
			transport: connectivity.TransportWifi,
			internet:  true,
			present:   true,
		},
		{
			name: "activated modem without connectivity checks",
			props: nm.DeviceProperties{
				Interface: "wwan0",
				Type:      nm.DeviceTypeModem,
				State:     nm.DeviceStateActivated,
			},
			transport: connectivity.TransportCellular,
			internet:  true,
			present:   true,
		},
		{
			name: "activated wifi behind a captive portal",
			props: nm.DeviceProperties{
				Interface:       "wlan0",
				Type:            nm.DeviceTypeWifi,
				State:           nm.DeviceStateActivated,
				Ip4Connectivity: nm.ConnectivityPortal,
				Ip6Connectivity: nm.ConnectivityNone,
			},
			transport: connectivity.TransportWifi,
			internet:  true,
			present:   true,
		},
		{
			name: "activated wifi without internet",
			props: nm.DeviceProperties{
				Interface:       "wlan0",
				Type:            nm.DeviceTypeWifi,
				State:           nm.DeviceStateActivated,
				Ip4Connectivity: nm.ConnectivityNone,
			},
			transport: connectivity.TransportWifi,
			present:   true,
		},
		{
			name: "disconnected ethernet",
			props: nm.DeviceProperties{
				Interface: "eth0",
				Type:      nm.DeviceTypeEthernet,
				State:     nm.DeviceStateDisconnected,
			},
			transport: connectivity.TransportEthernet,
			internet:  true,
		},
		{
			name: "bridge",
			props: nm.DeviceProperties{
				Interface: "br0",
				Type:      nm.DeviceType(13),
				State:     nm.DeviceStateActivated,
			},
			transport: connectivity.TransportOther,
			internet:  true,
			present:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			network, present := deviceNetwork(&tt.props)

			require.Equal(t, connectivity.NetworkID(tt.props.Interface), network.ID)
			require.Equal(t, tt.transport, network.Transport)
			require.Equal(t, tt.internet, network.HasCapability(connectivity.CapabilityInternet))
			require.Equal(t, tt.present, present)
		})
	}
}
