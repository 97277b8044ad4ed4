package connectivity

// NetworkID identifies a network as reported by the platform.
type NetworkID string

type Transport int

const (
	TransportOther Transport = iota
	TransportWifi
	TransportCellular
	TransportEthernet
)

func (t Transport) String() string {
	switch t {
	case TransportWifi:
		return "wifi"
	case TransportCellular:
		return "cellular"
	case TransportEthernet:
		return "ethernet"
	default:
		return "other"
	}
}

// ParseTransport is the inverse of Transport.String. Unknown names map to TransportOther.
func ParseTransport(name string) Transport {
	switch name {
	case "wifi":
		return TransportWifi
	case "cellular":
		return TransportCellular
	case "ethernet":
		return TransportEthernet
	default:
		return TransportOther
	}
}

type Capability int

const (
	// CapabilityInternet marks networks that are meant to reach the internet.
	CapabilityInternet Capability = iota
)

// Network describes a single network known to the platform.
type Network struct {
	ID           NetworkID
	Transport    Transport
	Capabilities []Capability
}

func (n Network) HasCapability(c Capability) bool {
	for _, have := range n.Capabilities {
		if have == c {
			return true
		}
	}

	return false
}

// Filter selects the networks a listener is interested in. A network matches when it has every
// listed capability and uses one of the listed transports. An empty transport list accepts any
// transport.
type Filter struct {
	Capabilities []Capability
	Transports   []Transport
}

// DefaultFilter accepts internet capable Wi-Fi or cellular networks.
func DefaultFilter() Filter {
	return Filter{
		Capabilities: []Capability{CapabilityInternet},
		Transports:   []Transport{TransportWifi, TransportCellular},
	}
}

func (f Filter) Matches(n Network) bool {
	for _, c := range f.Capabilities {
		if !n.HasCapability(c) {
			return false
		}
	}

	if len(f.Transports) == 0 {
		return true
	}

	for _, t := range f.Transports {
		if t == n.Transport {
			return true
		}
	}

	return false
}

// Callback receives network events from a Platform. Calls may come from any goroutine.
type Callback interface {
	OnAvailable(NetworkID)
	OnLost(NetworkID)
}

// Registration is the handle of a listener registered with a Platform.
type Registration uint32

// Platform is the host facility that notifies about network changes.
type Platform interface {
	// Register starts delivering events for networks matching filter. Networks that already
	// match are announced right away.
	Register(filter Filter, callback Callback) (Registration, error)

	// Unregister stops delivery for the registration. Unregistering twice is not an error.
	Unregister(Registration) error
}
