package connectivity

import (
	"context"

	"github.com/go-errors/errors"
)

type NetworkStatus int32

const (
	Disconnected NetworkStatus = iota
	Connected
)

func (s NetworkStatus) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	default:
		return "invalid"
	}
}

func (s NetworkStatus) MarshalText() ([]byte, error) {
	switch s {
	case Disconnected, Connected:
		return []byte(s.String()), nil
	default:
		return nil, errors.Errorf("invalid network status %d", int32(s))
	}
}

func (s *NetworkStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "disconnected":
		*s = Disconnected
	case "connected":
		*s = Connected
	default:
		return errors.Errorf("unknown network status %q", text)
	}

	return nil
}

// Reporter exposes the latest known network status.
type Reporter interface {
	CurrentStatus() NetworkStatus
	WaitForStatusChange(context.Context, NetworkStatus) bool
}
