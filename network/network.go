package network

import (
	"github.com/the-lightning-land/connectivityd/connectivity"
)

// Platform is a connectivity.Platform backed by a host service that has to be started before
// listeners can register and stopped once the last listener is gone.
type Platform interface {
	connectivity.Platform
	Start() error
	Stop() error
	Networks() []connectivity.Network
}
