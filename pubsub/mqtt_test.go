package pubsub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/connectivityd/connectivity"
)

func TestPayload(t *testing.T) {
	p := &Publisher{
		now: func() time.Time {
			return time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC)
		},
	}

	payload, err := p.payload(connectivity.Connected)
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"connected","time":"2026-10-15T08:30:00Z"}`, string(payload))
}

func TestClientOptions(t *testing.T) {
	p := &Publisher{log: noopLogger{}}

	opts := p.clientOptions(&Config{
		Host:     "broker.local",
		Port:     8883,
		Secure:   true,
		Username: "candy",
		ClientID: "connectivityd",
	})

	require.Len(t, opts.Servers, 1)
	require.Equal(t, "ssl://broker.local:8883", opts.Servers[0].String())
	require.Equal(t, "connectivityd", opts.ClientID)
	require.Equal(t, "candy", opts.Username)
	require.Empty(t, opts.Password)
	require.True(t, opts.AutoReconnect)

	opts = p.clientOptions(&Config{Host: "localhost", Port: 1883})
	require.Equal(t, "tcp://localhost:1883", opts.Servers[0].String())
}
