package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/connectivityd/connectivity"
	"github.com/the-lightning-land/connectivityd/network"
)

func newTestServer(t *testing.T) (*network.MockPlatform, *connectivity.Observer, *httptest.Server) {
	t.Helper()

	platform := network.NewMockPlatform(nil)

	observer, err := connectivity.NewObserver(context.Background(), &connectivity.Config{
		Platform: platform,
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_gauge"}))

	server := httptest.NewServer(New(&Config{
		Observer: observer,
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}))

	t.Cleanup(func() {
		server.Close()
		_ = observer.Close()
	})

	return platform, observer, server
}

func wifi(id string) connectivity.Network {
	return connectivity.Network{
		ID:           connectivity.NetworkID(id),
		Transport:    connectivity.TransportWifi,
		Capabilities: []connectivity.Capability{connectivity.CapabilityInternet},
	}
}

func getStatus(t *testing.T, server *httptest.Server) string {
	t.Helper()

	res, err := http.Get(server.URL + "/api/v1/connectivity")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/json", res.Header.Get("Content-Type"))

	body := map[string]string{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))

	return body["status"]
}

func TestGetConnectivity(t *testing.T) {
	platform, _, server := newTestServer(t)

	require.Equal(t, "disconnected", getStatus(t, server))

	platform.Announce(wifi("wlan0"))
	require.Equal(t, "connected", getStatus(t, server))

	platform.Lose("wlan0")
	require.Equal(t, "disconnected", getStatus(t, server))
}

func TestConnectivityEvents(t *testing.T) {
	platform, observer, server := newTestServer(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/connectivity/events"

	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c.Close()

	read := func() string {
		require.NoError(t, c.SetReadDeadline(time.Now().Add(time.Second)))

		event := map[string]interface{}{}
		require.NoError(t, c.ReadJSON(&event))

		return event["status"].(string)
	}

	require.Equal(t, "disconnected", read())

	platform.Announce(wifi("wlan0"))
	platform.Announce(wifi("wlan1"))
	require.Equal(t, "connected", read())

	platform.Lose("wlan1")
	require.Equal(t, "disconnected", read())

	// teardown closes the stream
	require.NoError(t, observer.Close())
	require.NoError(t, c.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err = c.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "unexpected error %v", err)
}

func TestMetricsAndNotFound(t *testing.T) {
	_, _, server := newTestServer(t)

	res, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(server.URL + "/api/v1/nothing")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	body := map[string]string{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Equal(t, "Not found", body["error"])
}
