package network

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	"github.com/the-lightning-land/connectivityd/connectivity"
)

// check MockPlatform compliance to its interface during compile time
var _ Platform = (*MockPlatform)(nil)

// MockPlatform is an in-process platform whose networks are announced by hand or over HTTP.
type MockPlatform struct {
	// RegisterErr, when set, is returned by every Register call.
	RegisterErr error

	log      Logger
	registry *registry
	router   *mux.Router
}

func NewMockPlatform(logger Logger) *MockPlatform {
	m := &MockPlatform{
		registry: newRegistry(),
		router:   mux.NewRouter(),
	}

	if logger != nil {
		m.log = logger
	} else {
		m.log = noopLogger{}
	}

	m.router.Handle("/networks", m.handleGetNetworks()).Methods(http.MethodGet)
	m.router.Handle("/networks/{id}", m.handlePutNetwork()).Methods(http.MethodPut)
	m.router.Handle("/networks/{id}", m.handleDeleteNetwork()).Methods(http.MethodDelete)

	return m
}

func (m *MockPlatform) Start() error {
	return nil
}

func (m *MockPlatform) Stop() error {
	return nil
}

func (m *MockPlatform) Register(filter connectivity.Filter, callback connectivity.Callback) (connectivity.Registration, error) {
	if m.RegisterErr != nil {
		return 0, m.RegisterErr
	}

	return m.registry.register(filter, callback)
}

func (m *MockPlatform) Unregister(id connectivity.Registration) error {
	m.registry.unregister(id)
	return nil
}

func (m *MockPlatform) Networks() []connectivity.Network {
	return m.registry.list()
}

// Announce adds or updates a network. Listeners are called before Announce returns.
func (m *MockPlatform) Announce(n connectivity.Network) {
	m.log.Infof("Announcing %v network %v", n.Transport, n.ID)
	m.registry.update(n)
}

// Lose removes a network. Listeners are called before Lose returns.
func (m *MockPlatform) Lose(id connectivity.NetworkID) {
	m.log.Infof("Losing network %v", id)
	m.registry.remove(id)
}

// Handler exposes Announce and Lose over HTTP.
func (m *MockPlatform) Handler() http.Handler {
	return m.router
}

type mockNetwork struct {
	ID        string `json:"id"`
	Transport string `json:"transport"`
	Internet  bool   `json:"internet"`
}

func (m *MockPlatform) handleGetNetworks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		networks := []*mockNetwork{}
		for _, n := range m.Networks() {
			networks = append(networks, &mockNetwork{
				ID:        string(n.ID),
				Transport: n.Transport.String(),
				Internet:  n.HasCapability(connectivity.CapabilityInternet),
			})
		}

		sort.Slice(networks, func(i, j int) bool {
			return networks[i].ID < networks[j].ID
		})

		m.jsonResponse(w, networks, http.StatusOK)
	}
}

func (m *MockPlatform) handlePutNetwork() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := mockNetwork{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			m.jsonResponse(w, map[string]string{"error": err.Error()}, http.StatusBadRequest)
			return
		}

		n := connectivity.Network{
			ID:        connectivity.NetworkID(mux.Vars(r)["id"]),
			Transport: connectivity.ParseTransport(req.Transport),
		}

		if req.Internet {
			n.Capabilities = []connectivity.Capability{connectivity.CapabilityInternet}
		}

		m.Announce(n)

		w.WriteHeader(http.StatusNoContent)
	}
}

func (m *MockPlatform) handleDeleteNetwork() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.Lose(connectivity.NetworkID(mux.Vars(r)["id"]))

		w.WriteHeader(http.StatusNoContent)
	}
}

func (m *MockPlatform) jsonResponse(w http.ResponseWriter, v interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		m.log.Errorf("Could not respond with JSON: %v", err)
	}
}
