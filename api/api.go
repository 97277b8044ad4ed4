package api

import (
	"net"
	"net/http"

	"github.com/go-errors/errors"
	"github.com/gorilla/mux"
	"github.com/the-lightning-land/connectivityd/connectivity"
)

// Observer is the part of connectivity.Observer the api depends on.
type Observer interface {
	CurrentStatus() connectivity.NetworkStatus
	StatusChanges() *connectivity.StatusClient
}

type Config struct {
	Observer Observer
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	Log     Logger
}

type Api struct {
	observer Observer
	router   *mux.Router
	log      Logger
}

func New(config *Config) *Api {
	api := &Api{
		observer: config.Observer,
		router:   mux.NewRouter(),
	}

	if config.Log != nil {
		api.log = config.Log
	} else {
		api.log = noopLogger{}
	}

	api.router.Use(api.loggingMiddleware)

	api.router.Handle("/api/v1/connectivity", api.handleGetConnectivity()).Methods(http.MethodGet)
	api.router.Handle("/api/v1/connectivity/events", api.handleGetConnectivityEvents()).Methods(http.MethodGet)

	if config.Metrics != nil {
		api.router.Handle("/metrics", config.Metrics).Methods(http.MethodGet)
	}

	api.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.jsonError(w, "Not found", http.StatusNotFound)
	})

	return api
}

func (a *Api) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *Api) Serve(l net.Listener) error {
	err := http.Serve(l, a.router)
	if err != nil {
		return errors.Errorf("Unable to serve api: %v", err)
	}

	return nil
}

func (a *Api) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.log.Debugf("Accessing %v %v", r.Method, r.RequestURI)
		next.ServeHTTP(w, r)
	})
}
