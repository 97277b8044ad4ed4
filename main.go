package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/the-lightning-land/connectivityd/api"
	"github.com/the-lightning-land/connectivityd/connectivity"
	"github.com/the-lightning-land/connectivityd/metrics"
	"github.com/the-lightning-land/connectivityd/network"
	"github.com/the-lightning-land/connectivityd/pubsub"

	// Blank import to set up profiling HTTP handlers.
	_ "net/http/pprof"
)

var (
	// commit stores the current commit hash of this build. This should be set using -ldflags during compilation.
	Commit string
	// version stores the version string of this build. This should be set using -ldflags during compilation.
	Version string
	// date stores the date of this build. This should be set using -ldflags during compilation.
	Date string
)

// connectivitydMain is the true entry point for connectivityd. This is required since defers
// created in the top-level scope of a main method aren't executed if os.Exit() is called.
func connectivitydMain() error {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	// Load CLI configuration and defaults
	cfg, err := loadConfig(os.Args[1:])
	if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		return nil
	} else if err != nil {
		return errors.Errorf("Failed parsing arguments: %v", err)
	}

	// Set logger into debug mode if called with --debug
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		log.Info("Setting debug mode.")
	}

	log.Debug("Loaded config.")

	// Print version of the daemon
	log.Infof("Version %s (commit %s)", Version, Commit)
	log.Infof("Built on %s", Date)

	// Stop here if only version was requested
	if cfg.ShowVersion {
		return nil
	}

	if cfg.Profiling.Listen != "" {
		go func() {
			log.Infof("Starting profiling server on %v", cfg.Profiling.Listen)
			// Redirect the root path
			mux := http.NewServeMux()
			mux.Handle("/", http.RedirectHandler("/debug/pprof/", http.StatusSeeOther))
			mux.Handle("/debug/pprof/", http.DefaultServeMux)
			err := http.ListenAndServe(cfg.Profiling.Listen, mux)
			if err != nil {
				log.Errorf("Could not run profiler: %v", err)
			}
		}()
	}

	// The platform delivering network notifications
	var platform network.Platform

	switch cfg.Platform {
	case "networkmanager":
		platform = network.NewNetworkManagerPlatform(&network.NetworkManagerConfig{
			Logger: log.New().WithField("system", "networkmanager"),
		})

		log.Info("Created NetworkManager platform.")
	case "wpa":
		platform = network.NewWpaPlatform(&network.WpaConfig{
			Interface: cfg.Wpa.Interface,
			Logger:    log.New().WithField("system", "wpa"),
		})

		log.Infof("Created wpa_supplicant platform on interface %v.", cfg.Wpa.Interface)
	case "mock":
		mock := network.NewMockPlatform(log.New().WithField("system", "mock"))

		go func() {
			log.Infof("Accepting mock networks on %v", cfg.Mock.Listen)
			err := http.ListenAndServe(cfg.Mock.Listen, mock.Handler())
			if err != nil {
				log.Errorf("Could not serve mock platform: %v", err)
			}
		}()

		platform = mock

		log.Info("Created a mock platform.")
	default:
		return errors.Errorf("Unknown platform type %v", cfg.Platform)
	}

	err = platform.Start()
	if err != nil {
		return errors.Errorf("Could not start platform: %v", err)
	}

	log.Infof("Started platform with %d known networks.", len(platform.Networks()))

	defer func() {
		err := platform.Stop()
		if err != nil {
			log.Errorf("Could not properly stop platform: %v", err)
		} else {
			log.Info("Stopped platform.")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The observer owns the single platform registration for its whole lifetime
	observer, err := connectivity.NewObserver(ctx, &connectivity.Config{
		Platform:   platform,
		BufferSize: cfg.BufferSize,
		Logger:     log.New().WithField("system", "connectivity"),
	})
	if err != nil {
		return errors.Errorf("Could not create observer: %v", err)
	}

	log.Infof("Created observer, network is %v.", observer.CurrentStatus())

	defer func() {
		_ = observer.Close()
		log.Info("Closed observer.")
	}()

	m, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		return errors.Errorf("Could not register metrics: %v", err)
	}

	go m.Observe(observer.StatusChanges().Updates)

	if cfg.Mqtt.Host != "" {
		publisher, err := pubsub.New(&pubsub.Config{
			Host:     cfg.Mqtt.Host,
			Port:     cfg.Mqtt.Port,
			Secure:   cfg.Mqtt.Secure,
			Username: cfg.Mqtt.Username,
			Password: cfg.Mqtt.Password,
			ClientID: cfg.Mqtt.ClientID,
			Topic:    cfg.Mqtt.Topic,
			Logger:   log.New().WithField("system", "mqtt"),
		})
		if err != nil {
			return errors.Errorf("Could not create MQTT publisher: %v", err)
		}

		log.Infof("Publishing status to %v on %v", cfg.Mqtt.Topic, cfg.Mqtt.Host)

		defer func() {
			_ = publisher.Close()
			log.Info("Disconnected MQTT publisher.")
		}()

		go publisher.Run(observer.StatusChanges().Updates)
	}

	a := api.New(&api.Config{
		Observer: observer,
		Metrics:  promhttp.Handler(),
		Log:      log.New().WithField("system", "api"),
	})

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return errors.Errorf("API unable to listen on %v: %v", cfg.Listen, err)
	}

	defer func() {
		err := lis.Close()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			log.Errorf("Could not close listener: %v", err)
		}
	}()

	go func() {
		log.Infof("API listening on %v", lis.Addr())
		err := a.Serve(lis)
		if err != nil {
			log.Debugf("API stopped: %v", err)
		}
	}()

	// Handle interrupt signals correctly
	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		sig := <-signals
		log.Info(sig)
		log.Info("Received an interrupt, stopping connectivityd...")
		cancel()
	}()

	// blocks until the observer is torn down
	<-observer.Done()

	// finish with no error
	return nil
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := connectivitydMain(); err != nil {
		log.WithError(err).Println("Failed running connectivityd.")
		os.Exit(1)
	}
}
