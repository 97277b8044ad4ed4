package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

const (
	defaultListen     = "localhost:9190"
	defaultMockListen = "localhost:9191"
	defaultBufferSize = 16
	defaultMqttPort   = 1883
	defaultMqttTopic  = "connectivityd/status"
)

type wpaConfig struct {
	Interface string `long:"interface" description:"Wi-Fi interface watched through wpa_supplicant"`
}

type mockConfig struct {
	Listen string `long:"listen" description:"Address of the HTTP endpoint used to announce mock networks"`
}

type mqttConfig struct {
	Host     string `long:"host" description:"MQTT broker host, republishing is disabled when empty"`
	Port     int    `long:"port" description:"MQTT broker port"`
	Secure   bool   `long:"secure" description:"Connect to the broker using TLS"`
	Username string `long:"username" description:"MQTT username"`
	Password string `long:"password" description:"MQTT password"`
	ClientID string `long:"clientid" description:"MQTT client id"`
	Topic    string `long:"topic" description:"Topic the status is published to"`
}

type profilingConfig struct {
	Listen string `long:"listen" description:"Address of the pprof server, disabled when empty"`
}

type config struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	Debug       bool   `long:"debug" description:"Start in debug mode"`
	ConfigFile  string `long:"configfile" description:"Path to an INI configuration file"`
	Platform    string `long:"platform" description:"Source of network notifications" choice:"networkmanager" choice:"wpa" choice:"mock"`
	Listen      string `long:"listen" description:"Address the API listens on"`
	BufferSize  int    `long:"buffersize" description:"Pending status updates kept per subscriber"`

	Wpa       *wpaConfig       `group:"wpa" namespace:"wpa"`
	Mock      *mockConfig      `group:"mock" namespace:"mock"`
	Mqtt      *mqttConfig      `group:"mqtt" namespace:"mqtt"`
	Profiling *profilingConfig `group:"profiling" namespace:"profiling"`
}

func defaultConfig() config {
	return config{
		Platform:   "networkmanager",
		Listen:     defaultListen,
		BufferSize: defaultBufferSize,
		Wpa: &wpaConfig{
			Interface: "wlan0",
		},
		Mock: &mockConfig{
			Listen: defaultMockListen,
		},
		Mqtt: &mqttConfig{
			Port:     defaultMqttPort,
			ClientID: "connectivityd",
			Topic:    defaultMqttTopic,
		},
		Profiling: &profilingConfig{},
	}
}

// loadConfig starts from the defaults, applies the config file if one was named and lets the
// command line override both.
func loadConfig(args []string) (*config, error) {
	// a first pass only finds the config file and help or version requests
	preCfg := defaultConfig()
	preParser := flags.NewParser(&preCfg, flags.HelpFlag|flags.PassDoubleDash)
	preParser.Name = "connectivityd"

	_, err := preParser.ParseArgs(args)
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			preParser.WriteHelp(os.Stdout)
		}

		return nil, err
	}

	cfg := defaultConfig()
	parser := flags.NewParser(&cfg, flags.HelpFlag|flags.PassDoubleDash)

	if preCfg.ConfigFile != "" {
		err := flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
		if err != nil {
			return nil, err
		}
	}

	_, err = parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
