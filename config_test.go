package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(nil)
	require.NoError(t, err)

	require.Equal(t, "networkmanager", cfg.Platform)
	require.Equal(t, defaultListen, cfg.Listen)
	require.Equal(t, defaultBufferSize, cfg.BufferSize)
	require.Equal(t, "wlan0", cfg.Wpa.Interface)
	require.Equal(t, defaultMqttTopic, cfg.Mqtt.Topic)
	require.Empty(t, cfg.Mqtt.Host)
}

func TestLoadConfigCommandLine(t *testing.T) {
	cfg, err := loadConfig([]string{
		"--platform=wpa",
		"--wpa.interface=wlan1",
		"--mqtt.host=broker.local",
		"--debug",
	})
	require.NoError(t, err)

	require.Equal(t, "wpa", cfg.Platform)
	require.Equal(t, "wlan1", cfg.Wpa.Interface)
	require.Equal(t, "broker.local", cfg.Mqtt.Host)
	require.Equal(t, defaultMqttPort, cfg.Mqtt.Port)
	require.True(t, cfg.Debug)
}

func TestLoadConfigFileIsOverriddenByCommandLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connectivityd.conf")
	err := os.WriteFile(path, []byte(`
[Application Options]
platform = mock
listen = 0.0.0.0:9190

[mqtt]
mqtt.host = broker.local
mqtt.topic = home/network
`), 0600)
	require.NoError(t, err)

	cfg, err := loadConfig([]string{"--configfile=" + path, "--listen=127.0.0.1:9999"})
	require.NoError(t, err)

	require.Equal(t, "mock", cfg.Platform)
	require.Equal(t, "127.0.0.1:9999", cfg.Listen)
	require.Equal(t, "broker.local", cfg.Mqtt.Host)
	require.Equal(t, "home/network", cfg.Mqtt.Topic)
}

func TestLoadConfigRejectsUnknownPlatform(t *testing.T) {
	_, err := loadConfig([]string{"--platform=android"})
	require.Error(t, err)

	_, err = loadConfig([]string{"--help"})
	e, ok := err.(*flags.Error)
	require.True(t, ok)
	require.Equal(t, flags.ErrHelp, e.Type)
}
