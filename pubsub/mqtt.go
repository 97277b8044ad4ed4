package pubsub

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-errors/errors"
	"github.com/the-lightning-land/connectivityd/connectivity"
)

const (
	publishQos     = 1
	publishTimeout = 5 * time.Second
	quiesceMillis  = 250
)

type Config struct {
	Host     string
	Port     int
	Secure   bool
	Username string
	Password string
	ClientID string
	Topic    string
	Logger   Logger
}

// Publisher republishes the network status as a retained MQTT message.
type Publisher struct {
	log    Logger
	topic  string
	client mqtt.Client
	now    func() time.Time
}

type statusMessage struct {
	Status connectivity.NetworkStatus `json:"status"`
	Time   time.Time                  `json:"time"`
}

func tokenToErr(t mqtt.Token) error {
	return tokenToErrContext(context.Background(), t)
}

func tokenToErrContext(ctx context.Context, t mqtt.Token) error {
	select {
	case <-t.Done():
		return t.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func New(config *Config) (*Publisher, error) {
	p := &Publisher{
		topic: config.Topic,
		now:   time.Now,
	}

	if config.Logger != nil {
		p.log = config.Logger
	} else {
		p.log = noopLogger{}
	}

	p.client = mqtt.NewClient(p.clientOptions(config))

	p.log.Debugf("Connecting to mqtt broker %v:%v", config.Host, config.Port)

	err := tokenToErr(p.client.Connect())
	if err != nil {
		return nil, errors.Errorf("could not connect to mqtt: %v", err)
	}

	return p, nil
}

func (p *Publisher) clientOptions(config *Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(1 * time.Minute)
	opts.SetWriteTimeout(publishTimeout)
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		p.log.Warnf("MQTT connection lost: %v", err)
	})
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		p.log.Infof("MQTT connected")
	})

	if config.Secure {
		opts.AddBroker(fmt.Sprintf("ssl://%s:%d", config.Host, config.Port))
		opts.SetTLSConfig(&tls.Config{})
	} else {
		opts.AddBroker(fmt.Sprintf("tcp://%s:%d", config.Host, config.Port))
	}

	if config.Username != "" {
		opts.SetUsername(config.Username)
	}

	if config.Password != "" {
		opts.SetPassword(config.Password)
	}

	opts.SetClientID(config.ClientID)
	opts.SetCleanSession(true)

	return opts
}

func (p *Publisher) payload(status connectivity.NetworkStatus) ([]byte, error) {
	return json.Marshal(&statusMessage{
		Status: status,
		Time:   p.now().UTC(),
	})
}

func (p *Publisher) Publish(status connectivity.NetworkStatus) error {
	payload, err := p.payload(status)
	if err != nil {
		return errors.Errorf("could not encode status: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = tokenToErrContext(ctx, p.client.Publish(p.topic, publishQos, true, payload))
	if err != nil {
		return errors.Errorf("could not publish status: %v", err)
	}

	return nil
}

// Run publishes every update until the channel is closed.
func (p *Publisher) Run(updates <-chan connectivity.NetworkStatus) {
	for status := range updates {
		err := p.Publish(status)
		if err != nil {
			p.log.Errorf("Could not publish %v: %v", status, err)
		}
	}
}

func (p *Publisher) Close() error {
	p.client.Disconnect(quiesceMillis)
	return nil
}
