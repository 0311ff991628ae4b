package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectMaxElapsed = 10 * time.Second
	connectMaxRetries = 5

	disconnectQuiesceMs = 250
)

// BrokerConfig holds the MQTT broker connection settings.
type BrokerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	ClientID string
}

// Connect establishes an MQTT connection with exponential-backoff retries.
// The connection is torn down when ctx is cancelled.
func Connect(ctx context.Context, cfg BrokerConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = connectMaxElapsed

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, connectMaxRetries-1), ctx))
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", err)
	}

	go func() {
		<-ctx.Done()
		client.Disconnect(disconnectQuiesceMs)
	}()

	return client, nil
}

// WithPublisherLogger sets the logger for the publisher.
func WithPublisherLogger(logger *slog.Logger) func(*Publisher) {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// Publisher periodically publishes drone status snapshots to an MQTT topic
// for external monitors. Publishing is best effort: a failed publish is
// logged and the next tick tries again.
type Publisher struct {
	client   mqtt.Client
	topic    string
	interval time.Duration
	provider Provider
	logger   *slog.Logger
}

func NewPublisher(client mqtt.Client, topic string, interval time.Duration, provider Provider, options ...func(*Publisher)) (*Publisher, error) {
	if client == nil || provider == nil {
		return nil, fmt.Errorf("client and provider are required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}

	p := Publisher{
		client:   client,
		topic:    topic,
		interval: interval,
		provider: provider,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&p)
	}

	return &p, nil
}

// Run publishes snapshots at the configured interval until ctx is
// cancelled.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publish()
		}
	}
}

func (p *Publisher) publish() {
	snapshot := p.provider.Get()

	payload, err := json.Marshal(snapshot)
	if err != nil {
		p.logger.Error("marshaling status snapshot", slog.Any("error", err))
		return
	}

	token := p.client.Publish(p.topic, 0, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		p.logger.Warn("publishing status snapshot", slog.Any("error", err))
		return
	}

	p.logger.Debug("status published", slog.String("topic", p.topic))
}
