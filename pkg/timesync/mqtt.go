// Package timesync receives the companion device's time-sync messages. The
// companion publishes a single retained string per sync, so a logger that
// reboots while the companion is out of range still picks up the last sync on
// subscribe.
package timesync

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/openfield/as7341-logger/pkg/config"
	"github.com/openfield/as7341-logger/pkg/telemetry"
)

const connectTimeout = 30 * time.Second

// Syncer is the clock authority's sync entry point.
type Syncer interface {
	TrySync(message string) bool
}

// Subscriber feeds every message on the sync topic to the clock authority.
// The handler runs on paho's network goroutine, concurrent to the acquisition
// loop; the authority's atomic snapshot makes that safe.
type Subscriber struct {
	client mqtt.Client
	topic  string
	log    zerolog.Logger
}

func NewSubscriber(cfg config.MQTTConfig, syncer Syncer, log zerolog.Logger, metrics telemetry.Collector) (*Subscriber, error) {
	logger := log.With().Str("component", "timesync").Logger()
	opts := mqtt.NewClientOptions().AddBroker(cfg.Server).SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect: timeout after %s", connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	s := &Subscriber{client: client, topic: cfg.Topic, log: logger}
	token = client.Subscribe(cfg.Topic, 1, newHandler(syncer, logger, metrics))
	token.Wait()
	if err := token.Error(); err != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("mqtt subscribe %q: %w", cfg.Topic, err)
	}
	logger.Info().Str("server", cfg.Server).Str("topic", cfg.Topic).Msg("listening for time sync")
	return s, nil
}

func (s *Subscriber) Close() {
	s.client.Disconnect(250)
}

// newHandler wraps the authority. No reply is sent either way; a rejected
// message is diagnostic-only.
func newHandler(syncer Syncer, log zerolog.Logger, metrics telemetry.Collector) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		payload := string(msg.Payload())
		accepted := syncer.TrySync(payload)
		metrics.IncTimeSync(accepted)
		if accepted {
			log.Info().Str("topic", msg.Topic()).Msg("time sync applied")
		} else {
			log.Warn().Str("topic", msg.Topic()).Str("payload", payload).Msg("time sync discarded")
		}
	}
}
