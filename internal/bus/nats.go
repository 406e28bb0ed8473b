package bus

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/stagecast/stagecast/internal/events"
)

// NATSConfig holds configuration for the NATS event bridge.
type NATSConfig struct {
	URL           string
	SubjectPrefix string // e.g. "output.events."
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns the default bridge configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "output.events.",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// NATSBridge subscribes to editor events on NATS subjects and republishes
// them onto the in-process bus. The subject suffix is the event type:
// "output.events.slide_changed" carries a SlideChangedPayload, and so on.
type NATSBridge struct {
	bus    *Bus
	nc     *nats.Conn
	sub    *nats.Subscription
	config NATSConfig
}

// NewNATSBridge connects to NATS and prepares the bridge.
func NewNATSBridge(b *Bus, config NATSConfig) (*NATSBridge, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSBridge{bus: b, nc: nc, config: config}, nil
}

// Start subscribes to the configured subject space.
func (nb *NATSBridge) Start() error {
	subject := nb.config.SubjectPrefix + ">"
	sub, err := nb.nc.Subscribe(subject, nb.handleMessage)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	nb.sub = sub

	log.Info().Str("subject", subject).Msg("NATS event bridge started")
	return nil
}

// Stop unsubscribes and closes the connection.
func (nb *NATSBridge) Stop() {
	if nb.sub != nil {
		if err := nb.sub.Unsubscribe(); err != nil {
			log.Error().Err(err).Msg("failed to unsubscribe NATS bridge")
		}
	}
	nb.nc.Close()
	log.Info().Msg("NATS event bridge stopped")
}

func (nb *NATSBridge) handleMessage(msg *nats.Msg) {
	suffix := strings.TrimPrefix(msg.Subject, nb.config.SubjectPrefix)
	t := events.Type(suffix)
	switch t {
	case events.TypeSlideChanged, events.TypeOverlayMessage,
		events.TypeOverlayLogo, events.TypeFullscreenToggle:
	default:
		log.Warn().Str("subject", msg.Subject).Msg("ignoring unknown event subject")
		return
	}

	if len(msg.Data) > 0 && !json.Valid(msg.Data) {
		log.Warn().Str("subject", msg.Subject).Msg("ignoring event with invalid JSON payload")
		return
	}

	nb.bus.Publish(events.Event{Type: t, Payload: msg.Data})

	log.Debug().
		Str("subject", msg.Subject).
		Int("bytes", len(msg.Data)).
		Msg("event bridged from NATS")
}
