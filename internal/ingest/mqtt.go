// Package ingest bridges driver devices that report over MQTT into
// the record pipeline. Device credentials are checked by the broker;
// the pipeline still re-validates the assignment, so a stray device
// cannot write samples for a vehicle that is off duty.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"unibus/internal/domain"
	"unibus/internal/tracker"
)

// Config holds the broker connection settings
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string // for example unibus/vehicle/+/position
	QoS      byte
}

type Bridge struct {
	client paho.Client
	trk    *tracker.Tracker
	topic  string
	qos    byte
	logger zerolog.Logger
}

// NewBridge connects to the broker. The subscription happens in the
// OnConnect hook so it survives reconnects.
func NewBridge(cfg Config, trk *tracker.Tracker, logger zerolog.Logger) (*Bridge, error) {
	log := logger.With().Str("component", "mqtt_ingest").Logger()

	b := &Bridge{
		trk:    trk,
		topic:  cfg.Topic,
		qos:    cfg.QoS,
		logger: log,
	}

	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(c paho.Client) {
		log.Info().Str("topic", b.topic).Msg("mqtt connected, subscribing")
		if token := c.Subscribe(b.topic, b.qos, b.onMessage); token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Msg("subscribe failed")
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Error().Err(err).Msg("mqtt connection lost")
	}
	opts.OnReconnecting = func(paho.Client, *paho.ClientOptions) {
		log.Warn().Msg("reconnecting to mqtt broker")
	}

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	b.client = client
	return b, nil
}

func (b *Bridge) onMessage(_ paho.Client, msg paho.Message) {
	vehicleID, err := vehicleFromTopic(msg.Topic())
	if err != nil {
		b.logger.Warn().Err(err).Str("topic", msg.Topic()).Msg("ignoring message")
		return
	}

	var in tracker.InboundSample
	if err := json.Unmarshal(msg.Payload(), &in); err != nil {
		b.logger.Warn().Err(err).Str("vehicle_id", string(vehicleID)).Msg("unreadable payload")
		return
	}
	if err := in.Validate(); err != nil {
		b.logger.Warn().Err(err).Str("vehicle_id", string(vehicleID)).Msg("rejected payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := b.trk.Record(ctx, in.ToSample(vehicleID)); err != nil {
		b.logger.Warn().Err(err).Str("vehicle_id", string(vehicleID)).Msg("sample rejected")
	}
}

// Close disconnects from the broker
func (b *Bridge) Close() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(250)
	}
}

// vehicleFromTopic extracts the vehicle ID from topics shaped like
// unibus/vehicle/<id>/position.
func vehicleFromTopic(topic string) (domain.VehicleID, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 || parts[len(parts)-1] != "position" {
		return "", fmt.Errorf("unexpected topic shape: %s", topic)
	}
	id := parts[len(parts)-2]
	if id == "" {
		return "", fmt.Errorf("empty vehicle id in topic: %s", topic)
	}
	return domain.VehicleID(id), nil
}
