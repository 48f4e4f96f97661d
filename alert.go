package main

// This file defines pluggable notifiers for when the occupancy verdict of the
// spot changes.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// OccupancyEvent is emitted whenever a sample flips the occupied verdict.
type OccupancyEvent struct {
	Occupied   bool        `json:"is_occupied"`
	DistanceCM centimeters `json:"distance_cm"`
	At         time.Time   `json:"at"`
}

// Notifier delivers occupancy changes somewhere.  Notify is called on the
// control loop, so implementations must not block on I/O.  If an error is
// returned, the caller logs it and carries on.
type Notifier interface {
	Name() string
	Notify(ev OccupancyEvent, logger *EventLogger) error
}

// LogNotifier writes occupancy changes to the event log.  It is always
// configured.
type LogNotifier struct{}

// Name returns the type name of the notifier.
func (LogNotifier) Name() string { return "log" }

// Notify writes the change to the event log.
func (LogNotifier) Notify(ev OccupancyEvent, logger *EventLogger) error {
	state := "AVAILABLE"
	if ev.Occupied {
		state = "OCCUPIED"
	}
	logger.Log("spot %s at %.2f cm", state, float64(ev.DistanceCM))
	return nil
}

var errQueueFull = errors.New("publish queue full, event dropped")

// mqttPublisher is the part of mqtt.Client the notifier needs.
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTNotifier publishes occupancy changes as retained JSON messages.
// Notify only queues; a separate goroutine started with Start does the
// network I/O so a slow broker never stalls the control loop.
type MQTTNotifier struct {
	client  mqttPublisher
	topic   string
	timeout time.Duration
	queue   chan OccupancyEvent
	logger  *EventLogger
}

func newMQTTNotifier(client mqttPublisher, topic string, queueLen int, logger *EventLogger) *MQTTNotifier {
	if queueLen <= 0 {
		queueLen = 1
	}
	return &MQTTNotifier{
		client:  client,
		topic:   topic,
		timeout: 5 * time.Second,
		queue:   make(chan OccupancyEvent, queueLen),
		logger:  logger,
	}
}

// DialMQTT connects to the configured broker.  The client reconnects on its
// own, so a broker that is down at startup only delays delivery.
func DialMQTT(cfg MQTTConfig, logger *EventLogger) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Log("mqtt: connection lost: %v", err)
		}).
		SetOnConnectHandler(func(mqtt.Client) {
			logger.Log("mqtt: connected to %s", cfg.Broker)
		})
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}
	return newMQTTNotifier(client, cfg.Topic, cfg.QueueLen, logger), nil
}

// Name returns the type name of the notifier.
func (*MQTTNotifier) Name() string { return "mqtt" }

// Notify queues ev for publishing.  It fails without blocking when the queue
// is full.
func (n *MQTTNotifier) Notify(ev OccupancyEvent, _ *EventLogger) error {
	select {
	case n.queue <- ev:
		return nil
	default:
		return errQueueFull
	}
}

// Start publishes queued events until ctx is cancelled.
func (n *MQTTNotifier) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-n.queue:
			if err := n.publish(ev); err != nil {
				incNotifyError(n.Name())
				n.logger.Log("mqtt: %v", err)
			}
		}
	}
}

func (n *MQTTNotifier) publish(ev OccupancyEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal occupancy event: %w", err)
	}
	token := n.client.Publish(n.topic, 1, true, payload)
	if !token.WaitTimeout(n.timeout) {
		return fmt.Errorf("publish to %s timed out", n.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", n.topic, err)
	}
	return nil
}

// initNotifiers constructs the notifiers for cfg.  The log notifier is always
// present; the MQTT notifier is added when a broker is configured and its
// publishing goroutine runs until ctx ends.  An unreachable broker is logged
// and skipped.
func initNotifiers(ctx context.Context, cfg Config, logger *EventLogger) []Notifier {
	notifiers := []Notifier{LogNotifier{}}
	if cfg.MQTT.Broker == "" {
		return notifiers
	}
	n, err := DialMQTT(cfg.MQTT, logger)
	if err != nil {
		logger.Log("mqtt notifier disabled: %v", err)
		return notifiers
	}
	go n.Start(ctx)
	return append(notifiers, n)
}
