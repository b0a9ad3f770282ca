package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// pendingCapacity bounds the messages held while the broker is away.
// At one minute message per minute this covers a multi-hour outage.
const pendingCapacity = 256

// RealPublisher publishes to an actual MQTT broker. Minute and system
// messages that cannot be sent while the connection is down are held in
// a fixed ring and replayed once the broker comes back; symbol messages
// are dropped, a stale per-second symbol is worthless.
type RealPublisher struct {
	client paho.Client

	mu      sync.Mutex
	pending *ringBuffer
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(broker, clientID string) (*RealPublisher, error) {
	p := &RealPublisher{pending: newRingBuffer(pendingCapacity)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// onConnect replays messages buffered while the connection was down.
// Runs on paho's connection goroutine, so the replay itself is pushed
// to a fresh goroutine to keep the handler quick.
func (p *RealPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	queued := p.pending.drainAll()
	p.mu.Unlock()

	if len(queued) == 0 {
		return
	}
	log.Printf("mqtt: connected, replaying %d buffered messages", len(queued))
	go func() {
		for _, m := range queued {
			token := client.Publish(m.topic, m.qos, m.retained, m.payload)
			if !token.WaitTimeout(5 * time.Second) {
				log.Printf("mqtt: replay timeout on %s", m.topic)
			} else if err := token.Error(); err != nil {
				log.Printf("mqtt: replay %s: %v", m.topic, err)
			}
		}
	}()
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	log.Printf("mqtt: connection lost: %v", err)
}

// publish sends one message, or buffers it for replay when disconnected
// and buffering is requested.
func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte, buffer bool) error {
	if !p.client.IsConnected() {
		if !buffer {
			return fmt.Errorf("not connected")
		}
		p.mu.Lock()
		p.pending.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		n := p.pending.len()
		p.mu.Unlock()
		log.Printf("mqtt: disconnected, buffered %s (%d pending)", topic, n)
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PublishMinute sends a decoded minute to the MQTT broker.
// QoS 1 and retained: subscribers joining late get the newest minute.
func (p *RealPublisher) PublishMinute(event MinuteEvent) error {
	payload, err := FormatMinutePayload(event)
	if err != nil {
		return fmt.Errorf("format minute payload: %w", err)
	}
	return p.publish(TopicMinutes, 1, true, payload, true)
}

// PublishSymbol sends a classified symbol to the MQTT broker.
// QoS 0 (at-most-once), not retained, never buffered.
func (p *RealPublisher) PublishSymbol(event SymbolEvent) error {
	payload, err := FormatSymbolPayload(event)
	if err != nil {
		return fmt.Errorf("format symbol payload: %w", err)
	}
	return p.publish(TopicSymbols, 0, false, payload, false)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
// QoS 1 (at-least-once) - we want to ensure delivery.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	if err := p.publish(TopicSystem, 1, event.Retained, payload, true); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// PendingCount returns the number of messages waiting for reconnection.
func (p *RealPublisher) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
