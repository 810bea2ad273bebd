// Package mqtt publishes the board to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/coreman2200/funtimes-stoneboard/internal/report"
	"github.com/coreman2200/funtimes-stoneboard/model"
)

type Options struct {
	Broker   string        `yaml:"broker"`
	ClientID string        `yaml:"client_id"`
	Topic    string        `yaml:"topic"`
	QoS      byte          `yaml:"qos"`
	Timeout  time.Duration `yaml:"timeout"`
}

type boardMsg struct {
	Cycle uint64          `json:"cycle"`
	Time  time.Time       `json:"time"`
	Board model.StoneGrid `json:"board"`
}

// Publisher is a report.Reporter. Every frame is published retained on
// <topic>/board; every change on <topic>/stone.
type Publisher struct {
	client  paho.Client
	topic   string
	qos     byte
	timeout time.Duration
}

var _ report.Reporter = (*Publisher)(nil)

// Connect dials the broker.
func Connect(opts Options) (*Publisher, error) {
	co := paho.NewClientOptions().AddBroker(opts.Broker).SetClientID(opts.ClientID)
	co.SetKeepAlive(2 * time.Second)
	co.SetPingTimeout(1 * time.Second)
	co.SetAutoReconnect(true)

	c := paho.NewClient(co)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", opts.Broker, token.Error())
	}
	return NewPublisher(c, opts), nil
}

func NewPublisher(c paho.Client, opts Options) *Publisher {
	p := &Publisher{client: c, topic: opts.Topic, qos: opts.QoS, timeout: opts.Timeout}
	if p.topic == "" {
		p.topic = "stoneboard"
	}
	if p.timeout <= 0 {
		p.timeout = time.Second
	}
	return p
}

func (p *Publisher) Report(_ context.Context, f report.Frame) error {
	if err := p.publish("/board", true, boardMsg{Cycle: f.Seq, Time: f.At, Board: f.Stones}); err != nil {
		return err
	}
	for _, c := range f.Changes {
		if err := p.publish("/stone", false, c); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) publish(suffix string, retained bool, obj interface{}) error {
	msg, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	token := p.client.Publish(p.topic+suffix, p.qos, retained, msg)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("mqtt publish %s%s: timed out", p.topic, suffix)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s%s: %w", p.topic, suffix, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
