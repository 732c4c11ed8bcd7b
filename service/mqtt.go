package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTPublisher publishes Responses to an MQTT broker.
type MQTTPublisher struct {
	Client mqtt.Client

	// Topic is the topic for all Responses.  If a Response has an
	// Id, it's appended: Topic/Id.
	Topic string

	QoS    byte
	Retain bool

	// Timeout bounds the wait for the broker.  Zero means
	// DefaultMQTTTimeout.
	Timeout time.Duration
}

var (
	DefaultMQTTTimeout = 10 * time.Second

	PublishTimeout = errors.New("publish timed out")
)

func (p *MQTTPublisher) topic(resp *Response) string {
	if resp.Id == "" {
		return p.Topic
	}
	return p.Topic + "/" + resp.Id
}

// Publish sends the Response as JSON and waits for the broker (per
// the QoS).
func (p *MQTTPublisher) Publish(ctx context.Context, resp *Response) error {
	js, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultMQTTTimeout
	}
	if deadline, have := ctx.Deadline(); have {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}

	t := p.Client.Publish(p.topic(resp), p.QoS, p.Retain, js)
	if !t.WaitTimeout(timeout) {
		return PublishTimeout
	}
	return t.Error()
}

// MQTTOpts are the few broker settings that the service needs.
type MQTTOpts struct {
	Broker    string
	ClientId  string
	Username  string
	Password  string
	KeepAlive time.Duration
}

// ConnectMQTT makes a client and connects it.
func ConnectMQTT(o *MQTTOpts) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.Broker)
	opts.SetClientID(o.ClientId)
	if 0 < o.KeepAlive {
		opts.SetKeepAlive(o.KeepAlive)
	}
	opts.Username = o.Username
	opts.Password = o.Password
	opts.AutoReconnect = true
	opts.CleanSession = true

	client := mqtt.NewClient(opts)
	t := client.Connect()
	if !t.WaitTimeout(DefaultMQTTTimeout) {
		return nil, errors.New("MQTT connect timed out")
	}
	if err := t.Error(); err != nil {
		return nil, err
	}
	return client, nil
}
