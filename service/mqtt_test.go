package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	mqtt.Token
	done bool
	err  error
}

func (t *fakeToken) Wait() bool {
	return t.done
}

func (t *fakeToken) WaitTimeout(time.Duration) bool {
	return t.done
}

func (t *fakeToken) Error() error {
	return t.err
}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	mqtt.Client
	token *fakeToken
	got   []published
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.got = append(c.got, published{topic, qos, payload.([]byte)})
	return c.token
}

func TestMQTTPublisher(t *testing.T) {
	var (
		ctx    = context.Background()
		client = &fakeClient{token: &fakeToken{done: true}}
		p      = &MQTTPublisher{
			Client: client,
			Topic:  "morpha/results",
			QoS:    1,
		}
		s = NewService()
	)
	s.Publisher = p

	_, err := s.Run(ctx, &Request{
		Id:          "r1",
		Composition: composition(t, "sum.json"),
	})
	require.NoError(t, err)
	require.Len(t, client.got, 1)
	require.Equal(t, "morpha/results/r1", client.got[0].topic)
	require.Equal(t, byte(1), client.got[0].qos)

	var resp Response
	require.NoError(t, json.Unmarshal(client.got[0].payload, &resp))
	require.Equal(t, "Done", resp.StoppedBecause)

	require.NoError(t, p.Publish(ctx, &Response{}))
	require.Equal(t, "morpha/results", client.got[1].topic)
}

func TestMQTTPublisherErrors(t *testing.T) {
	ctx := context.Background()

	p := &MQTTPublisher{
		Client: &fakeClient{token: &fakeToken{}},
		Topic:  "t",
	}
	require.Equal(t, PublishTimeout, p.Publish(ctx, &Response{}))

	broken := errors.New("broken")
	p.Client = &fakeClient{token: &fakeToken{done: true, err: broken}}
	require.Equal(t, broken, p.Publish(ctx, &Response{}))

	// A failed publish doesn't fail the run.
	s := NewService()
	s.Publisher = p
	resp, err := s.Run(ctx, &Request{
		Composition: composition(t, "sum.json"),
	})
	require.NoError(t, err)
	require.Equal(t, "Done", resp.StoppedBecause)
}
