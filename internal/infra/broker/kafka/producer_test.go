package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducerPublishesKeyedMessage(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "bk_1" {
			return errors.New("unexpected key " + string(key))
		}
		if msg.Topic != "booking.events.v1" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		if len(msg.Headers) != 1 || string(msg.Headers[0].Key) != "content-type" {
			return errors.New("headers not forwarded")
		}
		return nil
	})
	p := NewProducerWith(sp)

	err := p.Publish(context.Background(), "booking.events.v1", "bk_1", []byte(`{}`), map[string]string{"content-type": "application/cloudevents+json"})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestProducerWrapsFailures(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	p := NewProducerWith(sp)

	err := p.Publish(context.Background(), "booking.events.v1", "bk_1", []byte(`{}`), nil)
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	assert.Contains(t, err.Error(), "booking.events.v1")
	require.NoError(t, p.Close())
}
