package mypublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/basketworks/basketapi/lib/myevents"
	"github.com/basketworks/basketapi/lib/mypubsub"
	"github.com/basketworks/basketapi/lib/mytime"
)

type publisher struct {
	enveloper enveloper
	pubsub    mypubsub.PubSub
}

func New(c context.Context, pubsub mypubsub.PubSub, nower mytime.Nower) (*publisher, func(), error) {
	return &publisher{
		enveloper: newEnveloper(nower),
		pubsub:    pubsub,
	}, func() {}, nil
}

func (p *publisher) CreateTopic(c context.Context, topicName string) error {
	return p.pubsub.CreateTopic(c, topicName)
}

func (p *publisher) Publish(c context.Context, topic string, event myevents.Event) error {
	envelope, err := p.enveloper.do(topic, event)
	if err != nil {
		return fmt.Errorf("error creating envelope: %s", err)
	}

	jsonBytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("error serializing envelope: %s", err)
	}

	err = p.pubsub.Publish(c, envelope.Topic, string(jsonBytes))
	if err != nil {
		return fmt.Errorf("error publishing event %s: %s", envelope.UID, err)
	}

	log.Printf("Published event %s.%s on topic %s", envelope.EventTypeName, envelope.AggregateUID, envelope.Topic)

	return nil
}
