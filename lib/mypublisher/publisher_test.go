package mypublisher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/basketworks/basketapi/lib/mypubsub"
	"github.com/basketworks/basketapi/lib/mytime"
)

type itemAdded struct {
	UserUID    string
	ProductUID string
	Quantity   int
}

func (e itemAdded) GetEventTypeName() string {
	return "basket.item.added"
}

func (e itemAdded) GetAggregateName() string {
	return e.UserUID
}

func TestPublish(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := context.TODO()
	nower := mytime.NewMockNower(ctrl)
	nower.EXPECT().Now().Return(mytime.ExampleTime)
	pubsub := mypubsub.NewMockPubSub(ctrl)
	pubsub.EXPECT().Publish(c, "basket", gomock.Any()).Return(nil)

	sut, cleanup, err := New(c, pubsub, nower)
	assert.NoError(t, err)
	defer cleanup()

	err = sut.Publish(c, "basket", itemAdded{UserUID: "123", ProductUID: "456", Quantity: 1})
	assert.NoError(t, err)
}

func TestEnvelopeIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	nower := mytime.NewMockNower(ctrl)
	nower.EXPECT().Now().Return(mytime.ExampleTime).Times(3)
	sut := newEnveloper(nower)

	event := itemAdded{UserUID: "123", ProductUID: "456", Quantity: 1}

	first, err := sut.do("basket", event)
	assert.NoError(t, err)
	second, err := sut.do("basket", event)
	assert.NoError(t, err)

	// same event yields the same uid, so redeliveries can be deduplicated
	assert.Equal(t, first.UID, second.UID)
	assert.Equal(t, "basket", first.Topic)
	assert.Equal(t, "123", first.AggregateUID)
	assert.Equal(t, "basket.item.added", first.EventTypeName)
	assert.Equal(t, mytime.ExampleTime, first.CreatedAt)

	// a different event yields a different uid
	other, err := sut.do("basket", itemAdded{UserUID: "123", ProductUID: "456", Quantity: 2})
	assert.NoError(t, err)
	assert.NotEqual(t, first.UID, other.UID)
}
