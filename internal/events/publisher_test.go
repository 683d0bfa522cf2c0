package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorderKeepsOrder(t *testing.T) {
	var r Recorder
	r.Publish(context.Background(), OrderPlaced, "p1", map[string]int{"quantity": 1})
	r.Publish(context.Background(), RatingChanged, "p1", nil)

	assert.Equal(t, []string{OrderPlaced, RatingChanged}, r.Types())
	assert.Equal(t, "p1", r.Events()[0].Key)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	p.Publish(context.Background(), ProductDeleted, "p1", nil)
	assert.NoError(t, p.Close())
}

func TestKafkaPublisherConfig(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "catalog-events")
	assert.Equal(t, "catalog-events", p.writer.Topic)
	assert.Equal(t, "localhost:9092", p.writer.Addr.String())
	assert.NoError(t, p.Close())
}
