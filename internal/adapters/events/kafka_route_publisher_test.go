package events

import (
	"context"
	"encoding/json"
	"errors"
	"pathbuilder-service/internal/domain"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaRoutePublisher_PublishRouteSaved(t *testing.T) {
	w := &fakeWriter{}
	fixed := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	p := &KafkaRoutePublisher{writer: w, now: func() time.Time { return fixed }}

	route := domain.RouteRecord{
		ID:                   42,
		Name:                 "Canal Path",
		Mode:                 domain.ModeWalk,
		Difficulty:           domain.DifficultyModerate,
		DistanceMiles:        4.2,
		ElevationFeet:        120,
		EstimatedTimeMinutes: 84,
		Waypoints:            []domain.Waypoint{{}, {}, {}},
	}
	require.NoError(t, p.PublishRouteSaved(context.Background(), route))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "42", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, RouteSavedEvent, string(msg.Headers[0].Value))

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, RouteSavedEvent, env.Type)
	assert.Equal(t, EventSource, env.Source)
	assert.True(t, fixed.Equal(env.Time))
	assert.NotEmpty(t, env.ID)

	var data RouteSavedData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, int64(42), data.RouteID)
	assert.Equal(t, "walk", data.Mode)
	assert.Equal(t, "Moderate", data.Difficulty)
	assert.Equal(t, 3, data.WaypointCount)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaRoutePublisher_WriteError(t *testing.T) {
	p := &KafkaRoutePublisher{writer: &fakeWriter{err: errors.New("no brokers")}, now: time.Now}

	err := p.PublishRouteSaved(context.Background(), domain.RouteRecord{ID: 1})
	assert.ErrorContains(t, err, "no brokers")
}
