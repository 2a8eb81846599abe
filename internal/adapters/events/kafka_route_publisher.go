package events

import (
	"context"
	"encoding/json"
	"fmt"
	"pathbuilder-service/internal/domain"
	"pathbuilder-service/internal/platform/obs"
	"strconv"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	EventSource     = "pathbuilder-service"
	RouteSavedEvent = "route.saved"
)

// Envelope wraps every event published by the service.
type Envelope struct {
	ID     string          `json:"id"`
	Source string          `json:"source"`
	Type   string          `json:"type"`
	Time   time.Time       `json:"time"`
	Data   json.RawMessage `json:"data"`
}

type RouteSavedData struct {
	RouteID              int64   `json:"route_id"`
	Name                 string  `json:"name"`
	Mode                 string  `json:"mode"`
	Difficulty           string  `json:"difficulty"`
	DistanceMiles        float64 `json:"distance_miles"`
	ElevationFeet        float64 `json:"elevation_feet"`
	EstimatedTimeMinutes int     `json:"estimated_time_minutes"`
	WaypointCount        int     `json:"waypoint_count"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaRoutePublisher announces saved routes on a Kafka topic.
type KafkaRoutePublisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewKafkaRoutePublisher(brokers []string, topic string) *KafkaRoutePublisher {
	return &KafkaRoutePublisher{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		},
		now: time.Now,
	}
}

func (p *KafkaRoutePublisher) PublishRouteSaved(ctx context.Context, route domain.RouteRecord) (err error) {
	defer obs.Time(ctx, "events.kafka.PublishRouteSaved")(&err)

	msg, err := p.routeSavedMessage(route)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish route saved id=%d: %w", route.ID, err)
	}
	return nil
}

func (p *KafkaRoutePublisher) routeSavedMessage(route domain.RouteRecord) (kafkago.Message, error) {
	data, err := json.Marshal(RouteSavedData{
		RouteID:              route.ID,
		Name:                 route.Name,
		Mode:                 string(route.Mode),
		Difficulty:           string(route.Difficulty),
		DistanceMiles:        route.DistanceMiles,
		ElevationFeet:        route.ElevationFeet,
		EstimatedTimeMinutes: route.EstimatedTimeMinutes,
		WaypointCount:        len(route.Waypoints),
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("encode route saved data: %w", err)
	}

	value, err := json.Marshal(Envelope{
		ID:     uuid.NewString(),
		Source: EventSource,
		Type:   RouteSavedEvent,
		Time:   p.now().UTC(),
		Data:   data,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("encode route saved envelope: %w", err)
	}

	return kafkago.Message{
		Key:   []byte(strconv.FormatInt(route.ID, 10)),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "type", Value: []byte(RouteSavedEvent)},
		},
	}, nil
}

func (p *KafkaRoutePublisher) Close() error {
	return p.writer.Close()
}
