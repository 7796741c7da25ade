// Package relay forwards committed domain events to an external broker so
// integrations (receipt printers, analytics) can follow the floor without
// polling the API.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tableside/api/internal/config"
	"github.com/tableside/api/internal/events"
)

const (
	defaultBuffer = 512
	sendTimeout   = 5 * time.Second
)

// Message is one event as it goes on the wire.
type Message struct {
	Key  string
	Type string
	Body []byte
}

// Sink delivers messages to a broker.
type Sink interface {
	Send(ctx context.Context, m Message) error
	Close() error
}

// Relay queues events from the bus and hands them to a Sink on its own
// goroutine, so a slow broker never holds up a request.
type Relay struct {
	sink  Sink
	queue chan events.Event
}

func New(sink Sink, buffer int) *Relay {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Relay{sink: sink, queue: make(chan events.Event, buffer)}
}

// Handle is the bus subscriber. It never blocks; a full queue drops the event.
func (r *Relay) Handle(ctx context.Context, e events.Event) {
	select {
	case r.queue <- e:
	default:
		log.WithField("event", e.Type).Warn("relay queue full, event dropped")
	}
}

// Run sends queued events until ctx is cancelled, then closes the sink.
func (r *Relay) Run(ctx context.Context) {
	defer func() {
		if err := r.sink.Close(); err != nil {
			log.Errorf("close relay sink: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-r.queue:
			r.forward(ctx, e)
		}
	}
}

func (r *Relay) forward(ctx context.Context, e events.Event) {
	m, err := Encode(e)
	if err != nil {
		log.WithField("event", e.Type).Errorf("encode relay message: %v", err)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := r.sink.Send(sendCtx, m); err != nil {
		log.WithField("event", e.Type).Errorf("relay send: %v", err)
	}
}

// Encode renders an event as a relay message keyed by table number.
func Encode(e events.Event) (Message, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return Message{}, err
	}
	m := Message{Type: string(e.Type), Body: body}
	if e.TableNumber > 0 {
		m.Key = strconv.Itoa(int(e.TableNumber))
	}
	return m, nil
}

// Open builds the sink selected by RELAY_DRIVER. It returns nil when the
// relay is disabled.
func Open(cfg *config.Config) (Sink, error) {
	switch cfg.RelayDriver {
	case config.RelayDriverNone, "":
		return nil, nil
	case config.RelayDriverKafka:
		return NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case config.RelayDriverAMQP:
		sink, err := DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, err
		}
		return sink, nil
	}
	return nil, fmt.Errorf("unknown relay driver %q", cfg.RelayDriver)
}
