package badgerdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/0xYaper/Portal/internal/core/domain"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const eventStoreDir = "events"

type subscriber struct {
	topic   string
	handler func(events []domain.Event)
}

// eventRepository appends events to a badger-backed log and dispatches them
// synchronously to in-process subscribers.
type eventRepository struct {
	store *badgerhold.Store

	subscribers    map[string][]subscriber
	subscriberLock *sync.Mutex
}

type eventDTO struct {
	Id        string
	Topic     string
	Type      string
	Payload   []byte
	CreatedAt int64
}

func NewEventRepository(config ...interface{}) (domain.EventRepository, error) {
	store, err := openStore(eventStoreDir, config...)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %s", err)
	}

	return &eventRepository{
		store:          store,
		subscribers:    make(map[string][]subscriber),
		subscriberLock: &sync.Mutex{},
	}, nil
}

func (e *eventRepository) Save(
	ctx context.Context, topic string, id string, events []domain.Event,
) error {
	now := time.Now().UnixNano()
	for i, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to serialize event: %w", err)
		}
		dto := eventDTO{
			Id:        fmt.Sprintf("%s:%d", id, i),
			Topic:     topic,
			Type:      string(event.Type()),
			Payload:   payload,
			CreatedAt: now,
		}
		if err := e.store.Insert(dto.Id, dto); err != nil {
			return fmt.Errorf("failed to store event: %w", err)
		}
	}

	e.dispatch(topic, events)
	return nil
}

func (e *eventRepository) RegisterEventsHandler(
	topic string, handler func(events []domain.Event),
) {
	e.subscriberLock.Lock()
	defer e.subscriberLock.Unlock()

	e.subscribers[topic] = append(e.subscribers[topic], subscriber{
		topic:   topic,
		handler: handler,
	})
}

func (e *eventRepository) ClearRegisteredHandlers(topics ...string) {
	e.subscriberLock.Lock()
	defer e.subscriberLock.Unlock()

	if len(topics) == 0 {
		e.subscribers = make(map[string][]subscriber)
		return
	}
	for _, topic := range topics {
		delete(e.subscribers, topic)
	}
}

func (e *eventRepository) Close() {
	// nolint:all
	e.store.Close()
}

func (e *eventRepository) dispatch(topic string, events []domain.Event) {
	e.subscriberLock.Lock()
	subs := make([]subscriber, len(e.subscribers[topic]))
	copy(subs, e.subscribers[topic])
	e.subscriberLock.Unlock()

	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.WithField("topic", topic).Errorf("event handler panicked: %v", r)
				}
			}()
			sub.handler(events)
		}()
	}
}
