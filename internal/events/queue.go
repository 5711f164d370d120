package events

import (
	"context"

	log "github.com/sirupsen/logrus"

	"launchpad/internal/launchpad"
)

// Publisher is the message transport behind a Queue
type Publisher interface {
	Publish(queueName string, message interface{}) error
}

// Queue forwards committed events to a message queue. Publish never blocks the
// caller: events are buffered and a full buffer drops the event with a warning.
type Queue struct {
	name   string
	pub    Publisher
	events chan launchpad.Event
	log    *log.Entry
}

func NewQueue(name string, pub Publisher, buffer int) *Queue {
	return &Queue{
		name:   name,
		pub:    pub,
		events: make(chan launchpad.Event, buffer),
		log:    log.WithField("component", "event-queue"),
	}
}

func (q *Queue) Publish(ev launchpad.Event) {
	if ev.Kind == launchpad.EventCommandRejected {
		return
	}
	select {
	case q.events <- ev:
	default:
		q.log.WithField("kind", ev.Kind).Warn("event buffer full, dropping event")
	}
}

// Run publishes buffered events until ctx is done, then drains what is left
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-q.events:
			q.send(ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-q.events:
					q.send(ev)
				default:
					return nil
				}
			}
		}
	}
}

func (q *Queue) send(ev launchpad.Event) {
	if err := q.pub.Publish(q.name, ev); err != nil {
		q.log.WithFields(log.Fields{"kind": ev.Kind, "op": ev.Op}).Errorf("publish event: %v", err)
	}
}
