package events

import (
	"OFTester/internal/config"
	"OFTester/internal/model"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Handler processes a received event.
type Handler func(ev model.Event)

// Subscriber receives scenario lifecycle events from a NATS subject.
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
}

// NewSubscriber creates a new NATS subscriber.
func NewSubscriber(cfg config.EventsConfig) (*Subscriber, error) {
	nc, err := nats.Connect(cfg.NATSURL, nats.Name("of-tester-watch"))
	if err != nil {
		return nil, err
	}
	log.Infof("Connected to NATS server at %s", cfg.NATSURL)
	return &Subscriber{nc: nc, subject: cfg.Subject}, nil
}

// Start subscribes and hands every decoded event to handler. Undecodable
// messages are logged and dropped.
func (s *Subscriber) Start(handler Handler) error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		ev, err := Decode(msg.Data)
		if err != nil {
			log.Warnf("Dropping event on %s: %v", msg.Subject, err)
			return
		}
		handler(ev)
	})
	if err != nil {
		return err
	}
	s.sub = sub
	log.Infof("Subscribed to '%s'. Waiting for events...", s.subject)
	return nil
}

// Close unsubscribes and closes the NATS connection.
func (s *Subscriber) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
		log.Info("NATS connection closed.")
	}
}
