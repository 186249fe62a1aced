package events

import (
	"OFTester/internal/config"
	"OFTester/internal/model"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Publisher broadcasts scenario lifecycle events to a NATS subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(cfg config.EventsConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.NATSURL, nats.Name("of-tester"))
	if err != nil {
		return nil, err
	}
	log.Infof("Connected to NATS server at %s", cfg.NATSURL)
	return &Publisher{nc: nc, subject: cfg.Subject}, nil
}

// Publish encodes an event and publishes it to the configured subject.
func (p *Publisher) Publish(ev model.Event) error {
	data, err := Encode(ev)
	if err != nil {
		return err
	}
	return p.nc.Publish(p.subject, data)
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		log.Info("NATS connection drained and closed.")
	}
}

var _ model.Publisher = (*Publisher)(nil)
