package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"es1090/internal/adsb"
)

// DefaultSubject is the subject messages are published on when none is
// configured. The message kind is appended: es1090.messages.<kind>.
const DefaultSubject = "es1090.messages"

// Conn is the part of *nats.Conn used by NATSPublisher.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes every decoded message as a JSON Envelope.
type NATSPublisher struct {
	conn      Conn
	subject   string
	sessionID string
	logger    *logrus.Logger
	now       func() time.Time
	published uint64
}

// ConnectNATS dials url and returns a publisher on subject.
func ConnectNATS(url, subject, sessionID string, logger *logrus.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("es1090-"+sessionID),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.WithError(err).Warn("Disconnected from NATS")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.WithField("url", c.ConnectedUrl()).Info("Reconnected to NATS")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"url":     nc.ConnectedUrl(),
		"subject": subject,
	}).Info("Connected to NATS")
	return NewNATSPublisher(nc, subject, sessionID, logger), nil
}

// NewNATSPublisher returns a publisher over an established connection.
func NewNATSPublisher(conn Conn, subject, sessionID string, logger *logrus.Logger) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{
		conn:      conn,
		subject:   subject,
		sessionID: sessionID,
		logger:    logger,
		now:       time.Now,
	}
}

// Publish sends msg on <subject>.<kind>.
func (p *NATSPublisher) Publish(msg adsb.Message) error {
	env := NewEnvelope(p.sessionID, msg, p.now())
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := p.conn.Publish(p.subject+"."+env.Kind, data); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	p.published++
	return nil
}

// Published is the number of messages handed to the connection.
func (p *NATSPublisher) Published() uint64 { return p.published }

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close(ctx context.Context) error {
	defer p.conn.Close()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush NATS connection: %w", err)
	}
	return nil
}
