// Package nats implements the message queue port using NATS JetStream.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/ProposalForge/internal/logger"
	"github.com/Strob0t/ProposalForge/internal/port/messagequeue"
)

const (
	streamName      = "PROPOSALFORGE"
	headerRequestID = "X-Request-ID"
)

// Queue implements messagequeue.Queue using NATS JetStream.
type Queue struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and ensures the JetStream stream exists.
func Connect(ctx context.Context, url string) (*Queue, error) {
	nc, err := nats.Connect(url,
		nats.Name("proposalforge"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: messagequeue.StreamSubjects,
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Queue{nc: nc, js: js}, nil
}

// Publish validates data against the subject's schema and sends it. The
// request id of ctx travels as a message header.
func (q *Queue) Publish(ctx context.Context, subject string, data []byte) error {
	if err := messagequeue.Validate(subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	if id := logger.RequestID(ctx); id != "" {
		msg.Header.Set(headerRequestID, id)
	}

	if _, err := q.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// KeyValue opens or creates a JetStream KV bucket whose entries expire after ttl.
func (q *Queue) KeyValue(ctx context.Context, bucket string, ttl time.Duration) (jetstream.KeyValue, error) {
	kv, err := q.js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("jetstream kv %s: %w", bucket, err)
	}
	return kv, nil
}

// Drain flushes pending publishes and closes the connection.
func (q *Queue) Drain() error {
	if err := q.nc.Drain(); err != nil {
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}

// Close shuts down the NATS connection.
func (q *Queue) Close() error {
	q.nc.Close()
	return nil
}

// IsConnected reports whether the underlying connection is up.
func (q *Queue) IsConnected() bool {
	return q.nc.IsConnected()
}
