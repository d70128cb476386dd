// Package notify publishes build-completed events so downstream deployers can
// pick up a finished output tree.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
	"git.home.luguber.info/inful/fundsite/internal/logfields"
)

// BuildCompleted is published after every build, successful or not.
type BuildCompleted struct {
	BuildID     string    `json:"build_id"`
	Outcome     string    `json:"outcome"`
	OutputDir   string    `json:"output_dir"`
	Pages       int       `json:"pages"`
	SitemapURLs int       `json:"sitemap_urls"`
	Errors      int       `json:"errors"`
	Warnings    int       `json:"warnings"`
	DurationMS  int64     `json:"duration_ms"`
	Trigger     string    `json:"trigger,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher delivers build events.
type Publisher interface {
	PublishBuild(ctx context.Context, ev BuildCompleted) error
	Close()
}

// Noop discards events.
type Noop struct{}

func (Noop) PublishBuild(context.Context, BuildCompleted) error { return nil }
func (Noop) Close()                                             {}

// NATSPublisher publishes events as JSON on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// Connect dials url and returns a publisher for subject.
func Connect(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("fundsite"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3))
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryNotify, "failed to connect to NATS").
			Retryable().WithContext("url", url).Build()
	}
	slog.Info("NATS publisher connected", logfields.URL(url), slog.String("subject", subject))
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// PublishBuild publishes ev and flushes within ctx's deadline (5s if none).
func (p *NATSPublisher) PublishBuild(ctx context.Context, ev BuildCompleted) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "failed to marshal build event").Build()
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryNotify, "failed to publish build event").
			Retryable().WithContext("subject", p.subject).Build()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryNotify, "failed to flush build event").
			Retryable().WithContext("subject", p.subject).Build()
	}
	slog.Debug("Published build event", logfields.BuildID(ev.BuildID), slog.String("outcome", ev.Outcome))
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}
