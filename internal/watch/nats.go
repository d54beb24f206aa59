package watch

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/config"
	ferrors "github.com/LinhMuks-DFox/Smart-Latex/internal/foundation/errors"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/logfields"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/watch/events"
)

// NATSPublisher forwards build completions to a NATS subject so external
// systems (CI dashboards, notification bots) can react to builds without
// polling the status server.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to the configured NATS server. Call Close when
// the daemon shuts down.
func NewNATSPublisher(cfg config.NATSSettings) (*NATSPublisher, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("smartlatex-watch"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "connect to NATS").
			WithContext("url", cfg.URL).Retryable().Build()
	}
	slog.Info("NATS publisher connected", slog.String("subject", cfg.Subject))
	return &NATSPublisher{conn: conn, subject: cfg.Subject}, nil
}

// Consume publishes every build completion until ctx is canceled. Publish
// failures are logged, never fatal: the build loop does not depend on the
// event sink.
func (p *NATSPublisher) Consume(ctx context.Context, bus *events.Bus) {
	ch, unsubscribe := events.Subscribe[events.BuildCompleted](bus, 8)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(statusPayload(&evt))
			if err != nil {
				continue
			}
			if err := p.conn.Publish(p.subject, payload); err != nil {
				slog.Warn("publish build event", logfields.Error(err))
			}
		}
	}
}

func (p *NATSPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}
