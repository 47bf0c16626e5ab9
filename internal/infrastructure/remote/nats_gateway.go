// Package remote delivers outbox payloads to the system of record over
// NATS request/reply. Every call is bounded by the configured timeout so
// one stalled delivery cannot stall the whole flush pass.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"faultline/internal/domain/defect"
	"faultline/internal/errs"
	"faultline/internal/ports"
)

type Config struct {
	URL           string
	SubjectPrefix string
	Timeout       time.Duration
}

// NATSGateway connects lazily on first delivery so commands that never
// flush the outbox do not require a reachable broker.
type NATSGateway struct {
	cfg Config

	mu   sync.Mutex
	conn *nats.Conn
}

var _ ports.RemoteGateway = (*NATSGateway)(nil)

func NewNATSGateway(cfg Config) *NATSGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &NATSGateway{cfg: cfg}
}

func (g *NATSGateway) CreateDefect(ctx context.Context, payload []byte) error {
	return g.request(ctx, "createDefect", payload)
}

func (g *NATSGateway) UpdateDefect(ctx context.Context, payload []byte) error {
	return g.request(ctx, "updateDefect", payload)
}

func (g *NATSGateway) DeleteDefect(ctx context.Context, payload []byte) error {
	return g.request(ctx, "deleteDefect", payload)
}

func (g *NATSGateway) CloseDefect(ctx context.Context, payload []byte) error {
	return g.request(ctx, "closeDefect", payload)
}

func (g *NATSGateway) ReopenDefect(ctx context.Context, payload []byte) error {
	return g.request(ctx, "reopenDefect", payload)
}

func (g *NATSGateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.conn != nil {
		g.conn.Close()
		g.conn = nil
	}
}

type ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (g *NATSGateway) request(ctx context.Context, op string, payload []byte) error {
	conn, err := g.connection()
	if err != nil {
		return fmt.Errorf("%w: %v", defect.ErrDeliveryFailed, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	subject := g.cfg.SubjectPrefix + "." + op
	msg, err := conn.RequestWithContext(reqCtx, subject, payload)
	if err != nil {
		return fmt.Errorf("%w: request %s: %v", defect.ErrDeliveryFailed, subject, err)
	}

	var reply ack
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return errs.Wrapf(fmt.Errorf("%w: malformed reply on %s", defect.ErrDeliveryFailed, subject), "decode reply")
	}
	if !reply.OK {
		return fmt.Errorf("%w: %s rejected: %s", defect.ErrDeliveryFailed, subject, reply.Error)
	}
	return nil
}

func (g *NATSGateway) connection() (*nats.Conn, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.conn != nil && g.conn.IsConnected() {
		return g.conn, nil
	}
	if g.conn != nil {
		g.conn.Close()
		g.conn = nil
	}

	conn, err := nats.Connect(
		g.cfg.URL,
		nats.Timeout(g.cfg.Timeout),
		nats.RetryOnFailedConnect(false),
	)
	if err != nil {
		return nil, errs.Wrapf(err, "connect %s", g.cfg.URL)
	}
	g.conn = conn
	return conn, nil
}
