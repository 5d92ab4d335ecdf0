package chain

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// EventSubscriber maintains a WebSocket subscription to module events from
// the Orlim package and delivers them on a channel. Connection loss is
// handled by reconnecting with a capped backoff; missed events are tolerated
// because every event only triggers an idempotent state refetch.
type EventSubscriber struct {
	wsURL     string
	packageID string
	module    string
	log       *zap.Logger

	events chan RawEvent
}

func NewEventSubscriber(wsURL, packageID, module string, logger *zap.Logger) *EventSubscriber {
	return &EventSubscriber{
		wsURL:     wsURL,
		packageID: packageID,
		module:    module,
		log:       logger,
		events:    make(chan RawEvent, 64),
	}
}

// Events returns the delivery channel. Closed when Run returns.
func (s *EventSubscriber) Events() <-chan RawEvent { return s.events }

// Run connects and reads events until the context is cancelled.
func (s *EventSubscriber) Run(ctx context.Context) {
	defer close(s.events)

	backoff := time.Second
	for {
		if err := s.readLoop(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn("event subscription dropped", zap.Error(err), zap.Duration("retry_in", backoff))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (s *EventSubscriber) readLoop(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Close the socket when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	sub := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "suix_subscribeEvent",
		"params": []any{
			map[string]any{
				"MoveModule": map[string]any{
					"package": s.packageID,
					"module":  s.module,
				},
			},
		},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}
	s.log.Info("subscribed to module events",
		zap.String("package", s.packageID),
		zap.String("module", s.module))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		ev, ok := parseEventNotification(message)
		if !ok {
			continue
		}
		select {
		case s.events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Receiver is behind; drop rather than block the read loop.
			s.log.Warn("event channel full, dropping event", zap.String("type", ev.Type))
		}
	}
}

// eventNotification is the suix_subscribeEvent push shape.
type eventNotification struct {
	Method string `json:"method"`
	Params struct {
		Result struct {
			Type        string         `json:"type"`
			ParsedJSON  map[string]any `json:"parsedJson"`
			TimestampMs string         `json:"timestampMs"`
		} `json:"result"`
	} `json:"params"`
}

func parseEventNotification(message []byte) (RawEvent, bool) {
	var note eventNotification
	if err := json.Unmarshal(message, &note); err != nil {
		return RawEvent{}, false
	}
	if note.Params.Result.Type == "" {
		// Subscription confirmations and pings have no event payload.
		return RawEvent{}, false
	}
	ev := RawEvent{
		Type:       note.Params.Result.Type,
		ParsedJSON: note.Params.Result.ParsedJSON,
	}
	if ts, err := strconv.ParseInt(note.Params.Result.TimestampMs, 10, 64); err == nil {
		ev.TimestampMs = ts
	}
	return ev, true
}
