// Package chain is the thin read side of the Sui fullnode interface: owned
// object queries over JSON-RPC and module event subscription over WebSocket.
// Transaction signing and submission belong to the wallet collaborator and
// only appear here as the Executor seam.
package chain

import "context"

// Object is a loosely-typed on-chain object as returned by the fullnode.
// Content is the raw Move struct JSON; domain packages extract fields from
// it defensively.
type Object struct {
	ObjectID string
	Version  string
	Owner    string
	Type     string
	Content  map[string]any
}

// Querier is the read-only query surface the order service needs.
type Querier interface {
	// GetOwnedObjects lists objects owned by an address, filtered by Move
	// struct type (e.g. "<pkg>::orlim::OrderReceipt").
	GetOwnedObjects(ctx context.Context, owner, structType string) ([]Object, error)
	// GetObject fetches a single object by id.
	GetObject(ctx context.Context, objectID string) (*Object, error)
}

// RawEvent is one module event notification before classification.
type RawEvent struct {
	// Type is the full event type tag,
	// e.g. "<pkg>::orlim::OrderPlacedEvent".
	Type string
	// ParsedJSON is the event payload as emitted by the contract.
	ParsedJSON map[string]any
	// TimestampMs is the chain timestamp, zero when absent.
	TimestampMs int64
}
