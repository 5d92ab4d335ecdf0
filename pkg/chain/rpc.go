package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// RPCClient talks JSON-RPC 2.0 to a Sui fullnode. Read-only: it implements
// Querier and nothing else.
type RPCClient struct {
	url    string
	hc     *http.Client
	log    *zap.Logger
	nextID atomic.Int64
}

func NewRPCClient(url string, logger *zap.Logger) *RPCClient {
	return &RPCClient{
		url: url,
		hc:  &http.Client{Timeout: 15 * time.Second},
		log: logger,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *RPCClient) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: fullnode returned %s", method, resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", method, err)
	}

	var envelope rpcResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%s: rpc error %d: %s", method, envelope.Error.Code, envelope.Error.Message)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
	}
	return nil
}

// Wire shapes for object queries. Owner may be an address owner, a shared
// object marker, or a string; only AddressOwner matters to this client.
type objectOwner struct {
	AddressOwner string `json:"AddressOwner"`
}

type objectData struct {
	ObjectID string          `json:"objectId"`
	Version  string          `json:"version"`
	Type     string          `json:"type"`
	Owner    json.RawMessage `json:"owner"`
	Content  map[string]any  `json:"content"`
}

type objectEnvelope struct {
	Data *objectData `json:"data"`
}

type ownedObjectsPage struct {
	Data []objectEnvelope `json:"data"`
}

func (d *objectData) toObject() Object {
	obj := Object{
		ObjectID: d.ObjectID,
		Version:  d.Version,
		Type:     d.Type,
		Content:  d.Content,
	}
	var owner objectOwner
	if len(d.Owner) > 0 && json.Unmarshal(d.Owner, &owner) == nil {
		obj.Owner = owner.AddressOwner
	}
	return obj
}

// GetOwnedObjects lists objects owned by an address, filtered by struct type.
func (c *RPCClient) GetOwnedObjects(ctx context.Context, owner, structType string) ([]Object, error) {
	query := map[string]any{
		"filter": map[string]any{"StructType": structType},
		"options": map[string]any{
			"showContent": true,
			"showType":    true,
			"showOwner":   true,
		},
	}

	var page ownedObjectsPage
	if err := c.call(ctx, "suix_getOwnedObjects", []any{owner, query}, &page); err != nil {
		return nil, err
	}

	objects := make([]Object, 0, len(page.Data))
	for _, env := range page.Data {
		if env.Data == nil || env.Data.Content == nil {
			continue
		}
		objects = append(objects, env.Data.toObject())
	}
	c.log.Debug("owned objects fetched",
		zap.String("owner", owner),
		zap.String("type", structType),
		zap.Int("count", len(objects)))
	return objects, nil
}

// GetObject fetches a single object by id.
func (c *RPCClient) GetObject(ctx context.Context, objectID string) (*Object, error) {
	options := map[string]any{
		"showContent": true,
		"showType":    true,
		"showOwner":   true,
	}

	var env objectEnvelope
	if err := c.call(ctx, "sui_getObject", []any{objectID, options}, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, fmt.Errorf("object %s not found", objectID)
	}
	obj := env.Data.toObject()
	return &obj, nil
}

var _ Querier = (*RPCClient)(nil)
