package orlim

import (
	"encoding/json"
	"strconv"

	"github.com/orlim-labs/orlim-go/pkg/chain"
)

// Receipt objects have shipped with two field layouts: the current one with
// fields at the top level, and a legacy one nesting them under an
// "order_data" wrapper. Extraction tries each source in order and falls back
// to a safe zero value, so reconciliation never fails on a layout change.

// fieldSource locates a named field in a receipt's content fields.
type fieldSource func(fields map[string]any, name string) (any, bool)

func directField(fields map[string]any, name string) (any, bool) {
	v, ok := fields[name]
	return v, ok
}

func wrappedField(fields map[string]any, name string) (any, bool) {
	wrapper, ok := fields["order_data"].(map[string]any)
	if !ok {
		return nil, false
	}
	inner, ok := wrapper["fields"].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := inner[name]
	return v, ok
}

// fieldSources is the ordered fallback chain: direct layout first, then the
// legacy wrapper.
var fieldSources = []fieldSource{directField, wrappedField}

func lookup(fields map[string]any, name string) (any, bool) {
	for _, src := range fieldSources {
		if v, ok := src(fields, name); ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// asUint coerces the JSON encodings Sui uses for u64 (decimal string,
// number) into a uint64.
func asUint(v any) (uint64, bool) {
	switch n := v.(type) {
	case string:
		u, err := strconv.ParseUint(n, 10, 64)
		return u, err == nil
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		return u, err == nil
	default:
		return 0, false
	}
}

func uintField(fields map[string]any, name string, def uint64) uint64 {
	if v, ok := lookup(fields, name); ok {
		if u, ok := asUint(v); ok {
			return u
		}
	}
	return def
}

func optionalUintField(fields map[string]any, name string) *uint64 {
	if v, ok := lookup(fields, name); ok {
		if u, ok := asUint(v); ok {
			return &u
		}
	}
	return nil
}

func boolField(fields map[string]any, name string, def bool) bool {
	if v, ok := lookup(fields, name); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func stringField(fields map[string]any, name string, def string) string {
	if v, ok := lookup(fields, name); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// enumField reads the contract's enum encoding: either a bare number or a
// struct like {"fields": {"value": 1}} (sometimes without the inner
// "fields" level).
func enumField(fields map[string]any, name string, def uint8) uint8 {
	v, ok := lookup(fields, name)
	if !ok {
		return def
	}
	if u, ok := asUint(v); ok {
		return uint8(u)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return def
	}
	if inner, ok := m["fields"].(map[string]any); ok {
		m = inner
	}
	if u, ok := asUint(m["value"]); ok {
		return uint8(u)
	}
	return def
}

// ParseReceiptData extracts OrderReceiptData from an object's raw content.
// Returns false when the content carries no Move fields at all.
func ParseReceiptData(content map[string]any) (ReceiptData, bool) {
	if content == nil {
		return ReceiptData{}, false
	}
	fields, ok := content["fields"].(map[string]any)
	if !ok {
		return ReceiptData{}, false
	}

	return ReceiptData{
		OrderID:          uintField(fields, "order_id", 0),
		DeepBookOrderID:  uintField(fields, "deepbook_order_id", 0),
		PoolID:           stringField(fields, "pool_id", ""),
		Price:            uintField(fields, "price", 0),
		Quantity:         uintField(fields, "quantity", 0),
		OriginalQuantity: uintField(fields, "original_quantity", 0),
		IsBid:            boolField(fields, "is_bid", false),
		OrderType:        OrderType(enumField(fields, "order_type", 0)),
		TimeInForce:      TimeInForce(enumField(fields, "time_in_force", 0)),
		CreatedAt:        uintField(fields, "created_at", 0),
		IsActive:         boolField(fields, "is_active", true),
		IsFullyFilled:    boolField(fields, "is_fully_filled", false),
		CancelledAt:      optionalUintField(fields, "cancelled_at"),
		OCOGroupID:       optionalUintField(fields, "oco_group_id"),
		ExpiresAt:        optionalUintField(fields, "expires_at"),
	}, true
}

// Reconcile merges raw owned objects into the derived receipt list. Objects
// without parseable receipt content are skipped. Idempotent and side-effect
// free; safe to re-run on every poll tick or event notification.
func Reconcile(objects []chain.Object) []Receipt {
	receipts := make([]Receipt, 0, len(objects))
	for _, obj := range objects {
		data, ok := ParseReceiptData(obj.Content)
		if !ok {
			continue
		}
		receipts = append(receipts, Receipt{
			ObjectID: obj.ObjectID,
			Owner:    obj.Owner,
			Version:  obj.Version,
			Data:     data,
		})
	}
	return receipts
}

// ActiveReceipts returns the subset eligible for cancellation actions:
// active and not fully filled.
func ActiveReceipts(receipts []Receipt) []Receipt {
	active := make([]Receipt, 0, len(receipts))
	for _, r := range receipts {
		if r.Data.IsActive && !r.Data.IsFullyFilled {
			active = append(active, r)
		}
	}
	return active
}

// GroupByType partitions receipts on the order-kind discriminator.
func GroupByType(receipts []Receipt) map[OrderType][]Receipt {
	groups := make(map[OrderType][]Receipt)
	for _, r := range receipts {
		groups[r.Data.OrderType] = append(groups[r.Data.OrderType], r)
	}
	return groups
}

// ParseManagerData extracts OrderManager fields from an object's content.
func ParseManagerData(content map[string]any) (ManagerData, bool) {
	if content == nil {
		return ManagerData{}, false
	}
	fields, ok := content["fields"].(map[string]any)
	if !ok {
		return ManagerData{}, false
	}

	data := ManagerData{
		Owner:              stringField(fields, "owner", ""),
		TotalOrdersCreated: uintField(fields, "total_orders_created", 0),
		IsPaused:           boolField(fields, "is_paused", false),
		CreatedAt:          uintField(fields, "created_at", 0),
	}
	if raw, ok := lookup(fields, "active_orders"); ok {
		if list, ok := raw.([]any); ok {
			for _, item := range list {
				if u, ok := asUint(item); ok {
					data.ActiveOrders = append(data.ActiveOrders, u)
				}
			}
		}
	}
	return data, true
}
