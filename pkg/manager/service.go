// Package manager drives the order lifecycle: it discovers the user's
// OrderManager object, polls owned receipts into a local view, and turns
// validated order intents into signed transactions.
package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/orlim-labs/orlim-go/pkg/chain"
	"github.com/orlim-labs/orlim-go/pkg/market"
	"github.com/orlim-labs/orlim-go/pkg/orlim"
	"github.com/orlim-labs/orlim-go/pkg/units"
	"github.com/orlim-labs/orlim-go/pkg/util"
)

var (
	// ErrNoOrderManager means the account has not run first-time setup yet.
	// Callers route this to the setup flow, not to an error toast.
	ErrNoOrderManager = errors.New("no order manager object for this account")
	// ErrManagerExists rejects a second setup attempt.
	ErrManagerExists = errors.New("order manager already exists")
	// ErrSubmissionInFlight rejects a new signing request while one is
	// pending. One wallet prompt at a time.
	ErrSubmissionInFlight = errors.New("another submission is in flight")
)

// Snapshotter persists the reconciled receipt set so the order list renders
// across restarts before the first poll completes.
type Snapshotter interface {
	SaveReceipts(owner string, receipts []orlim.Receipt) error
	LoadReceipts(owner string) ([]orlim.Receipt, error)
}

// Params wires the service's collaborators.
type Params struct {
	Querier   chain.Querier
	Executor  orlim.Executor
	Registry  *market.Registry
	PackageID string
	// Address is the account whose objects are polled.
	Address      string
	PollInterval time.Duration
	Snapshots    Snapshotter // optional
	Clock        util.Clock
	Logger       *zap.Logger
}

// Service owns the authoritative local view of the user's orders. All chain
// state flows in through polling and events; user actions flow out through
// the Executor. The service never mutates its view optimistically, a
// submission only triggers a refresh.
type Service struct {
	querier   chain.Querier
	executor  orlim.Executor
	builder   *orlim.Builder
	registry  *market.Registry
	packageID string
	address   string
	interval  time.Duration
	snapshots Snapshotter
	clock     util.Clock
	logger    *zap.Logger

	mu          sync.RWMutex
	managerID   string
	managerData orlim.ManagerData
	receipts    []orlim.Receipt

	events *orlim.EventLog

	// refresh coalesces poll ticks, event notifications, and manual refresh
	// requests into at most one pending sync.
	refresh  chan struct{}
	inFlight atomic.Bool
}

func NewService(p Params) *Service {
	s := &Service{
		querier:   p.Querier,
		executor:  p.Executor,
		builder:   orlim.NewBuilder(p.PackageID),
		registry:  p.Registry,
		packageID: p.PackageID,
		address:   p.Address,
		interval:  p.PollInterval,
		snapshots: p.Snapshots,
		clock:     p.Clock,
		logger:    p.Logger,
		events:    orlim.NewEventLog(),
		refresh:   make(chan struct{}, 1),
	}
	if s.clock == nil {
		s.clock = util.RealClock{}
	}
	if s.snapshots != nil {
		if cached, err := s.snapshots.LoadReceipts(s.address); err == nil && len(cached) > 0 {
			s.receipts = cached
		}
	}
	return s
}

func (s *Service) receiptType() string {
	return fmt.Sprintf("%s::%s::OrderReceipt", s.packageID, orlim.ModuleName)
}

func (s *Service) managerType() string {
	return fmt.Sprintf("%s::%s::OrderManager", s.packageID, orlim.ModuleName)
}

// Refresh requests an out-of-band sync. Coalesces with any pending request.
func (s *Service) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Run polls until the context is cancelled. The first sync happens
// immediately.
func (s *Service) Run(ctx context.Context) {
	for {
		if err := s.Sync(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("sync failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(s.interval):
		case <-s.refresh:
		}
	}
}

// Sync pulls the manager object and owned receipts and replaces the local
// view. The previous view survives a failed poll.
func (s *Service) Sync(ctx context.Context) error {
	if err := s.discoverManager(ctx); err != nil {
		return err
	}

	objects, err := s.querier.GetOwnedObjects(ctx, s.address, s.receiptType())
	if err != nil {
		return fmt.Errorf("failed to list receipts: %w", err)
	}
	receipts := orlim.Reconcile(objects)

	s.mu.Lock()
	s.receipts = receipts
	s.mu.Unlock()

	if s.snapshots != nil {
		if err := s.snapshots.SaveReceipts(s.address, receipts); err != nil {
			s.logger.Warn("failed to snapshot receipts", zap.Error(err))
		}
	}
	return nil
}

// discoverManager locates the account's OrderManager object. Once found,
// the id is sticky; managers are never destroyed.
func (s *Service) discoverManager(ctx context.Context) error {
	s.mu.RLock()
	found := s.managerID != ""
	s.mu.RUnlock()
	if found {
		return s.refreshManagerData(ctx)
	}

	objects, err := s.querier.GetOwnedObjects(ctx, s.address, s.managerType())
	if err != nil {
		return fmt.Errorf("failed to look up order manager: %w", err)
	}
	if len(objects) == 0 {
		return nil
	}

	obj := objects[0]
	data, _ := orlim.ParseManagerData(obj.Content)

	s.mu.Lock()
	s.managerID = obj.ObjectID
	s.managerData = data
	s.mu.Unlock()

	s.logger.Info("discovered order manager", zap.String("object", obj.ObjectID))
	return nil
}

func (s *Service) refreshManagerData(ctx context.Context) error {
	s.mu.RLock()
	id := s.managerID
	s.mu.RUnlock()

	obj, err := s.querier.GetObject(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch order manager: %w", err)
	}
	if data, ok := orlim.ParseManagerData(obj.Content); ok {
		s.mu.Lock()
		s.managerData = data
		s.mu.Unlock()
	}
	return nil
}

// ManagerID returns the OrderManager object id, or ErrNoOrderManager before
// setup.
func (s *Service) ManagerID() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.managerID == "" {
		return "", ErrNoOrderManager
	}
	return s.managerID, nil
}

// Manager returns the last fetched manager state.
func (s *Service) Manager() (orlim.ManagerData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.managerData, s.managerID != ""
}

// Receipts returns a copy of the current receipt view.
func (s *Service) Receipts() []orlim.Receipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]orlim.Receipt, len(s.receipts))
	copy(out, s.receipts)
	return out
}

// ActiveReceipts returns the receipts eligible for cancellation.
func (s *Service) ActiveReceipts() []orlim.Receipt {
	return orlim.ActiveReceipts(s.Receipts())
}

// Grouped partitions the current receipts by order kind.
func (s *Service) Grouped() map[orlim.OrderType][]orlim.Receipt {
	return orlim.GroupByType(s.Receipts())
}

// Events returns the notification feed, newest first.
func (s *Service) Events() []orlim.Event {
	return s.events.List()
}

// HandleEvent feeds a raw chain event in. Events for this account land in
// the notification feed and trigger a refresh; everything else is dropped.
func (s *Service) HandleEvent(raw chain.RawEvent) {
	ev, ok := orlim.ClassifyEvent(raw)
	if !ok || !ev.IsForUser(s.address) {
		return
	}
	s.events.Append(ev)
	s.logger.Debug("order event",
		zap.String("kind", string(ev.Kind)),
		zap.Uint64("order", ev.OrderID),
	)
	s.Refresh()
}

// CreateOrderManager runs first-time setup.
func (s *Service) CreateOrderManager(ctx context.Context) (*orlim.ExecuteResult, error) {
	s.mu.RLock()
	exists := s.managerID != ""
	s.mu.RUnlock()
	if exists {
		return nil, ErrManagerExists
	}
	return s.submit(ctx, s.builder.CreateOrderManagerTx())
}

// PlaceOrder validates an intent against the selected pair and submits the
// placement. Validation failures are returned before any signing request is
// issued.
func (s *Service) PlaceOrder(ctx context.Context, intent market.OrderIntent) (*orlim.ExecuteResult, error) {
	pair, ok := s.registry.Selected()
	if !ok {
		return nil, errors.New("no trading pair selected")
	}
	if err := intent.Validate(); err != nil {
		return nil, err
	}
	if err := checkPairConstraints(intent, pair); err != nil {
		return nil, err
	}

	managerID, err := s.ManagerID()
	if err != nil {
		return nil, err
	}
	quantity, err := units.ToBaseUnits(intent.Quantity, pair.Base.Decimals)
	if err != nil {
		return nil, err
	}

	var tx *orlim.TxRequest
	switch intent.Kind {
	case market.KindStandard:
		tx, err = s.builder.PlaceOrderTx(orlim.PlaceOrderParams{
			OrderManager: managerID,
			PoolID:       pair.PoolID,
			Price:        intent.Price,
			Quantity:     quantity,
			IsBid:        intent.IsBid(),
		})
	case market.KindOCO:
		// Take-profit sells above, stop-loss sells below; both legs share
		// the quantity and the side.
		tx, err = s.builder.PlaceOCOOrderTx(orlim.PlaceOCOParams{
			OrderManager:   managerID,
			PoolID:         pair.PoolID,
			Order1Price:    intent.TakeProfitPrice,
			Order1Quantity: quantity,
			Order1IsBid:    intent.IsBid(),
			Order2Price:    intent.StopLossPrice,
			Order2Quantity: quantity,
			Order2IsBid:    intent.IsBid(),
		})
	case market.KindTIF:
		var tif orlim.TimeInForce
		if intent.TimeInForce == "FOK" {
			tif = orlim.FOK
		} else {
			tif = orlim.IOC
		}
		tx, err = s.builder.PlaceTIFOrderTx(orlim.PlaceTIFParams{
			OrderManager: managerID,
			PoolID:       pair.PoolID,
			Price:        intent.Price,
			Quantity:     quantity,
			IsBid:        intent.IsBid(),
			TIF:          tif,
			BaseCoin:     intent.BaseCoin,
			QuoteCoin:    intent.QuoteCoin,
		})
	default:
		return nil, fmt.Errorf("unknown order kind %q", intent.Kind)
	}
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, tx)
}

// checkPairConstraints runs the pool's min/lot/tick checks for every price
// the intent carries.
func checkPairConstraints(intent market.OrderIntent, pair market.TradingPair) error {
	prices := []float64{intent.Price}
	if intent.Kind == market.KindOCO {
		prices = []float64{intent.TakeProfitPrice, intent.StopLossPrice}
	}
	for _, price := range prices {
		if res := market.ValidateOrderParams(intent.Quantity, price, pair); !res.Valid {
			return fmt.Errorf("order rejected: %s", strings.Join(res.Errors, "; "))
		}
	}
	return nil
}

// CancelOrder cancels one order by id.
func (s *Service) CancelOrder(ctx context.Context, orderID uint64) (*orlim.ExecuteResult, error) {
	managerID, err := s.ManagerID()
	if err != nil {
		return nil, err
	}
	tx, err := s.builder.CancelOrderTx(managerID, orderID)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, tx)
}

// BatchCancel cancels several orders in one transaction.
func (s *Service) BatchCancel(ctx context.Context, orderIDs []uint64) (*orlim.ExecuteResult, error) {
	managerID, err := s.ManagerID()
	if err != nil {
		return nil, err
	}
	tx, err := s.builder.BatchCancelOrdersTx(managerID, orderIDs)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, tx)
}

// CancelAll cancels every currently active order.
func (s *Service) CancelAll(ctx context.Context) (*orlim.ExecuteResult, error) {
	active := s.ActiveReceipts()
	ids := make([]uint64, 0, len(active))
	for _, r := range active {
		ids = append(ids, r.Data.OrderID)
	}
	return s.BatchCancel(ctx, ids)
}

// ModifyOrder changes an order's price and quantity. The new values face the
// same pair constraints as a placement.
func (s *Service) ModifyOrder(ctx context.Context, orderID uint64, newPrice, newQuantity float64) (*orlim.ExecuteResult, error) {
	pair, ok := s.registry.Selected()
	if !ok {
		return nil, errors.New("no trading pair selected")
	}
	if res := market.ValidateOrderParams(newQuantity, newPrice, pair); !res.Valid {
		return nil, fmt.Errorf("modification rejected: %s", strings.Join(res.Errors, "; "))
	}
	managerID, err := s.ManagerID()
	if err != nil {
		return nil, err
	}
	quantity, err := units.ToBaseUnits(newQuantity, pair.Base.Decimals)
	if err != nil {
		return nil, err
	}
	tx, err := s.builder.ModifyOrderTx(managerID, orderID, newPrice, quantity)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, tx)
}

// PromoteReceipt materializes a tracked order into an owned OrderReceipt
// object.
func (s *Service) PromoteReceipt(ctx context.Context, orderID uint64) (*orlim.ExecuteResult, error) {
	managerID, err := s.ManagerID()
	if err != nil {
		return nil, err
	}
	tx, err := s.builder.CreateOrderReceiptTx(managerID, orderID)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, tx)
}

// CancelByReceipt cancels an order by consuming its receipt object.
func (s *Service) CancelByReceipt(ctx context.Context, receiptObjectID string) (*orlim.ExecuteResult, error) {
	managerID, err := s.ManagerID()
	if err != nil {
		return nil, err
	}
	tx, err := s.builder.CancelOrderByReceiptTx(managerID, receiptObjectID)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, tx)
}

// submit hands one transaction to the executor. Only one signing request may
// be pending at a time; a successful execution schedules a refresh.
func (s *Service) submit(ctx context.Context, tx *orlim.TxRequest) (*orlim.ExecuteResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInFlight
	}
	defer s.inFlight.Store(false)

	res, err := s.executor.SignAndExecute(ctx, tx)
	if err != nil {
		return res, humanizeExecError(err)
	}

	s.logger.Info("transaction submitted", zap.String("digest", res.Digest))
	s.Refresh()
	return res, nil
}

// humanizeExecError swaps a Move abort code for its known message when the
// failure carries one.
func humanizeExecError(err error) error {
	code, ok := parseAbortCode(err.Error())
	if !ok {
		return err
	}
	if msg, known := orlim.AbortMessage(code); known {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return err
}

// parseAbortCode pulls the abort code out of a MoveAbort failure string,
// e.g. "MoveAbort(..., 7)". The code is the last integer before the closing
// parenthesis.
func parseAbortCode(s string) (int, bool) {
	idx := strings.Index(s, "MoveAbort")
	if idx < 0 {
		return 0, false
	}
	s = s[idx:]
	if end := strings.LastIndexByte(s, ')'); end >= 0 {
		s = s[:end]
	}

	code, digits := 0, 0
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		digits++
		if digits > 9 {
			return 0, false
		}
		code += int(c-'0') * pow10(digits-1)
	}
	if digits == 0 {
		return 0, false
	}
	return code, true
}

func pow10(n int) int {
	out := 1
	for i := 0; i < n; i++ {
		out *= 10
	}
	return out
}
