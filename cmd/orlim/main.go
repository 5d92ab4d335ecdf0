// Command orlim is the terminal client for the Orlim limit-order manager:
// key management, order placement and cancellation, receipt listing, and
// live order/price watching.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/orlim-labs/orlim-go/params"
	"github.com/orlim-labs/orlim-go/pkg/book"
	"github.com/orlim-labs/orlim-go/pkg/chain"
	"github.com/orlim-labs/orlim-go/pkg/manager"
	"github.com/orlim-labs/orlim-go/pkg/market"
	"github.com/orlim-labs/orlim-go/pkg/orlim"
	"github.com/orlim-labs/orlim-go/pkg/pricefeed"
	"github.com/orlim-labs/orlim-go/pkg/storage"
	"github.com/orlim-labs/orlim-go/pkg/units"
	"github.com/orlim-labs/orlim-go/pkg/util"
	"github.com/orlim-labs/orlim-go/pkg/wallet"
)

func usage() {
	fmt.Println(`Usage: orlim <command> [flags]

Commands:
  keygen               generate a new keypair
  pairs                list supported trading pairs
  validate             check an order against pool constraints
  setup                create the account's order manager
  place                place a limit order (standard, oco, or tif)
  cancel               cancel one or more orders by id
  modify               change an order's price and quantity
  receipts             list order receipts for the account
  price                fetch the current reference price
  book                 show the order book for a pool
  watch                follow orders and events live`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg := params.LoadFromEnv("")
	logger, err := util.NewConsoleLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cli := &cli{cfg: cfg, logger: logger}

	var runErr error
	switch os.Args[1] {
	case "keygen":
		runErr = cli.keygen()
	case "pairs":
		runErr = cli.pairs()
	case "validate":
		runErr = cli.validate(os.Args[2:])
	case "setup":
		runErr = cli.setup(os.Args[2:])
	case "place":
		runErr = cli.place(os.Args[2:])
	case "cancel":
		runErr = cli.cancel(os.Args[2:])
	case "modify":
		runErr = cli.modify(os.Args[2:])
	case "receipts":
		runErr = cli.receipts(os.Args[2:])
	case "price":
		runErr = cli.price(os.Args[2:])
	case "book":
		runErr = cli.book(os.Args[2:])
	case "watch":
		runErr = cli.watch(os.Args[2:])
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		os.Exit(1)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}

type cli struct {
	cfg    params.Config
	logger *zap.Logger
}

func (c *cli) endpoints() (params.Endpoints, error) {
	return c.cfg.Active()
}

// signer loads the key from ORLIM_PRIVATE_KEY. Required by every command
// that signs.
func (c *cli) signer() (*wallet.Signer, error) {
	seed := os.Getenv("ORLIM_PRIVATE_KEY")
	if seed == "" {
		return nil, fmt.Errorf("ORLIM_PRIVATE_KEY is not set (run `orlim keygen` first)")
	}
	return wallet.FromPrivateKeyHex(seed)
}

// service assembles the order service around the configured account. The
// returned cleanup closes the session store.
func (c *cli) service() (*manager.Service, *market.Registry, func(), error) {
	ep, err := c.endpoints()
	if err != nil {
		return nil, nil, nil, err
	}
	signer, err := c.signer()
	if err != nil {
		return nil, nil, nil, err
	}

	var snapshots manager.Snapshotter
	cleanup := func() {}
	if store, err := storage.NewSessionStore(c.cfg.DataDir); err == nil {
		snapshots = store
		cleanup = func() { store.Close() }
	} else {
		c.logger.Warn("session store unavailable", zap.Error(err))
	}

	registry := market.NewRegistry(market.TestnetPairs())
	svc := manager.NewService(manager.Params{
		Querier:      chain.NewRPCClient(ep.FullnodeURL, c.logger),
		Executor:     wallet.NewLocalExecutor(signer, nil, c.logger),
		Registry:     registry,
		PackageID:    ep.PackageID,
		Address:      signer.Address(),
		PollInterval: c.cfg.ReceiptPollInterval,
		Snapshots:    snapshots,
		Logger:       c.logger,
	})
	return svc, registry, cleanup, nil
}

func (c *cli) keygen() error {
	signer, err := wallet.GenerateKey()
	if err != nil {
		return err
	}
	fmt.Printf("Address:     %s\n", signer.Address())
	fmt.Printf("Public Key:  %s\n", signer.PublicKeyHex())
	fmt.Printf("Private Key: %s (KEEP SECRET!)\n\n", signer.PrivateKeyHex())
	fmt.Println("Export it for the other commands:")
	fmt.Printf("  export ORLIM_PRIVATE_KEY=%s\n", signer.PrivateKeyHex())
	return nil
}

func (c *cli) pairs() error {
	for _, p := range market.TestnetPairs() {
		minHuman, _ := units.FromBaseUnits(p.Params.MinSize, p.Base.Decimals)
		lotHuman, _ := units.FromBaseUnits(p.Params.LotSize, p.Base.Decimals)
		tickHuman, _ := units.FromBaseUnits(p.Params.TickSize, p.Quote.Decimals)
		fmt.Printf("%-12s pool=%s\n", p.Label(), p.PoolID)
		fmt.Printf("             min=%v lot=%v tick=%v\n", minHuman, lotHuman, tickHuman)
	}
	return nil
}

func (c *cli) validate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	pool := fs.String("pair", "SUI_DBUSDC", "pool name")
	qty := fs.Float64("qty", 0, "order quantity")
	price := fs.Float64("price", 0, "order price")
	fs.Parse(args)

	registry := market.NewRegistry(market.TestnetPairs())
	pair, ok := registry.GetByName(*pool)
	if !ok {
		return fmt.Errorf("unknown pair %q", *pool)
	}

	result := market.ValidateOrderParams(*qty, *price, pair)
	if result.Valid {
		fmt.Printf("OK: %v %s at %v satisfies pool constraints\n", *qty, pair.Label(), *price)
		return nil
	}
	for _, msg := range result.Errors {
		fmt.Printf("  - %s\n", msg)
	}
	return fmt.Errorf("order fails %d constraint(s)", len(result.Errors))
}

func (c *cli) setup(args []string) error {
	svc, _, cleanup, err := c.service()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := svc.Sync(ctx); err != nil {
		c.logger.Warn("initial sync failed", zap.Error(err))
	}
	res, err := svc.CreateOrderManager(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Order manager setup submitted: %s (%s)\n", res.Digest, res.Status)
	return nil
}

func (c *cli) place(args []string) error {
	fs := flag.NewFlagSet("place", flag.ExitOnError)
	pool := fs.String("pair", "SUI_DBUSDC", "pool name")
	side := fs.String("side", "", "buy or sell")
	kind := fs.String("kind", market.KindStandard, "standard, oco, or tif")
	qty := fs.Float64("qty", 0, "order quantity")
	price := fs.Float64("price", 0, "limit price (standard/tif)")
	tp := fs.Float64("tp", 0, "take-profit price (oco)")
	sl := fs.Float64("sl", 0, "stop-loss price (oco)")
	tif := fs.String("tif", "", "IOC or FOK (tif)")
	baseCoin := fs.String("base-coin", "", "base funding coin object id (tif)")
	quoteCoin := fs.String("quote-coin", "", "quote funding coin object id (tif)")
	fs.Parse(args)

	svc, registry, cleanup, err := c.service()
	if err != nil {
		return err
	}
	defer cleanup()

	pair, ok := registry.GetByName(*pool)
	if !ok {
		return fmt.Errorf("unknown pair %q", *pool)
	}
	if err := registry.SelectPool(pair.PoolID); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := svc.Sync(ctx); err != nil {
		return err
	}

	res, err := svc.PlaceOrder(ctx, market.OrderIntent{
		Side:            *side,
		Kind:            *kind,
		Quantity:        *qty,
		Price:           *price,
		TakeProfitPrice: *tp,
		StopLossPrice:   *sl,
		TimeInForce:     *tif,
		BaseCoin:        *baseCoin,
		QuoteCoin:       *quoteCoin,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Order submitted: %s (%s)\n", res.Digest, res.Status)
	return nil
}

func (c *cli) cancel(args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	ids := fs.String("ids", "", "comma-separated order ids")
	all := fs.Bool("all", false, "cancel every active order")
	fs.Parse(args)

	svc, _, cleanup, err := c.service()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := svc.Sync(ctx); err != nil {
		return err
	}

	var res *orlim.ExecuteResult
	switch {
	case *all:
		res, err = svc.CancelAll(ctx)
	case *ids != "":
		var orderIDs []uint64
		for _, part := range strings.Split(*ids, ",") {
			id, perr := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
			if perr != nil {
				return fmt.Errorf("bad order id %q", part)
			}
			orderIDs = append(orderIDs, id)
		}
		if len(orderIDs) == 1 {
			res, err = svc.CancelOrder(ctx, orderIDs[0])
		} else {
			res, err = svc.BatchCancel(ctx, orderIDs)
		}
	default:
		return fmt.Errorf("pass -ids or -all")
	}
	if err != nil {
		return err
	}
	fmt.Printf("Cancel submitted: %s (%s)\n", res.Digest, res.Status)
	return nil
}

func (c *cli) modify(args []string) error {
	fs := flag.NewFlagSet("modify", flag.ExitOnError)
	id := fs.Uint64("id", 0, "order id")
	price := fs.Float64("price", 0, "new price")
	qty := fs.Float64("qty", 0, "new quantity")
	fs.Parse(args)

	svc, _, cleanup, err := c.service()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := svc.Sync(ctx); err != nil {
		return err
	}

	res, err := svc.ModifyOrder(ctx, *id, *price, *qty)
	if err != nil {
		return err
	}
	fmt.Printf("Modification submitted: %s (%s)\n", res.Digest, res.Status)
	return nil
}

func (c *cli) receipts(args []string) error {
	fs := flag.NewFlagSet("receipts", flag.ExitOnError)
	activeOnly := fs.Bool("active", false, "only active orders")
	asJSON := fs.Bool("json", false, "print raw JSON")
	fs.Parse(args)

	svc, _, cleanup, err := c.service()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := svc.Sync(ctx); err != nil {
		return err
	}

	receipts := svc.Receipts()
	if *activeOnly {
		receipts = orlim.ActiveReceipts(receipts)
	}
	if *asJSON {
		out, _ := json.MarshalIndent(receipts, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	if len(receipts) == 0 {
		fmt.Println("No order receipts.")
		return nil
	}
	for _, r := range receipts {
		d := r.Data
		price, _ := units.FromBaseUnits(d.Price, orlim.PriceDecimals)
		side := "sell"
		if d.IsBid {
			side = "buy"
		}
		fmt.Printf("#%d %-4s %s qty=%d/%d price=%v status=%s\n",
			d.OrderID, d.OrderType, side, d.Quantity, d.OriginalQuantity, price, d.Status())
	}
	return nil
}

func (c *cli) price(args []string) error {
	fs := flag.NewFlagSet("price", flag.ExitOnError)
	follow := fs.Bool("watch", false, "keep polling")
	fs.Parse(args)

	url := c.cfg.PriceFeed.ProxyURL
	if url == "" {
		url = fmt.Sprintf("http://localhost%s/price", c.cfg.Proxy.ListenAddr)
	}
	feed := pricefeed.NewFeed(
		pricefeed.NewProxyFetcher(url),
		c.cfg.PriceFeed.FallbackPrice,
		c.cfg.PriceFeed.PollInterval,
		util.RealClock{},
		c.logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !*follow {
		ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		go feed.Run(ctx)
		for feed.Quote().State == pricefeed.StateLoading && ctx.Err() == nil {
			time.Sleep(100 * time.Millisecond)
		}
		printQuote(feed.Quote())
		return nil
	}

	go feed.Run(ctx)
	ticker := time.NewTicker(c.cfg.PriceFeed.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			printQuote(feed.Quote())
		}
	}
}

func printQuote(q pricefeed.Quote) {
	switch q.State {
	case pricefeed.StateLive:
		fmt.Printf("SUI/USD %.4f (as of %s)\n", q.Price, q.UpdatedAt.Format(time.RFC3339))
	case pricefeed.StateStale:
		fmt.Printf("SUI/USD %.4f [STALE: %s]\n", q.Price, q.LastError)
	default:
		fmt.Printf("SUI/USD %.4f [loading]\n", q.Price)
	}
}

func (c *cli) book(args []string) error {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	pool := fs.String("pair", "SUI_DBUSDC", "pool name")
	depth := fs.Int("depth", 10, "levels per side")
	fs.Parse(args)

	ep, err := c.endpoints()
	if err != nil {
		return err
	}
	pair, ok := market.NewRegistry(market.TestnetPairs()).GetByName(*pool)
	if !ok {
		return fmt.Errorf("unknown pair %q", *pool)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	snapshot, err := book.NewClient(ep.IndexerURL, c.logger).FetchBook(ctx, pair.PoolID)
	if err != nil {
		return err
	}

	asks := snapshot.Asks
	if len(asks) > *depth {
		asks = asks[:*depth]
	}
	bids := snapshot.Bids
	if len(bids) > *depth {
		bids = bids[:*depth]
	}

	fmt.Printf("%s  mid=%.6f\n", pair.Label(), snapshot.MidPrice(c.cfg.PriceFeed.FallbackPrice))
	for i := len(asks) - 1; i >= 0; i-- {
		fmt.Printf("  ask %12.6f  %v\n", asks[i].Price, asks[i].Quantity)
	}
	for _, b := range bids {
		fmt.Printf("  bid %12.6f  %v\n", b.Price, b.Quantity)
	}
	return nil
}

func (c *cli) watch(args []string) error {
	svc, _, cleanup, err := c.service()
	if err != nil {
		return err
	}
	defer cleanup()

	ep, err := c.endpoints()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub := chain.NewEventSubscriber(ep.WsURL, ep.PackageID, orlim.ModuleName, c.logger)
	go sub.Run(ctx)
	go svc.Run(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case raw := <-sub.Events():
				svc.HandleEvent(raw)
			}
		}
	}()

	fmt.Println("Watching orders (ctrl-c to stop)...")
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	seen := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			events := svc.Events()
			for i := len(events) - seen - 1; i >= 0; i-- {
				ev := events[i]
				fmt.Printf("[%s] order #%d %s\n",
					ev.Timestamp.Format("15:04:05"), ev.OrderID, ev.Kind)
			}
			seen = len(events)
			active := svc.ActiveReceipts()
			fmt.Printf("-- %d active order(s)\n", len(active))
		}
	}
}
