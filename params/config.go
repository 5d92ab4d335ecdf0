package params

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Network selects which Sui deployment the client talks to.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
	Devnet  Network = "devnet"
)

// Endpoints holds the per-network URLs and the Orlim package id deployed there.
type Endpoints struct {
	FullnodeURL string
	WsURL       string
	IndexerURL  string
	PackageID   string
}

// PriceFeed configures the quote poller.
type PriceFeed struct {
	// ProxyURL points at the price-proxy /price endpoint. When empty the
	// feed talks to CoinGecko directly.
	ProxyURL string
	// APIKey is an optional CoinGecko demo key appended to direct requests.
	APIKey string
	// FallbackPrice seeds the feed before the first successful fetch so the
	// UI never renders an undefined price.
	FallbackPrice float64
	PollInterval  time.Duration
}

type Proxy struct {
	ListenAddr string
}

type Config struct {
	Network Network
	// ModuleName is the Move module inside the Orlim package.
	ModuleName string
	Endpoints  map[Network]Endpoints
	PriceFeed  PriceFeed
	Proxy      Proxy
	// DataDir holds the local session store (pinned tabs, last good price).
	DataDir string
	// ReceiptPollInterval paces authoritative receipt refreshes.
	ReceiptPollInterval time.Duration
}

// Default returns the testnet configuration matching the deployed contract.
func Default() Config {
	return Config{
		Network:    Testnet,
		ModuleName: "orlim",
		Endpoints: map[Network]Endpoints{
			Mainnet: {
				FullnodeURL: "https://fullnode.mainnet.sui.io:443",
				WsURL:       "wss://fullnode.mainnet.sui.io:443",
				IndexerURL:  "https://deepbook-indexer.mainnet.mystenlabs.com",
				PackageID:   "0x9a9f7a59d3024a19aed90be0d7295fc2283c3b0e356a92f7317f08a98a613445",
			},
			Testnet: {
				FullnodeURL: "https://fullnode.testnet.sui.io:443",
				WsURL:       "wss://fullnode.testnet.sui.io:443",
				IndexerURL:  "https://deepbook-indexer.testnet.mystenlabs.com",
				PackageID:   "0x9a9f7a59d3024a19aed90be0d7295fc2283c3b0e356a92f7317f08a98a613445",
			},
			Devnet: {
				FullnodeURL: "https://fullnode.devnet.sui.io:443",
				WsURL:       "wss://fullnode.devnet.sui.io:443",
				// DeepBook has no devnet indexer; fall back to testnet data.
				IndexerURL: "https://deepbook-indexer.testnet.mystenlabs.com",
				PackageID:  "0x9a9f7a59d3024a19aed90be0d7295fc2283c3b0e356a92f7317f08a98a613445",
			},
		},
		PriceFeed: PriceFeed{
			FallbackPrice: 2.0,
			PollInterval:  10 * time.Second,
		},
		Proxy: Proxy{
			ListenAddr: ":8787",
		},
		DataDir:             "data",
		ReceiptPollInterval: 10 * time.Second,
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if net := os.Getenv("ORLIM_NETWORK"); net != "" {
		switch Network(net) {
		case Mainnet, Testnet, Devnet:
			cfg.Network = Network(net)
		}
	}

	ep := cfg.Endpoints[cfg.Network]
	if url := os.Getenv("SUI_FULLNODE_URL"); url != "" {
		ep.FullnodeURL = url
	}
	if url := os.Getenv("SUI_WS_URL"); url != "" {
		ep.WsURL = url
	}
	if url := os.Getenv("DEEPBOOK_INDEXER_URL"); url != "" {
		ep.IndexerURL = url
	}
	if pkg := os.Getenv("ORLIM_PACKAGE_ID"); pkg != "" {
		ep.PackageID = pkg
	}
	cfg.Endpoints[cfg.Network] = ep

	if v := os.Getenv("ORLIM_DEFAULT_SUI_PRICE"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil && p > 0 {
			cfg.PriceFeed.FallbackPrice = p
		}
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.PriceFeed.APIKey = v
	}
	if v := os.Getenv("PRICE_PROXY_URL"); v != "" {
		cfg.PriceFeed.ProxyURL = v
	}
	if v := os.Getenv("PRICE_POLL_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.PriceFeed.PollInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("RECEIPT_POLL_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.ReceiptPollInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("PROXY_LISTEN_ADDR"); v != "" {
		cfg.Proxy.ListenAddr = v
	}
	if v := os.Getenv("ORLIM_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	return cfg
}

// Active returns the endpoints for the selected network.
func (c Config) Active() (Endpoints, error) {
	ep, ok := c.Endpoints[c.Network]
	if !ok {
		return Endpoints{}, fmt.Errorf("no endpoints configured for network %q", c.Network)
	}
	return ep, nil
}
