// Package proxy serves the cached reference-price endpoint the price feed
// polls. Browsers cannot call the upstream API directly (CORS plus a
// per-key rate limit), so this sits in between and absorbs the traffic.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// cacheTTL is how long one upstream price serves repeat requests. Matches
// the Cache-Control max-age advertised to clients.
const cacheTTL = 20 * time.Second

const upstreamURL = "https://api.coingecko.com/api/v3/simple/price?ids=sui&vs_currencies=usd"

// PriceResponse is the wire shape of GET /price.
type PriceResponse struct {
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
	Error     string  `json:"error,omitempty"`
}

// Server is the caching price proxy.
type Server struct {
	router   *mux.Router
	client   *http.Client
	upstream string
	apiKey   string
	logger   *zap.Logger

	mu       sync.Mutex
	cached   PriceResponse
	cachedAt time.Time

	httpSrv *http.Server
}

func NewServer(apiKey string, logger *zap.Logger) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		client:   &http.Client{Timeout: 10 * time.Second},
		upstream: upstreamURL,
		apiKey:   apiKey,
		logger:   logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/price", s.handleGetPrice).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start serves until Shutdown. Blocks.
func (s *Server) Start(addr string) error {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      c.Handler(s.router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.logger.Info("price proxy listening", zap.String("addr", addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetPrice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(cacheTTL.Seconds())))

	if cached, ok := s.fromCache(); ok {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	price, status, err := s.fetchUpstream(r.Context())
	now := time.Now().UnixMilli()

	if status == http.StatusTooManyRequests {
		// Pass the rate limit through so clients stop polling.
		s.logger.Warn("upstream rate limited")
		respondJSON(w, http.StatusTooManyRequests, PriceResponse{
			Timestamp: now,
			Error:     "rate limited by upstream",
		})
		return
	}
	if err != nil {
		s.logger.Warn("upstream price fetch failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, PriceResponse{
			Timestamp: now,
			Error:     err.Error(),
		})
		return
	}

	resp := PriceResponse{Price: price, Timestamp: now}
	s.mu.Lock()
	s.cached = resp
	s.cachedAt = time.Now()
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) fromCache() (PriceResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cachedAt.IsZero() || time.Since(s.cachedAt) > cacheTTL {
		return PriceResponse{}, false
	}
	return s.cached, true
}

// fetchUpstream queries the spot price. The demo API key rides along as a
// header when configured.
func (s *Server) fetchUpstream(ctx context.Context) (float64, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.upstream, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to build upstream request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return 0, resp.StatusCode, nil
	}
	if resp.StatusCode != http.StatusOK {
		return 0, resp.StatusCode, fmt.Errorf("upstream returned %d", resp.StatusCode)
	}

	var body map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, resp.StatusCode, fmt.Errorf("failed to decode upstream response: %w", err)
	}
	price, ok := body["sui"]["usd"]
	if !ok || price <= 0 {
		return 0, resp.StatusCode, fmt.Errorf("upstream response missing sui/usd price")
	}
	return price, resp.StatusCode, nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
