// Package rpc exposes an entry point over JSON-RPC 2.0 and provides the
// matching client, so the relay can submit operations to a remote process.
package rpc

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/dualsig/wallet-relay/entrypoint"
)

const (
	DefaultRateLimit = 50 // requests per second, per client
	// DefaultBurst covers the requests of one relay submission, receipt
	// polling included.
	DefaultBurst = 100
	// limitedClients bounds the number of client limiters kept in memory.
	limitedClients = 1024
)

type Config struct {
	ListenAddress string
	// Funder pays the stake deposits requested through aa_depositStake.
	Funder         common.Address
	RateLimit      float64
	Burst          int
	AllowedOrigins []string
}

func DefaultConfig() Config {
	return Config{
		ListenAddress:  "127.0.0.1:8545",
		RateLimit:      DefaultRateLimit,
		Burst:          DefaultBurst,
		AllowedOrigins: []string{"*"},
	}
}

// NewHandler returns the HTTP handler serving the eth, aa and wallet
// namespaces at the root path.
func NewHandler(log zerolog.Logger, ep *entrypoint.EntryPoint, config Config) (http.Handler, error) {
	log = log.With().Str("component", "relay_rpc").Logger()

	srv := gethrpc.NewServer()
	services := map[string]interface{}{
		"eth":    &EthAPI{ep: ep},
		"aa":     &AAAPI{ep: ep, funder: config.Funder},
		"wallet": &WalletAPI{ep: ep},
	}
	for namespace, service := range services {
		if err := srv.RegisterName(namespace, service); err != nil {
			return nil, fmt.Errorf("could not register %s namespace: %w", namespace, err)
		}
	}

	router := mux.NewRouter()
	router.Use(loggingMiddleware(log))
	limiters, err := newClientLimiters(config.RateLimit, config.Burst)
	if err != nil {
		return nil, err
	}
	router.Use(rateLimitMiddleware(log, limiters))
	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	router.Handle("/", srv).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins: config.AllowedOrigins,
		AllowedHeaders: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
	})
	return c.Handler(router), nil
}

// NewServer returns an HTTP server for the relay RPC on the configured
// listen address.
func NewServer(log zerolog.Logger, ep *entrypoint.EntryPoint, config Config) (*http.Server, error) {
	handler, err := NewHandler(log, ep, config)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:         config.ListenAddress,
		Handler:      handler,
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
	}, nil
}

// clientLimiters rate limits each client address separately. The least
// recently seen clients are evicted past limitedClients.
type clientLimiters struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters *lru.Cache[string, *rate.Limiter]
}

func newClientLimiters(limit float64, burst int) (*clientLimiters, error) {
	limiters, err := lru.New[string, *rate.Limiter](limitedClients)
	if err != nil {
		return nil, fmt.Errorf("could not create limiter cache: %w", err)
	}
	return &clientLimiters{
		limit:    rate.Limit(limit),
		burst:    burst,
		limiters: limiters,
	}, nil
}

func (c *clientLimiters) get(client string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	limiter, ok := c.limiters.Get(client)
	if !ok {
		limiter = rate.NewLimiter(c.limit, c.burst)
		c.limiters.Add(client, limiter)
	}
	return limiter
}

func clientHost(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

func rateLimitMiddleware(log zerolog.Logger, limiters *clientLimiters) mux.MiddlewareFunc {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			client := clientHost(req)
			if !limiters.get(client).Allow() {
				log.Info().
					Str("client_ip", client).
					Float64("limit", float64(limiters.limit)).
					Msg("rate limit exceeded")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			handler.ServeHTTP(w, req)
		})
	}
}

func loggingMiddleware(log zerolog.Logger) mux.MiddlewareFunc {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			respWriter := newResponseWriter(w)
			handler.ServeHTTP(respWriter, req)

			event := log.Debug()
			if respWriter.statusCode != http.StatusOK {
				event = log.Warn()
			}
			event.Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("client_ip", req.RemoteAddr).
				Dur("duration", time.Since(start)).
				Int("response_code", respWriter.statusCode).
				Msg("api")
		})
	}
}

// responseWriter captures the response code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
