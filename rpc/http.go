package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"sftledger/native/royalty"
	"sftledger/native/token"
	"sftledger/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB

	mutationsPerMinute = 60
	mutationBurst      = 10
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
)

// Server exposes the ledger, registry and batch minter over JSON-RPC.
// Mutating methods require the bearer token from SFT_RPC_TOKEN when one is
// configured and are rate limited per client.
type Server struct {
	ledger    *token.Ledger
	registry  *royalty.Registry
	minter    *royalty.BatchMinter
	authToken string

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewServer creates a server over the supplied components.
func NewServer(ledger *token.Ledger, registry *royalty.Registry, minter *royalty.BatchMinter) *Server {
	authToken := strings.TrimSpace(os.Getenv("SFT_RPC_TOKEN"))
	return &Server{
		ledger:    ledger,
		registry:  registry,
		minter:    minter,
		authToken: authToken,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Start serves the JSON-RPC endpoint and the prometheus metrics endpoint on
// the supplied address, blocking until the listener fails.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.Handle("/metrics", promhttp.Handler())
	slog.Info("starting JSON-RPC server", slog.String("addr", addr))
	return http.ListenAndServe(addr, mux)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, nil, codeInvalidRequest, "POST required")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, nil, codeParseError, "unable to read request body")
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, nil, codeParseError, "invalid JSON-RPC payload")
		return
	}
	if req.JSONRPC != jsonRPCVersion {
		writeError(w, req.ID, codeInvalidRequest, "unsupported JSON-RPC version")
		return
	}

	if mutatingMethods[req.Method] {
		if rpcErr := s.authorize(r); rpcErr != nil {
			s.record(req.Method, rpcErr)
			writeRPCError(w, req.ID, rpcErr)
			return
		}
		if !s.obtainLimiter(clientID(r)).Allow() {
			rpcErr := &RPCError{Code: codeRateLimited, Message: "rate limit exceeded"}
			s.record(req.Method, rpcErr)
			writeRPCError(w, req.ID, rpcErr)
			return
		}
	}

	result, rpcErr := s.dispatch(req.Method, req.Params)
	s.record(req.Method, rpcErr)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	writeResult(w, req.ID, result)
}

var mutatingMethods = map[string]bool{
	"royalty_setDefault":    true,
	"royalty_deleteDefault": true,
	"royalty_setToken":      true,
	"royalty_resetToken":    true,
	"sft_mintBatch":         true,
}

func (s *Server) dispatch(method string, params []json.RawMessage) (interface{}, *RPCError) {
	switch method {
	case "royalty_info":
		return s.handleRoyaltyInfo(params)
	case "royalty_feeDenominator":
		return s.handleFeeDenominator(params)
	case "royalty_setDefault":
		return s.handleSetDefaultRoyalty(params)
	case "royalty_deleteDefault":
		return s.handleDeleteDefaultRoyalty(params)
	case "royalty_setToken":
		return s.handleSetTokenRoyalty(params)
	case "royalty_resetToken":
		return s.handleResetTokenRoyalty(params)
	case "sft_mintBatch":
		return s.handleMintBatch(params)
	case "sft_capabilities":
		return s.handleCapabilities(params)
	case "token_balanceOf":
		return s.handleBalanceOf(params)
	case "token_totalSupply":
		return s.handleTotalSupply(params)
	case "token_exists":
		return s.handleExists(params)
	default:
		return nil, &RPCError{Code: codeMethodNotFound, Message: "method not found: " + method}
	}
}

func (s *Server) authorize(r *http.Request) *RPCError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	provided := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "unauthorized"}
	}
	return nil
}

func (s *Server) obtainLimiter(id string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	limiter, ok := s.limiters[id]
	if ok {
		return limiter
	}
	limiter = rate.NewLimiter(rate.Limit(mutationsPerMinute/60.0), mutationBurst)
	s.limiters[id] = limiter
	return limiter
}

func (s *Server) record(method string, rpcErr *RPCError) {
	outcome := "ok"
	if rpcErr != nil {
		outcome = "error"
	}
	observability.RPCMetrics().RecordRequest(method, outcome)
}

func clientID(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		if comma := strings.IndexByte(forwarded, ','); comma > 0 {
			forwarded = strings.TrimSpace(forwarded[:comma])
		}
		if parsed := net.ParseIP(forwarded); parsed != nil {
			return parsed.String()
		}
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// rpcErrorFor maps component errors onto JSON-RPC error codes: validation
// failures surface as invalid params, everything else as a server error. The
// message keeps the wrapped offending values for caller diagnostics.
func rpcErrorFor(err error) *RPCError {
	code := codeServerError
	switch {
	case errors.Is(err, royalty.ErrInvalidFee),
		errors.Is(err, royalty.ErrInvalidReceiver),
		errors.Is(err, royalty.ErrLengthMismatch),
		errors.Is(err, token.ErrEmptyReceiver),
		errors.Is(err, token.ErrLengthMismatch),
		errors.Is(err, token.ErrInvalidAmount),
		errors.Is(err, token.ErrInsufficientBalance):
		code = codeInvalidParams
	}
	return &RPCError{Code: code, Message: err.Error()}
}

func singleParam(params []json.RawMessage, out interface{}) *RPCError {
	if len(params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "expected exactly one parameter object"}
	}
	if err := json.Unmarshal(params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: "invalid parameters: " + err.Error()}
	}
	return nil
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	writeResponse(w, RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	writeRPCError(w, id, &RPCError{Code: code, Message: message})
}

func writeRPCError(w http.ResponseWriter, id interface{}, rpcErr *RPCError) {
	writeResponse(w, RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: rpcErr})
}

func writeResponse(w http.ResponseWriter, resp RPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode RPC response", slog.Any("error", err))
	}
}
