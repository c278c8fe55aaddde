package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"opschat/internal/domain"
	"opschat/internal/session"
)

// ErrInvalidPort is returned when the gateway port is not in 0..65535.
var ErrInvalidPort = errors.New("gateway port must be 0-65535")

// ChatService handles one user message per call and exposes display history
// (implemented by session.Manager).
type ChatService interface {
	Handle(ctx context.Context, channelID, message string) (string, error)
	History(channelID string) []session.DisplayPair
}

// Server is the HTTP front-end boundary: POST /chat for request/response
// clients and GET /ws for websocket clients, both behind optional Bearer auth.
type Server struct {
	cfg    *domain.GatewayConfig
	svc    ChatService
	logger *slog.Logger
	server *http.Server

	addrMu sync.RWMutex
	addr   string
}

// NewServer builds a gateway server. svc must not be nil. Port 0 means pick a
// random port. Returns ErrInvalidPort when the port is out of range.
func NewServer(cfg *domain.GatewayConfig, svc ChatService, logger *slog.Logger) (*Server, error) {
	if svc == nil {
		panic("gateway: chat service must not be nil")
	}
	if cfg == nil {
		cfg = &domain.GatewayConfig{Port: 8080}
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, ErrInvalidPort
	}

	s := &Server{cfg: cfg, svc: svc, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) { HandleWS(w, r, svc) })

	s.server = &http.Server{
		Handler:           BearerAuth(cfg.AuthToken)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler (auth + mux), for testing without binding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the bound address after Run has started. Empty before Run.
func (s *Server) Addr() string {
	s.addrMu.RLock()
	defer s.addrMu.RUnlock()
	return s.addr
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// chatRequest is the front-end boundary shape: a user message plus the channel
// whose prior history it joins.
type chatRequest struct {
	Message   string `json:"message"`
	ChannelID string `json:"channelId,omitempty"`
}

type chatResponse struct {
	Reply   string                `json:"reply"`
	History []session.DisplayPair `json:"history"`
}

// handleChat runs one turn and returns the reply plus the updated display
// history. Turn-internal failures arrive here as normal replies; only caller
// misuse maps to 4xx.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message must not be empty", http.StatusBadRequest)
		return
	}
	if req.ChannelID == "" {
		req.ChannelID = DefaultChannelID
	}

	reply, err := s.svc.Handle(r.Context(), req.ChannelID, req.Message)
	if err != nil {
		s.log().Error("chat turn failed", "channel", req.ChannelID, "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(chatResponse{
		Reply:   reply,
		History: s.svc.History(req.ChannelID),
	})
}

// Run listens on the configured port and serves until shutdown is closed.
// Returns nil when shut down.
func (s *Server) Run(shutdown <-chan struct{}) error {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(s.cfg.Port))
	if err != nil {
		return err
	}
	s.addrMu.Lock()
	s.addr = ln.Addr().String()
	s.addrMu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.server.Serve(ln)
	}()

	select {
	case <-shutdown:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
		return nil
	case err := <-done:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
