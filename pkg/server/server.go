package server

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/wordmask/internal/utils"
	"github.com/bastiangx/wordmask/pkg/config"
	"github.com/bastiangx/wordmask/pkg/dictionary"
	"github.com/bastiangx/wordmask/pkg/index"
	"github.com/bastiangx/wordmask/pkg/match"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles msgpack IPC for pattern matching
type Server struct {
	matcher *match.Matcher
	loader  *dictionary.RuntimeLoader

	mu  sync.RWMutex
	cfg config.ServerConfig

	configPath string
	watcher    *config.Watcher

	decoder *msgpack.Decoder
	encoder *msgpack.Encoder

	requestCount int
}

// NewServer creates a server over stdin/stdout.
func NewServer(matcher *match.Matcher, loader *dictionary.RuntimeLoader, cfg *config.Config, configPath string) *Server {
	return NewServerWithIO(matcher, loader, cfg, configPath, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server reading requests from in and writing
// responses to out. An empty configPath disables config watching.
func NewServerWithIO(matcher *match.Matcher, loader *dictionary.RuntimeLoader, cfg *config.Config, configPath string, in io.Reader, out io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		matcher:    matcher,
		loader:     loader,
		cfg:        cfg.Server,
		configPath: configPath,
		decoder:    msgpack.NewDecoder(in),
		encoder:    msgpack.NewEncoder(out),
	}
}

// Start processes requests until the input is exhausted. It returns nil on a
// clean end of input.
func (s *Server) Start() error {
	log.Debug("Starting server")

	if s.configPath != "" {
		if err := s.watchConfig(); err != nil {
			log.Warnf("Config watching disabled: %v", err)
		}
	}
	defer s.stopWatching()

	for {
		var req Request
		err := s.decoder.Decode(&req)
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug("Input closed, stopping server")
				return nil
			}
			log.Errorf("Decoding request: %v", err)
			return fmt.Errorf("decode request: %w", err)
		}
		s.requestCount++
		s.handleRequest(req)
	}
}

func (s *Server) watchConfig() error {
	w, err := config.NewWatcher(s.configPath, s.applyConfig)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		w.Close()
		return err
	}
	s.watcher = w
	return nil
}

func (s *Server) stopWatching() {
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			log.Warnf("Closing config watcher: %v", err)
		}
		s.watcher = nil
	}
}

// applyConfig installs reloaded server limits and cache size.
func (s *Server) applyConfig(cfg *config.Config) {
	s.mu.Lock()
	s.cfg = cfg.Server
	s.mu.Unlock()

	if cfg.Cache.Enabled {
		s.matcher.SetCacheSize(cfg.Cache.MaxEntries)
	} else {
		s.matcher.SetCacheSize(0)
	}
	log.Debugf("Applied config: max_limit=%d default_limit=%d max_length=%d filter=%v cache=%d",
		cfg.Server.MaxLimit, cfg.Server.DefaultLimit, cfg.Server.MaxLength,
		cfg.Server.EnableFilter, cfg.Cache.MaxEntries)
}

// Limits returns the server limits in effect.
func (s *Server) Limits() config.ServerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Server) handleRequest(req Request) {
	log.Debugf("Request #%d id=%s action=%q", s.requestCount, req.ID, req.Action)
	switch req.Action {
	case "", ActionMatch:
		s.handleMatch(req)
	case ActionInfo:
		s.handleInfo(req)
	case ActionReload:
		s.handleReload(req)
	case ActionStats:
		s.sendResponse(StatsResponse{ID: req.ID, Stats: s.matcher.Stats()})
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown action: %s", req.Action), CodeBadRequest)
	}
}

func (s *Server) handleMatch(req Request) {
	limits := s.Limits()

	if req.Length < 1 || req.Length > limits.MaxLength {
		s.sendError(req.ID, fmt.Sprintf("length must be between 1 and %d", limits.MaxLength), CodeBadRequest)
		log.Debugf("Rejected length %d", req.Length)
		return
	}

	pattern := req.Pattern
	if pattern == "" {
		pattern = index.WildcardPattern(req.Length).String()
	}
	if limits.EnableFilter {
		pattern = utils.NormalizePatternInput(pattern)
		if !utils.IsValidPatternInput(pattern) {
			s.sendError(req.ID, "pattern may only contain letters a-z and '_'", CodeBadRequest)
			log.Debugf("Rejected pattern %q", req.Pattern)
			return
		}
	}
	if utf8.RuneCountInString(pattern) != req.Length {
		s.sendError(req.ID, fmt.Sprintf("pattern has %d characters, want %d",
			utf8.RuneCountInString(pattern), req.Length), CodeBadRequest)
		return
	}

	limit := req.Limit
	if limit < 1 {
		limit = limits.DefaultLimit
	}
	limit = min(limit, limits.MaxLimit)
	if req.Offset < 0 {
		s.sendError(req.ID, "offset must not be negative", CodeBadRequest)
		return
	}

	res, err := s.matcher.MatchPage(req.Length, pattern, req.Offset, limit)
	if err != nil {
		s.sendMatchError(req.ID, err)
		return
	}

	s.sendResponse(MatchResponse{
		ID:        req.ID,
		Words:     res.Words,
		Count:     res.Count,
		Remaining: res.Remaining(),
		TimeTaken: res.Elapsed.Microseconds(),
	})
}

func (s *Server) sendMatchError(id string, err error) {
	switch {
	case errors.Is(err, match.ErrNoIndex):
		s.sendError(id, err.Error(), CodeNoIndex)
	case errors.Is(err, index.ErrPatternLengthMismatch):
		s.sendError(id, err.Error(), CodeBadRequest)
	default:
		log.Errorf("Match failed: %v", err)
		s.sendError(id, err.Error(), CodeInternal)
	}
}

func (s *Server) handleInfo(req Request) {
	if s.loader.Current() == nil {
		s.sendError(req.ID, match.ErrNoIndex.Error(), CodeNoIndex)
		return
	}
	s.sendResponse(IndexResponse{
		ID:         req.ID,
		Status:     "ok",
		Generation: s.loader.Generation(),
		Lengths:    s.loader.GetLengthInfo(),
	})
}

func (s *Server) handleReload(req Request) {
	start := time.Now()
	if err := s.loader.Reload(); err != nil {
		log.Errorf("Reload failed: %v", err)
		s.sendResponse(IndexResponse{
			ID:         req.ID,
			Status:     "error",
			Generation: s.loader.Generation(),
			Error:      err.Error(),
		})
		return
	}
	log.Debugf("Reloaded index in %v", time.Since(start))
	s.sendResponse(IndexResponse{
		ID:         req.ID,
		Status:     "ok",
		Generation: s.loader.Generation(),
		Lengths:    s.loader.GetLengthInfo(),
	})
}

// sendResponse encodes response to the output stream.
func (s *Server) sendResponse(response any) {
	if err := s.encoder.Encode(response); err != nil {
		log.Errorf("Encoding response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(ErrorResponse{ID: id, Error: message, Code: code})
}
