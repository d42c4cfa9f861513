package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/zoobzio/enhancer/internal/config"
	"github.com/zoobzio/enhancer/nodes"
)

const (
	maxBodyBytes        = 32 << 20 // conditioning payloads can be large
	shutdownGracePeriod = 10 * time.Second
	readTimeout         = 30 * time.Second
	writeTimeout        = 120 * time.Second
	idleTimeout         = 120 * time.Second
)

// Server exposes registered nodes over HTTP.
type Server struct {
	cfg      config.Config
	registry *nodes.Registry
	app      *echo.Echo
	address  string
}

// New constructs an HTTP server wired with routing and middleware.
func New(cfg config.Config, registry *nodes.Registry) (*Server, error) {
	if registry == nil {
		return nil, errors.New("registry must not be nil")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = jsonErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency: true,
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"error", v.Error,
			)
			return nil
		},
	}))
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", maxBodyBytes>>20)))

	srv := &Server{
		cfg:      cfg,
		registry: registry,
		app:      e,
		address:  fmt.Sprintf(":%d", cfg.Server.Port),
	}

	srv.registerRoutes()

	return srv, nil
}

// Handler returns the routed handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.app
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	slog.Info("starting server", "addr", s.address, "nodes", s.registry.Names())

	httpServer := &http.Server{
		Addr:         s.address,
		Handler:      s.app,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		slog.Info("server shutdown complete")
		return nil
	})

	return g.Wait()
}

func (s *Server) registerRoutes() {
	s.app.GET("/health", s.handleHealth)
	s.app.GET("/object_info", s.handleObjectInfo)
	s.app.GET("/object_info/:node", s.handleNodeInfo)
	s.app.POST("/nodes/:node/execute", s.handleExecute)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleObjectInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, s.registry.Specs())
}

func (s *Server) handleNodeInfo(c echo.Context) error {
	node, err := s.node(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, node.Spec())
}

type executeRequest struct {
	Inputs map[string]json.RawMessage `json:"inputs"`
}

type executeResponse struct {
	Outputs []any `json:"outputs"`
}

// handleExecute runs a node. Node failures are part of a 200 response; only
// routing and decoding problems become HTTP errors.
func (s *Server) handleExecute(c echo.Context) error {
	node, err := s.node(c)
	if err != nil {
		return err
	}

	var req executeRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}

	inputs, err := bindInputs(node.Spec(), req.Inputs)
	if err != nil {
		return err
	}

	outputs := node.Execute(c.Request().Context(), inputs)
	return c.JSON(http.StatusOK, executeResponse{Outputs: outputs})
}

func (s *Server) node(c echo.Context) (nodes.Node, error) {
	name := c.Param("node")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	node, ok := s.registry.Get(name)
	if !ok {
		return nil, requestError{
			Status:  http.StatusNotFound,
			Message: fmt.Sprintf("unknown node %q", name),
			Type:    "not_found",
		}
	}
	return node, nil
}

// bindInputs decodes STRING inputs and keeps CONDITIONING inputs as raw JSON
// so they can be handed back unchanged.
func bindInputs(spec nodes.Spec, raw map[string]json.RawMessage) (map[string]any, error) {
	inputs := make(map[string]any, len(raw))
	for name, value := range raw {
		if in, _, ok := spec.Lookup(name); ok && in.Type == nodes.TypeConditioning {
			inputs[name] = value
			continue
		}
		var v any
		if err := json.Unmarshal(value, &v); err != nil {
			return nil, requestError{
				Status:  http.StatusBadRequest,
				Message: fmt.Sprintf("invalid value for input %q: %v", name, err),
				Type:    "invalid_request_error",
			}
		}
		inputs[name] = v
	}
	return inputs, nil
}

func decodeRequestBody[T any](c echo.Context, target *T) error {
	req := c.Request()
	defer req.Body.Close()

	req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBodyBytes)

	decoder := json.NewDecoder(req.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return requestError{
				Status:  http.StatusBadRequest,
				Message: "request body is required",
				Type:    "invalid_request_error",
			}
		}
		return requestError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("invalid JSON payload: %v", err),
			Type:    "invalid_request_error",
		}
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: "request body must contain a single JSON object",
			Type:    "invalid_request_error",
		}
	}
	return nil
}

type requestError struct {
	Status  int
	Message string
	Type    string
}

func (e requestError) Error() string {
	return e.Message
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func writeError(c echo.Context, status int, message, errType string) error {
	var payload errorBody
	payload.Error.Message = message
	payload.Error.Type = errType
	return c.JSON(status, payload)
}

func jsonErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var reqErr requestError
	if errors.As(err, &reqErr) {
		_ = writeError(c, reqErr.Status, reqErr.Message, reqErr.Type)
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		_ = writeError(c, he.Code, fmt.Sprint(he.Message), "invalid_request_error")
		return
	}

	slog.Error("unhandled server error", "err", err)
	_ = writeError(c, http.StatusInternalServerError, "internal server error", "server_error")
}
