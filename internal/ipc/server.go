package ipc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"time"

	"soundconverter/internal/jobs"
	"soundconverter/internal/logging"
	"soundconverter/internal/services"
)

// Handler executes a decoded request.
type Handler func(ctx context.Context, req jobs.Request, sink jobs.Sink) (jobs.Result, error)

// Server answers a single request.
type Server struct {
	handler  Handler
	defaults Defaults
	logger   *slog.Logger
	now      func() time.Time
}

// ServerOption customises a Server.
type ServerOption func(*Server)

// WithDefaults sets request defaults.
func WithDefaults(d Defaults) ServerOption {
	return func(s *Server) { s.defaults = d }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer constructs a Server around handler.
func NewServer(handler Handler, opts ...ServerOption) *Server {
	s := &Server{handler: handler, logger: logging.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve reads the request from in, writes events to out, and returns the
// process exit code.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) int {
	w := NewWriter(out)
	data, err := io.ReadAll(in)
	if err != nil {
		return s.respondError(w, OperationInit, services.New(services.ErrValidation, services.CodeJSON, "read request", err))
	}
	if IsEmpty(data) {
		s.logger.Info("empty request; reporting ready")
		_ = w.Emit(ReadyEvent{Status: StatusReady, Message: "Backend ready"})
		return services.ExitSuccess
	}

	req, err := Decode(data, s.defaults)
	if err != nil {
		s.logger.Warn("request rejected",
			logging.String("error_code", string(services.CodeOf(err))),
			logging.Error(err),
		)
		return s.respondError(w, OperationInit, err)
	}
	return s.Execute(ctx, req, w)
}

// Execute runs an already decoded request and writes its events to w.
func (s *Server) Execute(ctx context.Context, req jobs.Request, w *Writer) (code int) {
	op := string(req.Operation)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("unexpected panic", logging.Any("panic", r))
			err := services.New(services.ErrFatal, services.CodeFatal, fmt.Sprint(r), nil).
				With("traceback", string(debug.Stack()))
			code = s.respondError(w, op, err)
		}
	}()

	result, err := s.handler(ctx, req, w)
	if err != nil {
		return s.respondError(w, op, err)
	}
	outputs := result.Outputs
	if outputs == nil {
		outputs = []string{}
	}
	_ = w.Emit(Response{
		Status:        StatusSuccess,
		Operation:     op,
		OperationType: op,
		Message:       result.Message,
		Outputs:       outputs,
		Data:          result.Data,
		Timestamp:     timestamp(s.now()),
	})
	return services.ExitSuccess
}

func (s *Server) respondError(w *Writer, op string, err error) int {
	message := services.MessageOf(err)
	_ = w.Emit(Response{
		Status:        StatusError,
		Operation:     op,
		OperationType: op,
		Message:       message,
		Outputs:       []string{},
		Error: &ErrorBody{
			Code:    string(services.CodeOf(err)),
			Message: message,
			Details: services.DetailsOf(err),
		},
		Timestamp: timestamp(s.now()),
	})
	return services.ExitCode(err)
}

// Reject writes a terminal error event for a failure that happened before a
// request could be handled and returns the exit code.
func (s *Server) Reject(out io.Writer, err error) int {
	return s.respondError(NewWriter(out), OperationInit, err)
}
