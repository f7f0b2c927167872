package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/mmynk/lunchtab/internal/metrics"
)

// LoggingInterceptor logs every RPC call and records its latency.
// It logs the procedure name, user name, duration, and any error codes/messages.
// Install it after the session interceptor so the user is known.
type LoggingInterceptor struct {
	metrics *metrics.Metrics
}

var _ connect.Interceptor = (*LoggingInterceptor)(nil)

// NewLoggingInterceptor returns a logging interceptor. m may be nil.
func NewLoggingInterceptor(m *metrics.Metrics) *LoggingInterceptor {
	return &LoggingInterceptor{metrics: m}
}

func (i *LoggingInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		i.record(ctx, req.Spec().Procedure, start, err)
		return resp, err
	}
}

func (i *LoggingInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *LoggingInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		start := time.Now()
		slog.Info("Stream opened", "procedure", conn.Spec().Procedure, "user_name", SessionFrom(ctx).UserName)
		err := next(ctx, conn)
		if errors.Is(err, context.Canceled) {
			// client went away
			err = nil
		}
		i.record(ctx, conn.Spec().Procedure, start, err)
		return err
	}
}

func (i *LoggingInterceptor) record(ctx context.Context, procedure string, start time.Time, err error) {
	elapsed := time.Since(start)
	duration := elapsed.Milliseconds()
	userName := SessionFrom(ctx).UserName // empty before login

	code := "ok"
	if err != nil {
		var connectErr *connect.Error
		if errors.As(err, &connectErr) {
			code = connectErr.Code().String()
			slog.Warn("RPC error",
				"procedure", procedure,
				"code", connectErr.Code(),
				"error", connectErr.Message(),
				"user_name", userName,
				"duration_ms", duration,
			)
		} else {
			code = connect.CodeUnknown.String()
			slog.Error("RPC error",
				"procedure", procedure,
				"error", err,
				"user_name", userName,
				"duration_ms", duration,
			)
		}
	} else {
		slog.Info("RPC ok",
			"procedure", procedure,
			"user_name", userName,
			"duration_ms", duration,
		)
	}
	i.metrics.ObserveRPC(procedure, code, elapsed.Seconds())
}
