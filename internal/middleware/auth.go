package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/mmynk/lunchtab/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// SessionKey is the context key for storing the caller's session.
const SessionKey contextKey = "session"

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s auth.Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

// SessionFrom extracts the session from the context.
// The zero Session (no user, not admin) is returned if none is set.
func SessionFrom(ctx context.Context) auth.Session {
	s, _ := ctx.Value(SessionKey).(auth.Session)
	return s
}

// SessionInterceptor validates the bearer token on every RPC except the
// public ones and stores the session in the context. It covers unary calls
// and server streams.
type SessionInterceptor struct {
	sessions *auth.SessionManager
	public   map[string]bool
}

var _ connect.Interceptor = (*SessionInterceptor)(nil)

// RequireSession returns an interceptor that rejects calls without a valid
// token, except for the listed procedures (login, for example).
func RequireSession(sessions *auth.SessionManager, publicProcedures ...string) *SessionInterceptor {
	public := make(map[string]bool, len(publicProcedures))
	for _, p := range publicProcedures {
		public[p] = true
	}
	return &SessionInterceptor{sessions: sessions, public: public}
}

func (i *SessionInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		ctx, err := i.authenticate(ctx, req.Spec().Procedure, req.Header())
		if err != nil {
			return nil, err
		}
		return next(ctx, req)
	}
}

func (i *SessionInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *SessionInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		ctx, err := i.authenticate(ctx, conn.Spec().Procedure, conn.RequestHeader())
		if err != nil {
			return err
		}
		return next(ctx, conn)
	}
}

func (i *SessionInterceptor) authenticate(ctx context.Context, procedure string, header http.Header) (context.Context, error) {
	authHeader := header.Get("Authorization")
	if authHeader == "" {
		if i.public[procedure] {
			return ctx, nil
		}
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	// Parse Bearer token
	tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || tokenString == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
	}

	session, err := i.sessions.Validate(tokenString)
	if err != nil {
		if i.public[procedure] {
			return ctx, nil
		}
		slog.Warn("Rejected session", "procedure", procedure, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, err)
	}

	return WithSession(ctx, session), nil
}
