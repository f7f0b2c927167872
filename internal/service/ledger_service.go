package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/mmynk/lunchtab/internal/auth"
	"github.com/mmynk/lunchtab/internal/ledger"
	"github.com/mmynk/lunchtab/internal/middleware"
	"github.com/mmynk/lunchtab/internal/rpc"
)

var _ rpc.LedgerServiceHandler = (*LedgerService)(nil)

// LedgerService implements the Connect LedgerService.
type LedgerService struct {
	engine   *ledger.Engine
	sessions *auth.SessionManager
	logger   *slog.Logger
}

// NewLedgerService creates a LedgerService backed by engine.
func NewLedgerService(engine *ledger.Engine, sessions *auth.SessionManager, logger *slog.Logger) *LedgerService {
	return &LedgerService{engine: engine, sessions: sessions, logger: logger}
}

// actor returns who is calling, from the session set by the auth interceptor.
func actor(ctx context.Context) ledger.Actor {
	s := middleware.SessionFrom(ctx)
	return ledger.Actor{UserName: s.UserName, IsAdmin: s.IsAdmin}
}

// Login resolves or creates the user and returns a non-admin session token.
func (s *LedgerService) Login(ctx context.Context, req *connect.Request[rpc.LoginRequest]) (*connect.Response[rpc.LoginResponse], error) {
	user, err := s.engine.Login(ctx, req.Msg.Name)
	if err != nil {
		return nil, connectError(err)
	}

	token, err := s.sessions.Generate(auth.Session{UserName: user.Name})
	if err != nil {
		s.logger.Error("Failed to generate token", "user_name", user.Name, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User logged in", "user_name", user.Name)
	return connect.NewResponse(&rpc.LoginResponse{User: user, Token: token}), nil
}

// ElevateAdmin exchanges the shared passcode for an admin session token.
func (s *LedgerService) ElevateAdmin(ctx context.Context, req *connect.Request[rpc.ElevateAdminRequest]) (*connect.Response[rpc.ElevateAdminResponse], error) {
	elevated, err := s.engine.ElevateAdmin(actor(ctx), req.Msg.Passcode)
	if err != nil {
		return nil, connectError(err)
	}

	token, err := s.sessions.Generate(auth.Session{UserName: elevated.UserName, IsAdmin: true})
	if err != nil {
		s.logger.Error("Failed to generate token", "user_name", elevated.UserName, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&rpc.ElevateAdminResponse{Token: token}), nil
}

// ListUsers returns every user, most recently active first.
func (s *LedgerService) ListUsers(ctx context.Context, req *connect.Request[rpc.ListUsersRequest]) (*connect.Response[rpc.ListUsersResponse], error) {
	users, err := s.engine.KnownUsers(ctx)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&rpc.ListUsersResponse{Users: users}), nil
}

func (s *LedgerService) PlaceOrder(ctx context.Context, req *connect.Request[rpc.PlaceOrderRequest]) (*connect.Response[rpc.PlaceOrderResponse], error) {
	order, err := s.engine.PlaceOrder(ctx, actor(ctx), ledger.OrderRequest{
		ItemID:   req.Msg.ItemID,
		Quantity: req.Msg.Quantity,
		Note:     req.Msg.Note,
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&rpc.PlaceOrderResponse{Order: order}), nil
}

func (s *LedgerService) CancelOrder(ctx context.Context, req *connect.Request[rpc.CancelOrderRequest]) (*connect.Response[rpc.CancelOrderResponse], error) {
	if err := s.engine.CancelOrder(ctx, actor(ctx), req.Msg.OrderID); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&rpc.CancelOrderResponse{}), nil
}

func (s *LedgerService) SettleDebt(ctx context.Context, req *connect.Request[rpc.SettleDebtRequest]) (*connect.Response[rpc.SettleDebtResponse], error) {
	balance, err := s.engine.SettleDebt(ctx, actor(ctx), req.Msg.UserName, req.Msg.Amount)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&rpc.SettleDebtResponse{Balance: balance}), nil
}

func (s *LedgerService) GetBoard(ctx context.Context, req *connect.Request[rpc.GetBoardRequest]) (*connect.Response[rpc.GetBoardResponse], error) {
	board, err := s.engine.Board(ctx, actor(ctx), req.Msg.Search)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&rpc.GetBoardResponse{Board: board}), nil
}

func (s *LedgerService) GetHistory(ctx context.Context, req *connect.Request[rpc.GetHistoryRequest]) (*connect.Response[rpc.GetHistoryResponse], error) {
	days, err := s.engine.History(ctx, actor(ctx))
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&rpc.GetHistoryResponse{Days: days}), nil
}

func (s *LedgerService) Reconcile(ctx context.Context, req *connect.Request[rpc.ReconcileRequest]) (*connect.Response[rpc.ReconcileResponse], error) {
	drifts, err := s.engine.Reconcile(ctx, actor(ctx))
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&rpc.ReconcileResponse{Drifts: drifts}), nil
}

// WatchBoard streams a fresh board after every change until the client
// disconnects.
func (s *LedgerService) WatchBoard(ctx context.Context, req *connect.Request[rpc.WatchBoardRequest], stream *connect.ServerStream[rpc.BoardUpdate]) error {
	err := s.engine.Watch(ctx, actor(ctx), req.Msg.Search, func(board *ledger.Board) error {
		return stream.Send(&rpc.BoardUpdate{Board: board})
	})
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return connectError(err)
}
