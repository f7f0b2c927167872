package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// LedgerServiceName is the fully-qualified name of the LedgerService.
const LedgerServiceName = "lunchtab.v1.LedgerService"

// Procedure paths, one per RPC.
const (
	LedgerServiceLoginProcedure        = "/" + LedgerServiceName + "/Login"
	LedgerServiceElevateAdminProcedure = "/" + LedgerServiceName + "/ElevateAdmin"
	LedgerServiceListUsersProcedure    = "/" + LedgerServiceName + "/ListUsers"
	LedgerServicePlaceOrderProcedure   = "/" + LedgerServiceName + "/PlaceOrder"
	LedgerServiceCancelOrderProcedure  = "/" + LedgerServiceName + "/CancelOrder"
	LedgerServiceSettleDebtProcedure   = "/" + LedgerServiceName + "/SettleDebt"
	LedgerServiceGetBoardProcedure     = "/" + LedgerServiceName + "/GetBoard"
	LedgerServiceGetHistoryProcedure   = "/" + LedgerServiceName + "/GetHistory"
	LedgerServiceReconcileProcedure    = "/" + LedgerServiceName + "/Reconcile"
	LedgerServiceWatchBoardProcedure   = "/" + LedgerServiceName + "/WatchBoard"
)

// LedgerServiceHandler serves users, orders, balances and the live board.
type LedgerServiceHandler interface {
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
	ElevateAdmin(context.Context, *connect.Request[ElevateAdminRequest]) (*connect.Response[ElevateAdminResponse], error)
	ListUsers(context.Context, *connect.Request[ListUsersRequest]) (*connect.Response[ListUsersResponse], error)
	PlaceOrder(context.Context, *connect.Request[PlaceOrderRequest]) (*connect.Response[PlaceOrderResponse], error)
	CancelOrder(context.Context, *connect.Request[CancelOrderRequest]) (*connect.Response[CancelOrderResponse], error)
	SettleDebt(context.Context, *connect.Request[SettleDebtRequest]) (*connect.Response[SettleDebtResponse], error)
	GetBoard(context.Context, *connect.Request[GetBoardRequest]) (*connect.Response[GetBoardResponse], error)
	GetHistory(context.Context, *connect.Request[GetHistoryRequest]) (*connect.Response[GetHistoryResponse], error)
	Reconcile(context.Context, *connect.Request[ReconcileRequest]) (*connect.Response[ReconcileResponse], error)
	WatchBoard(context.Context, *connect.Request[WatchBoardRequest], *connect.ServerStream[BoardUpdate]) error
}

// NewLedgerServiceHandler builds an HTTP handler for svc and returns the path to
// mount it on.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	login := connect.NewUnaryHandler(LedgerServiceLoginProcedure, svc.Login, opts...)
	elevateAdmin := connect.NewUnaryHandler(LedgerServiceElevateAdminProcedure, svc.ElevateAdmin, opts...)
	listUsers := connect.NewUnaryHandler(LedgerServiceListUsersProcedure, svc.ListUsers, opts...)
	placeOrder := connect.NewUnaryHandler(LedgerServicePlaceOrderProcedure, svc.PlaceOrder, opts...)
	cancelOrder := connect.NewUnaryHandler(LedgerServiceCancelOrderProcedure, svc.CancelOrder, opts...)
	settleDebt := connect.NewUnaryHandler(LedgerServiceSettleDebtProcedure, svc.SettleDebt, opts...)
	getBoard := connect.NewUnaryHandler(LedgerServiceGetBoardProcedure, svc.GetBoard, opts...)
	getHistory := connect.NewUnaryHandler(LedgerServiceGetHistoryProcedure, svc.GetHistory, opts...)
	reconcile := connect.NewUnaryHandler(LedgerServiceReconcileProcedure, svc.Reconcile, opts...)
	watchBoard := connect.NewServerStreamHandler(LedgerServiceWatchBoardProcedure, svc.WatchBoard, opts...)
	return "/" + LedgerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case LedgerServiceLoginProcedure:
			login.ServeHTTP(w, r)
		case LedgerServiceElevateAdminProcedure:
			elevateAdmin.ServeHTTP(w, r)
		case LedgerServiceListUsersProcedure:
			listUsers.ServeHTTP(w, r)
		case LedgerServicePlaceOrderProcedure:
			placeOrder.ServeHTTP(w, r)
		case LedgerServiceCancelOrderProcedure:
			cancelOrder.ServeHTTP(w, r)
		case LedgerServiceSettleDebtProcedure:
			settleDebt.ServeHTTP(w, r)
		case LedgerServiceGetBoardProcedure:
			getBoard.ServeHTTP(w, r)
		case LedgerServiceGetHistoryProcedure:
			getHistory.ServeHTTP(w, r)
		case LedgerServiceReconcileProcedure:
			reconcile.ServeHTTP(w, r)
		case LedgerServiceWatchBoardProcedure:
			watchBoard.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// LedgerServiceClient calls a LedgerService over HTTP.
type LedgerServiceClient struct {
	login        *connect.Client[LoginRequest, LoginResponse]
	elevateAdmin *connect.Client[ElevateAdminRequest, ElevateAdminResponse]
	listUsers    *connect.Client[ListUsersRequest, ListUsersResponse]
	placeOrder   *connect.Client[PlaceOrderRequest, PlaceOrderResponse]
	cancelOrder  *connect.Client[CancelOrderRequest, CancelOrderResponse]
	settleDebt   *connect.Client[SettleDebtRequest, SettleDebtResponse]
	getBoard     *connect.Client[GetBoardRequest, GetBoardResponse]
	getHistory   *connect.Client[GetHistoryRequest, GetHistoryResponse]
	reconcile    *connect.Client[ReconcileRequest, ReconcileResponse]
	watchBoard   *connect.Client[WatchBoardRequest, BoardUpdate]
}

// NewLedgerServiceClient creates a client for the service at baseURL.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &LedgerServiceClient{
		login: connect.NewClient[LoginRequest, LoginResponse](httpClient, baseURL+LedgerServiceLoginProcedure, opts...),
		elevateAdmin: connect.NewClient[ElevateAdminRequest, ElevateAdminResponse](httpClient, baseURL+LedgerServiceElevateAdminProcedure, opts...),
		listUsers: connect.NewClient[ListUsersRequest, ListUsersResponse](httpClient, baseURL+LedgerServiceListUsersProcedure, opts...),
		placeOrder: connect.NewClient[PlaceOrderRequest, PlaceOrderResponse](httpClient, baseURL+LedgerServicePlaceOrderProcedure, opts...),
		cancelOrder: connect.NewClient[CancelOrderRequest, CancelOrderResponse](httpClient, baseURL+LedgerServiceCancelOrderProcedure, opts...),
		settleDebt: connect.NewClient[SettleDebtRequest, SettleDebtResponse](httpClient, baseURL+LedgerServiceSettleDebtProcedure, opts...),
		getBoard: connect.NewClient[GetBoardRequest, GetBoardResponse](httpClient, baseURL+LedgerServiceGetBoardProcedure, opts...),
		getHistory: connect.NewClient[GetHistoryRequest, GetHistoryResponse](httpClient, baseURL+LedgerServiceGetHistoryProcedure, opts...),
		reconcile: connect.NewClient[ReconcileRequest, ReconcileResponse](httpClient, baseURL+LedgerServiceReconcileProcedure, opts...),
		watchBoard: connect.NewClient[WatchBoardRequest, BoardUpdate](httpClient, baseURL+LedgerServiceWatchBoardProcedure, opts...),
	}
}

func (c *LedgerServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ElevateAdmin(ctx context.Context, req *connect.Request[ElevateAdminRequest]) (*connect.Response[ElevateAdminResponse], error) {
	return c.elevateAdmin.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ListUsers(ctx context.Context, req *connect.Request[ListUsersRequest]) (*connect.Response[ListUsersResponse], error) {
	return c.listUsers.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) PlaceOrder(ctx context.Context, req *connect.Request[PlaceOrderRequest]) (*connect.Response[PlaceOrderResponse], error) {
	return c.placeOrder.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) CancelOrder(ctx context.Context, req *connect.Request[CancelOrderRequest]) (*connect.Response[CancelOrderResponse], error) {
	return c.cancelOrder.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) SettleDebt(ctx context.Context, req *connect.Request[SettleDebtRequest]) (*connect.Response[SettleDebtResponse], error) {
	return c.settleDebt.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) GetBoard(ctx context.Context, req *connect.Request[GetBoardRequest]) (*connect.Response[GetBoardResponse], error) {
	return c.getBoard.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) GetHistory(ctx context.Context, req *connect.Request[GetHistoryRequest]) (*connect.Response[GetHistoryResponse], error) {
	return c.getHistory.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) Reconcile(ctx context.Context, req *connect.Request[ReconcileRequest]) (*connect.Response[ReconcileResponse], error) {
	return c.reconcile.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) WatchBoard(ctx context.Context, req *connect.Request[WatchBoardRequest]) (*connect.ServerStreamForClient[BoardUpdate], error) {
	return c.watchBoard.CallServerStream(ctx, req)
}
