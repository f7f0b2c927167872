package service

import (
	"net/http"

	"connectrpc.com/connect"
	"github.com/mmynk/lunchtab/internal/auth"
	"github.com/mmynk/lunchtab/internal/metrics"
	"github.com/mmynk/lunchtab/internal/middleware"
	"github.com/mmynk/lunchtab/internal/rpc"
)

// PublicProcedures can be called without a session: the login screen needs
// them before anyone has a token.
var PublicProcedures = []string{
	rpc.LedgerServiceLoginProcedure,
	rpc.LedgerServiceListUsersProcedure,
	rpc.MenuServiceGetMenuProcedure,
}

// Mount registers both services on mux behind the session and logging
// interceptors.
func Mount(mux *http.ServeMux, ledgerSvc *LedgerService, menuSvc *MenuService, sessions *auth.SessionManager, m *metrics.Metrics) {
	interceptors := connect.WithInterceptors(
		middleware.RequireSession(sessions, PublicProcedures...),
		middleware.NewLoggingInterceptor(m),
	)

	ledgerPath, ledgerHandler := rpc.NewLedgerServiceHandler(ledgerSvc, interceptors)
	mux.Handle(ledgerPath, ledgerHandler)

	menuPath, menuHandler := rpc.NewMenuServiceHandler(menuSvc, interceptors)
	mux.Handle(menuPath, menuHandler)
}
