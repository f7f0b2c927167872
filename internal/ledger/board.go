package ledger

import (
	"context"
	"time"

	"github.com/mmynk/lunchtab/internal/calculator"
	"github.com/mmynk/lunchtab/internal/models"
)

// Board is everything one user's screen shows, computed from a single
// snapshot of the store.
type Board struct {
	Menu *models.Menu `json:"menu"`

	// Items is the menu filtered by the search term.
	Items []models.Item `json:"items"`

	Users []*models.User `json:"users"`

	// Me is the actor's own user; a zero balance placeholder if the actor
	// has not logged in yet.
	Me *models.User `json:"me"`

	TodayOrders []*models.Order      `json:"todayOrders"`
	History     []calculator.DayGroup `json:"history"`
	TotalDebt   int64                 `json:"totalDebt"`

	OrderingClosed bool      `json:"orderingClosed"`
	Now            time.Time `json:"now"`
}

// Board loads the latest menu, users and orders and derives every view.
// The three reads are not a transaction; a board taken mid-operation may
// briefly show an order before its charge.
func (e *Engine) Board(ctx context.Context, actor Actor, search string) (*Board, error) {
	menu, err := e.store.GetMenu(ctx)
	if err != nil {
		return nil, e.storeError("board", err)
	}
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return nil, e.storeError("board", err)
	}
	orders, err := e.store.ListOrders(ctx)
	if err != nil {
		return nil, e.storeError("board", err)
	}

	now := e.clock.Now()
	board := &Board{
		Menu:           menu,
		Items:          calculator.FilterItems(menu.Items, search),
		Users:          users,
		Me:             &models.User{Name: actor.UserName},
		TodayOrders:    calculator.TodayOrders(orders, now, e.loc),
		History:        calculator.GroupHistory(orders, actor.UserName, e.loc),
		TotalDebt:      calculator.TotalDebt(users),
		OrderingClosed: IsClosed(menu.OrderDeadline, now, e.loc),
		Now:            now,
	}
	for _, u := range users {
		if u.Name == actor.UserName {
			board.Me = u
			break
		}
	}
	return board, nil
}

// History returns the actor's orders grouped by local day.
func (e *Engine) History(ctx context.Context, actor Actor) ([]calculator.DayGroup, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	orders, err := e.store.ListOrders(ctx)
	if err != nil {
		return nil, e.storeError("history", err)
	}
	return calculator.GroupHistory(orders, actor.UserName, e.loc), nil
}
