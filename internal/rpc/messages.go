package rpc

import (
	"github.com/mmynk/lunchtab/internal/calculator"
	"github.com/mmynk/lunchtab/internal/ledger"
	"github.com/mmynk/lunchtab/internal/models"
)

type LoginRequest struct {
	Name string `json:"name"`
}

type LoginResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type ElevateAdminRequest struct {
	Passcode string `json:"passcode"`
}

type ElevateAdminResponse struct {
	Token string `json:"token"`
}

type ListUsersRequest struct{}

type ListUsersResponse struct {
	Users []*models.User `json:"users"`
}

type PlaceOrderRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int64  `json:"quantity"`
	Note     string `json:"note"`
}

type PlaceOrderResponse struct {
	Order *models.Order `json:"order"`
}

type CancelOrderRequest struct {
	OrderID string `json:"orderId"`
}

type CancelOrderResponse struct{}

type SettleDebtRequest struct {
	UserName string `json:"userName"`
	Amount   int64  `json:"amount"`
}

type SettleDebtResponse struct {
	Balance int64 `json:"balance"`
}

type GetBoardRequest struct {
	Search string `json:"search"`
}

type GetBoardResponse struct {
	Board *ledger.Board `json:"board"`
}

type GetHistoryRequest struct{}

type GetHistoryResponse struct {
	Days []calculator.DayGroup `json:"days"`
}

type ReconcileRequest struct{}

type ReconcileResponse struct {
	Drifts []calculator.BalanceDrift `json:"drifts"`
}

type WatchBoardRequest struct {
	Search string `json:"search"`
}

// BoardUpdate is one message of the WatchBoard stream.
type BoardUpdate struct {
	Board *ledger.Board `json:"board"`
}

type GetMenuRequest struct{}

type GetMenuResponse struct {
	Menu *models.Menu `json:"menu"`
}

type AddItemRequest struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type AddItemResponse struct {
	Item *models.Item `json:"item"`
}

type RemoveItemRequest struct {
	ItemID string `json:"itemId"`
}

type RemoveItemResponse struct{}

type UpdateRestaurantRequest struct {
	// Field is "name", "phone" or "address". When empty, Restaurant
	// replaces all three.
	Field      string             `json:"field,omitempty"`
	Value      string             `json:"value,omitempty"`
	Restaurant *models.Restaurant `json:"restaurant,omitempty"`
}

type UpdateRestaurantResponse struct {
	Menu *models.Menu `json:"menu"`
}

type SetDeadlineRequest struct {
	// Deadline is local "HH:MM"; empty clears it.
	Deadline string `json:"deadline"`
}

type SetDeadlineResponse struct {
	Menu *models.Menu `json:"menu"`
}

type IngestMenuRequest struct {
	// Image is the raw upload, base64 encoded. A data URL prefix is accepted.
	Image string `json:"image"`
}

type IngestMenuResponse struct {
	Menu *models.Menu `json:"menu"`
}
