package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mmynk/lunchtab/internal/calculator"
	"github.com/mmynk/lunchtab/internal/events"
	"github.com/mmynk/lunchtab/internal/models"
	"github.com/mmynk/lunchtab/internal/storage"
)

// MaxQuantity caps a single order line.
const MaxQuantity = 1000

// OrderRequest is what a user submits to order an item.
type OrderRequest struct {
	ItemID   string
	Quantity int64
	Note     string
}

// PlaceOrder books an order for actor and adds its price to actor's balance.
//
// The order is written first and the balance incremented only after the
// store acknowledges it. If the increment fails the order is deleted again,
// so a failed PlaceOrder never leaves a charge without an order or an order
// without a charge (unless the compensation itself fails, which is logged).
func (e *Engine) PlaceOrder(ctx context.Context, actor Actor, req OrderRequest) (*models.Order, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if req.Quantity < 1 || req.Quantity > MaxQuantity {
		return nil, fmt.Errorf("%w: quantity must be between 1 and %d, got %d", models.ErrValidation, MaxQuantity, req.Quantity)
	}

	menu, err := e.store.GetMenu(ctx)
	if err != nil {
		return nil, e.storeError("place_order", err)
	}
	if !actor.IsAdmin && IsClosed(menu.OrderDeadline, e.clock.Now(), e.loc) {
		return nil, fmt.Errorf("%w: deadline was %s", models.ErrOrderingClosed, menu.OrderDeadline)
	}
	item := menu.FindItem(req.ItemID)
	if item == nil {
		return nil, fmt.Errorf("%w: menu item %q", models.ErrNotFound, req.ItemID)
	}
	price, err := calculator.OrderPrice(item.Price, req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrValidation, err)
	}

	order := &models.Order{
		ID:        uuid.New().String(),
		UserName:  actor.UserName,
		ItemID:    item.ID,
		ItemName:  item.Name,
		UnitPrice: item.Price,
		Quantity:  req.Quantity,
		Note:      strings.TrimSpace(req.Note),
		Price:     price,
	}

	if err := e.store.CreateOrder(ctx, order); err != nil {
		// The write may have landed even though it reported failure.
		if delErr := e.store.DeleteOrder(ctx, order.ID); delErr != nil && !errors.Is(delErr, storage.ErrNotFound) {
			e.logger.Warn("Failed to clear unacknowledged order", "order_id", order.ID, "error", delErr)
		}
		return nil, e.storeError("place_order", err)
	}

	if _, err := e.store.IncrementBalance(ctx, order.UserName, price); err != nil {
		if delErr := e.store.DeleteOrder(ctx, order.ID); delErr != nil {
			e.metrics.Compensated("place_order", false)
			e.logger.Error("Ledger drift: order kept without charge",
				"order_id", order.ID, "user_name", order.UserName, "price", price,
				"error", err, "compensation_error", delErr)
			return nil, e.storeError("place_order", errors.Join(err, delErr))
		}
		e.metrics.Compensated("place_order", true)
		return nil, e.storeError("place_order", err)
	}

	e.metrics.OrderPlaced()
	e.logger.Info("Order placed", "order_id", order.ID, "user_name", order.UserName, "item", order.ItemName, "price", price)
	e.publish(ctx, events.Event{
		Type:     events.OrderPlaced,
		Actor:    actor.UserName,
		UserName: order.UserName,
		OrderID:  order.ID,
		ItemName: order.ItemName,
		Amount:   price,
	})
	return order, nil
}

// CancelOrder deletes an order and subtracts its price from the owner's
// balance. Only the owner or an admin may cancel.
//
// If the refund fails the order is written back with its original id and
// timestamp.
func (e *Engine) CancelOrder(ctx context.Context, actor Actor, orderID string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if orderID == "" {
		return fmt.Errorf("%w: order id is required", models.ErrValidation)
	}

	order, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return e.storeError("cancel_order", err)
	}
	if !actor.IsAdmin && order.UserName != actor.UserName {
		return fmt.Errorf("%w: order belongs to another user", models.ErrUnauthorized)
	}

	if err := e.store.DeleteOrder(ctx, order.ID); err != nil {
		return e.storeError("cancel_order", err)
	}

	if _, err := e.store.IncrementBalance(ctx, order.UserName, -order.Price); err != nil {
		if restoreErr := e.store.CreateOrder(ctx, order); restoreErr != nil {
			e.metrics.Compensated("cancel_order", false)
			e.logger.Error("Ledger drift: order removed without refund",
				"order_id", order.ID, "user_name", order.UserName, "price", order.Price,
				"error", err, "compensation_error", restoreErr)
			return e.storeError("cancel_order", errors.Join(err, restoreErr))
		}
		e.metrics.Compensated("cancel_order", true)
		return e.storeError("cancel_order", err)
	}

	e.metrics.OrderCancelled()
	e.logger.Info("Order cancelled", "order_id", order.ID, "user_name", order.UserName, "by", actor.UserName)
	e.publish(ctx, events.Event{
		Type:     events.OrderCancelled,
		Actor:    actor.UserName,
		UserName: order.UserName,
		OrderID:  order.ID,
		ItemName: order.ItemName,
		Amount:   -order.Price,
	})
	return nil
}

// SettleDebt subtracts amount from target's balance after a real-world
// payment. Any amount is accepted; overshooting leaves a negative balance.
// Returns the new balance.
func (e *Engine) SettleDebt(ctx context.Context, actor Actor, target string, amount int64) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if target == "" {
		return 0, fmt.Errorf("%w: user name is required", models.ErrValidation)
	}

	balance, err := e.store.IncrementBalance(ctx, target, -amount)
	if err != nil {
		return 0, e.storeError("settle_debt", err)
	}

	settlement := &models.Settlement{
		UserName:  target,
		Amount:    amount,
		CreatedBy: actor.UserName,
		CreatedAt: e.clock.Now(),
	}
	if err := e.store.CreateSettlement(ctx, settlement); err != nil {
		e.metrics.SettlementUnrecorded(target)
		e.logger.Error("Ledger drift: settlement applied without record",
			"user_name", target, "amount", amount, "balance", balance, "error", err)
	}

	e.metrics.Settled()
	e.logger.Info("Debt settled", "user_name", target, "amount", amount, "balance", balance, "by", actor.UserName)
	e.publish(ctx, events.Event{
		Type:     events.DebtSettled,
		Actor:    actor.UserName,
		UserName: target,
		Amount:   -amount,
	})
	return balance, nil
}

// Reconcile reports users whose stored balance differs from the sum of their
// orders minus settlements. Read-only.
func (e *Engine) Reconcile(ctx context.Context, actor Actor) ([]calculator.BalanceDrift, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return nil, e.storeError("reconcile", err)
	}
	orders, err := e.store.ListOrders(ctx)
	if err != nil {
		return nil, e.storeError("reconcile", err)
	}
	settlements, err := e.store.ListSettlements(ctx)
	if err != nil {
		return nil, e.storeError("reconcile", err)
	}
	drifts := calculator.Reconcile(users, orders, settlements)
	if len(drifts) > 0 {
		e.logger.Warn("Balance drift detected", "users", len(drifts))
	}
	return drifts, nil
}
