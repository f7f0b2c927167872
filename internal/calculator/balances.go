// Package calculator holds the pure functions behind the ledger: order
// pricing, balance reconciliation and the derived views shown to users.
// Nothing here touches the store.
package calculator

import (
	"fmt"
	"math"
	"sort"

	"github.com/mmynk/lunchtab/internal/models"
)

// OrderPrice computes unitPrice × quantity. Quantity must be at least 1 and
// the product must fit in an int64.
func OrderPrice(unitPrice, quantity int64) (int64, error) {
	if quantity < 1 {
		return 0, fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}
	if unitPrice < 0 {
		return 0, fmt.Errorf("unit price cannot be negative, got %d", unitPrice)
	}
	if unitPrice != 0 && quantity > math.MaxInt64/unitPrice {
		return 0, fmt.Errorf("price of %d × %d overflows", unitPrice, quantity)
	}
	return unitPrice * quantity, nil
}

// TotalDebt sums every user's balance. Overshooting settlements make the
// total smaller (possibly negative); it is not clamped.
func TotalDebt(users []*models.User) int64 {
	var total int64
	for _, u := range users {
		total += u.Balance
	}
	return total
}

// ExpectedBalances rebuilds every balance from scratch:
// sum(order prices) - sum(settlements) per user.
func ExpectedBalances(orders []*models.Order, settlements []*models.Settlement) map[string]int64 {
	expected := make(map[string]int64)
	for _, o := range orders {
		expected[o.UserName] += o.Price
	}
	for _, s := range settlements {
		expected[s.UserName] -= s.Amount
	}
	return expected
}

// BalanceDrift describes a user whose stored balance disagrees with the
// balance implied by orders and settlements.
type BalanceDrift struct {
	UserName string `json:"userName"`
	Stored   int64  `json:"stored"`
	Expected int64  `json:"expected"`
}

// Difference is stored - expected.
func (d BalanceDrift) Difference() int64 {
	return d.Stored - d.Expected
}

// Reconcile compares stored balances against ExpectedBalances and returns
// every mismatch, sorted by user name. Users that appear only in orders or
// settlements are reported with a stored balance of 0.
func Reconcile(users []*models.User, orders []*models.Order, settlements []*models.Settlement) []BalanceDrift {
	expected := ExpectedBalances(orders, settlements)

	stored := make(map[string]int64, len(users))
	for _, u := range users {
		stored[u.Name] = u.Balance
		if _, ok := expected[u.Name]; !ok {
			expected[u.Name] = 0
		}
	}

	var drifts []BalanceDrift
	for name, want := range expected {
		if got := stored[name]; got != want {
			drifts = append(drifts, BalanceDrift{UserName: name, Stored: got, Expected: want})
		}
	}
	sort.Slice(drifts, func(i, j int) bool {
		return drifts[i].UserName < drifts[j].UserName
	})
	return drifts
}
