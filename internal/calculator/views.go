package calculator

import (
	"sort"
	"strings"
	"time"

	"github.com/mmynk/lunchtab/internal/models"
)

// FilterItems keeps items whose name contains term, case-insensitively.
// An empty term keeps everything. Menu order is preserved.
func FilterItems(items []models.Item, term string) []models.Item {
	if term == "" {
		return append([]models.Item{}, items...)
	}
	needle := strings.ToLower(term)

	filtered := []models.Item{}
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), needle) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// TodayOrders keeps orders created at or after local midnight of now,
// newest first.
func TodayOrders(orders []*models.Order, now time.Time, loc *time.Location) []*models.Order {
	start := StartOfDay(now, loc)

	today := []*models.Order{}
	for _, o := range orders {
		if !o.CreatedAt.Before(start) {
			today = append(today, o)
		}
	}
	sortNewestFirst(today)
	return today
}

// DayGroup is one calendar day of a user's order history.
type DayGroup struct {
	// Date is the local calendar day, formatted 2006-01-02.
	Date   string          `json:"date"`
	Orders []*models.Order `json:"orders"`
	Total  int64           `json:"total"`
}

// GroupHistory groups userName's orders by the local calendar day of
// CreatedAt. Within a group orders are newest first. The order of the groups
// themselves is not part of the contract; callers that need a chronological
// list must sort it.
func GroupHistory(orders []*models.Order, userName string, loc *time.Location) []DayGroup {
	mine := make([]*models.Order, 0, len(orders))
	for _, o := range orders {
		if o.UserName == userName {
			mine = append(mine, o)
		}
	}
	sortNewestFirst(mine)

	index := make(map[string]int)
	var groups []DayGroup
	for _, o := range mine {
		day := o.CreatedAt.In(loc).Format(time.DateOnly)
		i, ok := index[day]
		if !ok {
			i = len(groups)
			index[day] = i
			groups = append(groups, DayGroup{Date: day})
		}
		groups[i].Orders = append(groups[i].Orders, o)
		groups[i].Total += o.Price
	}
	return groups
}

func sortNewestFirst(orders []*models.Order) {
	// stable: the store's own newest-first order breaks ties
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
