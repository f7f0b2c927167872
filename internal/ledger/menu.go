package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmynk/lunchtab/internal/events"
	"github.com/mmynk/lunchtab/internal/models"
)

// RestaurantField names one editable restaurant attribute.
type RestaurantField string

const (
	FieldName    RestaurantField = "name"
	FieldPhone   RestaurantField = "phone"
	FieldAddress RestaurantField = "address"
)

// GetMenu returns today's menu.
func (e *Engine) GetMenu(ctx context.Context) (*models.Menu, error) {
	menu, err := e.store.GetMenu(ctx)
	if err != nil {
		return nil, e.storeError("get_menu", err)
	}
	return menu, nil
}

// editMenu runs a read-modify-write of the menu document. Concurrent edits
// are last writer wins.
func (e *Engine) editMenu(ctx context.Context, actor Actor, op string, edit func(*models.Menu) error) (*models.Menu, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	current, err := e.store.GetMenu(ctx)
	if err != nil {
		return nil, e.storeError(op, err)
	}
	menu := current.Clone()
	if err := edit(menu); err != nil {
		return nil, err
	}
	if err := e.store.SaveMenu(ctx, menu); err != nil {
		return nil, e.storeError(op, err)
	}
	e.logger.Info("Menu updated", "op", op, "by", actor.UserName, "items", len(menu.Items))
	e.publish(ctx, events.Event{Type: events.MenuEdited, Actor: actor.UserName})
	return menu, nil
}

// AddItem appends an item with a fresh synthetic id.
func (e *Engine) AddItem(ctx context.Context, actor Actor, name string, price int64) (*models.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: item name is required", models.ErrValidation)
	}
	if price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative, got %d", models.ErrValidation, price)
	}

	item := models.Item{ID: e.itemIDs.Next(), Name: name, Price: price}
	_, err := e.editMenu(ctx, actor, "add_item", func(m *models.Menu) error {
		m.Items = append(m.Items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem drops an item from the menu. Orders already placed for it keep
// their snapshot of name and price.
func (e *Engine) RemoveItem(ctx context.Context, actor Actor, itemID string) error {
	_, err := e.editMenu(ctx, actor, "remove_item", func(m *models.Menu) error {
		kept := m.Items[:0]
		for _, item := range m.Items {
			if item.ID != itemID {
				kept = append(kept, item)
			}
		}
		if len(kept) == len(m.Items) {
			return fmt.Errorf("%w: menu item %q", models.ErrNotFound, itemID)
		}
		m.Items = kept
		return nil
	})
	return err
}

// UpdateRestaurant sets one restaurant attribute.
func (e *Engine) UpdateRestaurant(ctx context.Context, actor Actor, field RestaurantField, value string) (*models.Menu, error) {
	value = strings.TrimSpace(value)
	return e.editMenu(ctx, actor, "update_restaurant", func(m *models.Menu) error {
		switch field {
		case FieldName:
			m.Restaurant.Name = value
		case FieldPhone:
			m.Restaurant.Phone = value
		case FieldAddress:
			m.Restaurant.Address = value
		default:
			return fmt.Errorf("%w: unknown restaurant field %q", models.ErrValidation, field)
		}
		return nil
	})
}

// SetRestaurant replaces all restaurant attributes at once.
func (e *Engine) SetRestaurant(ctx context.Context, actor Actor, r models.Restaurant) (*models.Menu, error) {
	return e.editMenu(ctx, actor, "set_restaurant", func(m *models.Menu) error {
		m.Restaurant = models.Restaurant{
			Name:    strings.TrimSpace(r.Name),
			Phone:   strings.TrimSpace(r.Phone),
			Address: strings.TrimSpace(r.Address),
		}
		return nil
	})
}

// SetDeadline sets the local "HH:MM" ordering deadline. An empty deadline
// keeps ordering open all day.
func (e *Engine) SetDeadline(ctx context.Context, actor Actor, deadline string) (*models.Menu, error) {
	deadline = strings.TrimSpace(deadline)
	if deadline != "" {
		if _, _, err := ParseDeadline(deadline); err != nil {
			return nil, err
		}
	}
	return e.editMenu(ctx, actor, "set_deadline", func(m *models.Menu) error {
		m.OrderDeadline = deadline
		return nil
	})
}

// ReplaceMenu installs a freshly ingested menu. Items, restaurant and image
// are replaced; the deadline already set on the stored menu is kept.
func (e *Engine) ReplaceMenu(ctx context.Context, actor Actor, ingested *models.Menu) (*models.Menu, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	current, err := e.store.GetMenu(ctx)
	if err != nil {
		return nil, e.storeError("replace_menu", err)
	}

	menu := ingested.Clone()
	if menu.Items == nil {
		menu.Items = []models.Item{}
	}
	menu.OrderDeadline = current.OrderDeadline

	if err := e.store.SaveMenu(ctx, menu); err != nil {
		return nil, e.storeError("replace_menu", err)
	}
	e.logger.Info("Menu replaced", "by", actor.UserName, "restaurant", menu.Restaurant.Name, "items", len(menu.Items))
	e.publish(ctx, events.Event{Type: events.MenuReplaced, Actor: actor.UserName})
	return menu, nil
}
