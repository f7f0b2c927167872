package models

import "time"

// TodayMenuID is the key of the singleton menu document.
const TodayMenuID = "today"

// Restaurant describes where today's food comes from. Every field may be empty.
type Restaurant struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Item is one priced entry on the menu.
type Item struct {
	// ID is unique within the menu. Ids are synthetic and assigned locally,
	// either per ingestion batch or per manual add.
	ID string `json:"id"`

	Name string `json:"name"`

	// Price is a non-negative integer amount.
	Price int64 `json:"price"`
}

// Menu is the single "today" menu shared by the whole group.
//
// It is replaced wholesale when a new menu image is ingested (keeping any
// deadline already set) and edited item by item by admins.
type Menu struct {
	Restaurant Restaurant `json:"restaurant"`

	// Items keeps insertion order; derived views rely on it.
	Items []Item `json:"items"`

	// ImageURL is a renderable reference to the menu photo (a data URL).
	ImageURL string `json:"imageUrl"`

	// OrderDeadline is an optional local "HH:MM" time after which non-admins
	// can no longer order. Empty means no deadline.
	OrderDeadline string `json:"orderDeadline"`

	// UpdatedAt is set by the store on every save.
	UpdatedAt time.Time `json:"updatedAt"`
}

// FindItem returns the item with the given id, or nil.
func (m *Menu) FindItem(id string) *Item {
	for i := range m.Items {
		if m.Items[i].ID == id {
			return &m.Items[i]
		}
	}
	return nil
}

// Clone returns a deep copy so callers can edit the item list without
// touching a shared snapshot.
func (m *Menu) Clone() *Menu {
	c := *m
	c.Items = append([]Item(nil), m.Items...)
	return &c
}
