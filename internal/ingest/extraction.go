package ingest

import (
	"math"
	"strings"

	"github.com/mmynk/lunchtab/internal/analysis"
	"github.com/mmynk/lunchtab/internal/ident"
	"github.com/mmynk/lunchtab/internal/models"
)

// toMenu maps a model extraction onto a menu. Missing restaurant fields
// become empty strings, a missing item list becomes empty, prices are
// rounded to whole units and clamped at zero, and every item gets a fresh
// id from ids.
func toMenu(ext *analysis.Extraction, ids *ident.Monotonic) models.Menu {
	var menu models.Menu
	if ext.Restaurant != nil {
		menu.Restaurant = models.Restaurant{
			Name:    strings.TrimSpace(ext.Restaurant.Name),
			Phone:   strings.TrimSpace(ext.Restaurant.Phone),
			Address: strings.TrimSpace(ext.Restaurant.Address),
		}
	}

	itemIDs := ids.Batch(len(ext.Items))
	menu.Items = make([]models.Item, 0, len(ext.Items))
	for i, it := range ext.Items {
		price := int64(math.Round(it.Price))
		if price < 0 {
			price = 0
		}
		menu.Items = append(menu.Items, models.Item{
			ID:    itemIDs[i],
			Name:  strings.TrimSpace(it.Name),
			Price: price,
		})
	}
	return menu
}
