package handlers

import (
	"net/http"
)

// Patterns lists the pattern catalog in catalog order.
func (a *App) Patterns(w http.ResponseWriter, r *http.Request) {
	patterns := a.Registry.List()
	items := make([]map[string]any, 0, len(patterns))
	for _, p := range patterns {
		slots := p.Slots
		if slots == nil {
			slots = []string{}
		}
		items = append(items, map[string]any{
			"name":           p.Name,
			"family":         p.Category,
			"required_slots": slots,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
