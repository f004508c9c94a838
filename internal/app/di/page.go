package di

import (
	"bullion_backend/internal/feature/chart/domain/entity"
	"bullion_backend/internal/feature/chart/transport/http/dto"
	"bullion_backend/internal/platform/config"
)

// NewPageView builds the root page data from the dashboard configuration.
// Slot labels come from the default metal.
func NewPageView(cfg *config.Config) dto.PageView {
	checked := make(map[int]bool, len(cfg.InitiallyChecked))
	for _, n := range cfg.InitiallyChecked {
		checked[n] = true
	}

	metals := []string{string(entity.Silver), string(entity.Gold)}
	slots := make([]dto.SlotView, 0, config.SlotCount)
	for i := 0; i < config.SlotCount; i++ {
		slot := entity.Slot(i + 1)
		sv := dto.SlotView{
			ID:         slot.ID(),
			Label:      cfg.Metals[cfg.DefaultMetal][i].Label,
			Color:      entity.ColorFor(cfg.Palette, slot),
			Checked:    checked[i+1],
			Categories: make(map[string]string, len(metals)),
			Spot:       make(map[string]bool, len(metals)),
		}
		if sv.Label == "" {
			sv.Label = cfg.Metals[cfg.DefaultMetal][i].Category
		}
		for _, m := range metals {
			b := cfg.Metals[m][i]
			sv.Categories[m] = b.Category
			sv.Spot[m] = b.Spot
		}
		slots = append(slots, sv)
	}

	return dto.PageView{
		Title:         "Bullion Price Dashboard",
		Vendors:       cfg.Vendors,
		DefaultVendor: cfg.DefaultVendor,
		DefaultMetal:  cfg.DefaultMetal,
		Metals:        metals,
		Slots:         slots,
		History:       cfg.History,
	}
}

// CategoryMappings converts the configured metal variants into chart mappings.
func CategoryMappings(cfg *config.Config) map[entity.Metal]entity.CategoryMapping {
	out := make(map[entity.Metal]entity.CategoryMapping, len(cfg.Metals))
	for name, slots := range cfg.Metals {
		m := entity.CategoryMapping{Metal: entity.Metal(name)}
		for i := 0; i < entity.SlotCount && i < len(slots); i++ {
			m.Slots[i] = entity.SlotBinding{Label: slots[i].Label, Category: slots[i].Category, Spot: slots[i].Spot}
		}
		out[m.Metal] = m
	}
	return out
}
