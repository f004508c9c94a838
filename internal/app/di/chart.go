package di

import (
	"time"

	"bullion_backend/internal/feature/chart/adapters/httpclient"
	"bullion_backend/internal/feature/chart/adapters/render"
	"bullion_backend/internal/feature/chart/controller"
	"bullion_backend/internal/feature/chart/domain/entity"
	"bullion_backend/internal/platform/config"
	infrahttp "bullion_backend/internal/platform/http"
)

// ChartViews are the in-memory chart views driven by the controller.
type ChartViews struct {
	Line     *render.LineChart
	Silver   *render.CandleChart
	Gold     *render.CandleChart
	Swatches *render.Swatches
	Header   *render.Header
}

// NewChartController creates a controller that talks to the dashboard API at
// baseURL and draws into in-memory views.
func NewChartController(cfg *config.Config, baseURL string, timeout time.Duration) (*controller.Controller, *ChartViews, error) {
	client, err := httpclient.NewPriceClient(baseURL, infrahttp.NewHTTPClient(timeout))
	if err != nil {
		return nil, nil, err
	}

	views := &ChartViews{
		Line:     &render.LineChart{Title: "Retail prices"},
		Silver:   &render.CandleChart{Title: "Spot silver"},
		Gold:     &render.CandleChart{Title: "Spot gold"},
		Swatches: render.NewSwatches(),
		Header:   &render.Header{},
	}

	history := make(map[entity.Metal]string, len(cfg.History))
	for m, p := range cfg.History {
		history[entity.Metal(m)] = p
	}

	ctrl, err := controller.New(client, controller.Views{
		Line:     views.Line,
		Candles:  map[entity.Metal]controller.CandleChart{entity.Silver: views.Silver, entity.Gold: views.Gold},
		Swatches: views.Swatches,
		Header:   views.Header,
	}, controller.Options{
		Mappings: CategoryMappings(cfg),
		Palette:  cfg.Palette,
		Metal:    entity.Metal(cfg.DefaultMetal),
		Vendor:   cfg.DefaultVendor,
		History:  history,
	})
	if err != nil {
		return nil, nil, err
	}
	return ctrl, views, nil
}
