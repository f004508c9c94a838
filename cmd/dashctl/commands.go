package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"bullion_backend/internal/app/di"
	"bullion_backend/internal/feature/chart/adapters/render"
	"bullion_backend/internal/feature/chart/controller"
	"bullion_backend/internal/feature/chart/domain/entity"
	"bullion_backend/internal/platform/config"
)

type options struct {
	server     string
	configPath string
	metal      string
	vendor     string
	slots      []int
	timeout    time.Duration
}

type session struct {
	ctrl  *controller.Controller
	views *di.ChartViews
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "dashctl",
		Short:        "Drive the bullion price dashboard from the command line",
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.server, "server", "http://localhost:8080", "Dashboard server base URL")
	flags.StringVar(&opts.configPath, "config", os.Getenv("DASHBOARD_CONFIG"), "Dashboard YAML config (default: embedded)")
	flags.StringVar(&opts.metal, "metal", "", "Metal variant: gold or silver (default: config)")
	flags.StringVar(&opts.vendor, "vendor", "", "Vendor for non-spot slots (default: config)")
	flags.IntSliceVar(&opts.slots, "slots", nil, "Checked slots 1-6 (default: config)")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "HTTP request timeout")

	rootCmd.AddCommand(newRenderCmd(opts), newSeriesCmd(opts))
	return rootCmd
}

func newRenderCmd(opts *options) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the dashboard charts as PNG files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			charts := []struct {
				name string
				draw func(f *os.File) error
			}{
				{"spot-silver.png", func(f *os.File) error { return s.views.Silver.RenderPNG(f, render.DefaultSize) }},
				{"spot-gold.png", func(f *os.File) error { return s.views.Gold.RenderPNG(f, render.DefaultSize) }},
				{"real.png", func(f *os.File) error { return s.views.Line.RenderPNG(f, render.DefaultSize) }},
			}
			for _, c := range charts {
				path := filepath.Join(outDir, c.name)
				if err := writePNG(path, c.draw); err != nil {
					slog.Warn("chart not rendered", "file", path, "error", err)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			if text := s.views.Header.Text(); text != "" {
				fmt.Fprintln(cmd.OutOrStdout(), text)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	return cmd
}

type pointJSON struct {
	Date  string      `json:"date"`
	Value json.Number `json:"value"`
}

type slotJSON struct {
	Slot     string      `json:"slot"`
	Category string      `json:"category"`
	Vendor   string      `json:"vendor"`
	Color    string      `json:"color"`
	Points   []pointJSON `json:"points"`
}

type seriesJSON struct {
	Metal  string     `json:"metal"`
	Vendor string     `json:"vendor"`
	Header string     `json:"header,omitempty"`
	Slots  []slotJSON `json:"slots"`
}

func newSeriesCmd(opts *options) *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "series",
		Short: "Print the active line series as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}

			mapping := s.ctrl.Mapping()
			out := seriesJSON{
				Metal:  string(s.ctrl.Metal()),
				Vendor: s.ctrl.Vendor(),
				Header: s.views.Header.Text(),
				Slots:  []slotJSON{},
			}
			for _, slot := range s.ctrl.Checked() {
				series, ok := s.ctrl.SeriesOf(slot)
				if !ok {
					continue
				}
				ls, ok := series.(*render.LineSeries)
				if !ok {
					continue
				}
				b, _ := mapping.Binding(slot)
				sj := slotJSON{
					Slot:     slot.ID(),
					Category: b.Category,
					Vendor:   mapping.VendorFor(slot, out.Vendor),
					Color:    ls.Color(),
					Points:   []pointJSON{},
				}
				for _, p := range ls.Points() {
					sj.Points = append(sj.Points, pointJSON{Date: p.Time.Format("2006-01-02"), Value: json.Number(p.Value.String())})
				}
				out.Slots = append(out.Slots, sj)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(out)
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	return cmd
}

// openSession loads config, builds the controller and replays the
// initial dashboard state plus any metal/vendor overrides.
func openSession(ctx context.Context, opts *options) (*session, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	ctrl, views, err := di.NewChartController(cfg, opts.server, opts.timeout)
	if err != nil {
		return nil, err
	}

	slots := cfg.InitiallyChecked
	if opts.slots != nil {
		slots = opts.slots
	}
	initial := make([]entity.Slot, 0, len(slots))
	for _, n := range slots {
		s := entity.Slot(n)
		if !s.Valid() {
			return nil, fmt.Errorf("slot %d out of range 1-%d", n, entity.SlotCount)
		}
		initial = append(initial, s)
	}

	// Fetch failures are tolerated: the affected charts stay empty.
	if err := ctrl.Load(ctx, initial); err != nil {
		slog.Warn("dashboard loaded with errors", "error", err)
	}
	if opts.vendor != "" && opts.vendor != ctrl.Vendor() {
		if err := ctrl.SetVendor(ctx, opts.vendor); err != nil {
			slog.Warn("vendor switch incomplete", "vendor", opts.vendor, "error", err)
		}
	}
	if opts.metal != "" && entity.Metal(opts.metal) != ctrl.Metal() {
		if _, ok := cfg.Metals[opts.metal]; !ok {
			return nil, fmt.Errorf("unknown metal %q", opts.metal)
		}
		if err := ctrl.SetMetal(ctx, entity.Metal(opts.metal)); err != nil {
			slog.Warn("metal switch incomplete", "metal", opts.metal, "error", err)
		}
	}

	return &session{ctrl: ctrl, views: views}, nil
}

func writePNG(path string, draw func(f *os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := draw(f); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}
