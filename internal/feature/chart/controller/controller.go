// Package controller はダッシュボードのチャート状態を管理します。
// UIトグル（メタル、ベンダー、スロット）をチャートのシリーズに同期させます。
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"bullion_backend/internal/feature/chart/domain/entity"
)

// Series はラインチャート上の1本のシリーズです。
type Series interface {
	SetData(points []entity.Point)
}

// LineChart は複数シリーズを持つラインチャートです。
type LineChart interface {
	AddLineSeries(color string) Series
	RemoveSeries(s Series)
	FitContent()
}

// CandleChart はローソク足チャートです。
type CandleChart interface {
	SetCandles(candles []entity.Candle)
	FitContent()
}

// Swatches はスロットごとの色見本を表示・非表示にします。
type Swatches interface {
	Show(slot entity.Slot, color string)
	Hide(slot entity.Slot)
}

// Header は「Today's Real」価格の表示先です。
type Header interface {
	SetTodayPrice(price decimal.Decimal)
}

// PriceClient は価格APIへのアクセスを抽象化します。
type PriceClient interface {
	LineData(ctx context.Context, vendor, category string) ([]entity.Point, error)
	AveragePrice(ctx context.Context, prefix string) (decimal.NullDecimal, error)
	History(ctx context.Context, path string) ([]entity.Candle, error)
}

// Views はコントローラーが描画するUI部品の集合です。
type Views struct {
	Line     LineChart
	Candles  map[entity.Metal]CandleChart
	Swatches Swatches
	Header   Header
}

// Options はコントローラーの初期状態です。
type Options struct {
	Mappings map[entity.Metal]entity.CategoryMapping
	Palette  []string
	Metal    entity.Metal
	Vendor   string
	// History はメタルごとのローソク足CSVのパスです。
	History map[entity.Metal]string
}

// Controller はチャートの状態を明示的に保持します。
// mu はフェッチ中には保持しません。
type Controller struct {
	client PriceClient
	views  Views

	mu       sync.Mutex
	mappings map[entity.Metal]entity.CategoryMapping
	palette  []string
	history  map[entity.Metal]string
	metal    entity.Metal
	mapping  entity.CategoryMapping
	vendor   string
	checked  map[entity.Slot]bool
	series   map[entity.Slot]Series
	seq      map[entity.Slot]uint64
	hdrSeq   uint64
}

// New はControllerを生成します。Metal の mapping が存在しない場合はエラーを返します。
func New(client PriceClient, views Views, opts Options) (*Controller, error) {
	if client == nil || views.Line == nil {
		return nil, errors.New("controller: client and line chart are required")
	}
	mapping, ok := opts.Mappings[opts.Metal]
	if !ok {
		return nil, fmt.Errorf("controller: no category mapping for metal %q", opts.Metal)
	}
	if strings.TrimSpace(opts.Vendor) == "" {
		return nil, errors.New("controller: vendor is required")
	}
	palette := opts.Palette
	if len(palette) == 0 {
		palette = entity.DefaultPalette
	}
	return &Controller{
		client:   client,
		views:    views,
		mappings: opts.Mappings,
		palette:  palette,
		history:  opts.History,
		metal:    opts.Metal,
		mapping:  mapping,
		vendor:   opts.Vendor,
		checked:  make(map[entity.Slot]bool),
		series:   make(map[entity.Slot]Series),
		seq:      make(map[entity.Slot]uint64),
	}, nil
}

// Metal は現在選択中のメタルを返します。
func (c *Controller) Metal() entity.Metal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metal
}

// Vendor は現在選択中のベンダーを返します。
func (c *Controller) Vendor() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vendor
}

// Mapping は現在有効なカテゴリマッピングを返します。
func (c *Controller) Mapping() entity.CategoryMapping {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mapping
}

// Checked はチェック中のスロットを昇順で返します。
func (c *Controller) Checked() []entity.Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkedLocked()
}

// HasSeries はスロットにシリーズが存在するかを返します。
func (c *Controller) HasSeries(slot entity.Slot) bool {
	_, ok := c.SeriesOf(slot)
	return ok
}

// SeriesOf はスロットに付いているシリーズを返します。
func (c *Controller) SeriesOf(slot entity.Slot) (Series, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.series[slot]
	return s, ok
}

// SetSlotChecked はチェックボックス変更時の処理です。
// 既存シリーズを削除し、チェックされていればデータを取得して新しいシリーズを追加します。
// 取得失敗時はシリーズなしのチェック状態のまま、エラーを返します。
func (c *Controller) SetSlotChecked(ctx context.Context, slot entity.Slot, checked bool) error {
	if !slot.Valid() {
		return fmt.Errorf("slot %d out of range", slot)
	}

	c.mu.Lock()
	if checked {
		c.checked[slot] = true
	} else {
		delete(c.checked, slot)
	}
	c.mu.Unlock()

	return c.refresh(ctx, slot)
}

// RebuildSeries はチェック中のスロットのシリーズを現在のメタル・ベンダーで作り直します。
// チェックされていないスロットは何もしません。
func (c *Controller) RebuildSeries(ctx context.Context, slot entity.Slot) error {
	if !slot.Valid() {
		return fmt.Errorf("slot %d out of range", slot)
	}
	return c.refresh(ctx, slot)
}

// SetMetal はカテゴリマッピングを丸ごと切り替え、ヘッダー価格を更新し、
// チェック中の全スロットを再構築します。
func (c *Controller) SetMetal(ctx context.Context, metal entity.Metal) error {
	c.mu.Lock()
	mapping, ok := c.mappings[metal]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("no category mapping for metal %q", metal)
	}
	c.metal = metal
	c.mapping = mapping
	slots := c.checkedLocked()
	c.mu.Unlock()

	errs := []error{c.RefreshHeader(ctx)}
	errs = append(errs, c.rebuildAll(ctx, slots)...)
	return errors.Join(errs...)
}

// SetVendor はベンダーを切り替え、チェック状態を変えずにチェック中の全スロットを再取得します。
func (c *Controller) SetVendor(ctx context.Context, vendor string) error {
	if strings.TrimSpace(vendor) == "" {
		return errors.New("vendor is required")
	}
	c.mu.Lock()
	c.vendor = vendor
	slots := c.checkedLocked()
	c.mu.Unlock()

	return errors.Join(c.rebuildAll(ctx, slots)...)
}

// RefreshHeader は現在のメタルの平均価格をヘッダーに表示します。
// 後から発行されたリクエストがある場合やメタルが切り替わった場合、古い結果は破棄します。
func (c *Controller) RefreshHeader(ctx context.Context) error {
	c.mu.Lock()
	c.hdrSeq++
	seq := c.hdrSeq
	metal := c.metal
	c.mu.Unlock()

	avg, err := c.client.AveragePrice(ctx, string(metal))

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hdrSeq != seq || c.metal != metal {
		slog.Debug("dropping stale average response", "metal", metal)
		return nil
	}
	if err != nil {
		slog.Warn("average price fetch failed", "metal", metal, "error", err)
		return fmt.Errorf("average price %s: %w", metal, err)
	}
	if !avg.Valid {
		slog.Info("no average price available", "metal", metal)
		return nil
	}
	if c.views.Header != nil {
		c.views.Header.SetTodayPrice(avg.Decimal.Round(2))
	}
	return nil
}

// Load は初期表示を行います。メタルごとのローソク足チャートを描画し、
// ヘッダー価格を更新したあと、初期チェック済みのスロットを処理します。
func (c *Controller) Load(ctx context.Context, initiallyChecked []entity.Slot) error {
	var errs []error

	metals := make([]entity.Metal, 0, len(c.views.Candles))
	for m := range c.views.Candles {
		metals = append(metals, m)
	}
	sort.Slice(metals, func(i, j int) bool { return metals[i] > metals[j] })

	for _, m := range metals {
		path, ok := c.history[m]
		if !ok {
			continue
		}
		candles, err := c.client.History(ctx, path)
		if err != nil {
			slog.Warn("history fetch failed", "metal", m, "path", path, "error", err)
			errs = append(errs, fmt.Errorf("history %s: %w", m, err))
			continue
		}
		chart := c.views.Candles[m]
		chart.SetCandles(candles)
		chart.FitContent()
	}

	errs = append(errs, c.RefreshHeader(ctx))

	for _, s := range initiallyChecked {
		if err := c.SetSlotChecked(ctx, s, true); err != nil {
			errs = append(errs, err)
		}
	}
	c.views.Line.FitContent()
	return errors.Join(errs...)
}

func (c *Controller) rebuildAll(ctx context.Context, slots []entity.Slot) []error {
	var errs []error
	for _, s := range slots {
		if err := c.refresh(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// refresh はスロットの既存シリーズを外し、チェック中であれば再取得して付け直します。
// 同一スロットで後から発行されたリクエストがある場合、古い結果は破棄します。
func (c *Controller) refresh(ctx context.Context, slot entity.Slot) error {
	c.mu.Lock()
	c.removeSeriesLocked(slot)
	c.seq[slot]++
	seq := c.seq[slot]

	if !c.checked[slot] {
		c.hideSwatch(slot)
		c.views.Line.FitContent()
		c.mu.Unlock()
		return nil
	}

	binding, _ := c.mapping.Binding(slot)
	vendor := c.mapping.VendorFor(slot, c.vendor)
	color := entity.ColorFor(c.palette, slot)
	c.mu.Unlock()

	points, err := c.client.LineData(ctx, vendor, binding.Category)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.seq[slot] != seq {
		slog.Debug("dropping stale series response", "slot", slot.ID(), "vendor", vendor, "category", binding.Category)
		return nil
	}
	if err != nil {
		slog.Warn("series fetch failed", "slot", slot.ID(), "vendor", vendor, "category", binding.Category, "error", err)
		c.hideSwatch(slot)
		c.views.Line.FitContent()
		return fmt.Errorf("series %s (%s/%s): %w", slot.ID(), vendor, binding.Category, err)
	}

	s := c.views.Line.AddLineSeries(color)
	s.SetData(points)
	c.series[slot] = s
	if c.views.Swatches != nil {
		c.views.Swatches.Show(slot, color)
	}
	c.views.Line.FitContent()
	return nil
}

func (c *Controller) removeSeriesLocked(slot entity.Slot) {
	if s, ok := c.series[slot]; ok {
		c.views.Line.RemoveSeries(s)
		delete(c.series, slot)
	}
}

func (c *Controller) hideSwatch(slot entity.Slot) {
	if c.views.Swatches != nil {
		c.views.Swatches.Hide(slot)
	}
}

func (c *Controller) checkedLocked() []entity.Slot {
	out := make([]entity.Slot, 0, len(c.checked))
	for s := range c.checked {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
