// Package render はチャートのインメモリ実装とPNG出力を提供します。
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"bullion_backend/internal/feature/chart/controller"
	"bullion_backend/internal/feature/chart/domain/entity"
)

// ErrNoData はシリーズが空で描画できない場合に返されます。
var ErrNoData = errors.New("render: no data to draw")

const dateFormat = "2006-01-02"

var (
	_ controller.LineChart   = (*LineChart)(nil)
	_ controller.CandleChart = (*CandleChart)(nil)
	_ controller.Swatches    = (*Swatches)(nil)
	_ controller.Header      = (*Header)(nil)
)

// Size は出力画像のピクセルサイズです。
type Size struct {
	Width  int
	Height int
}

// DefaultSize はダッシュボードのチャートサイズです。
var DefaultSize = Size{Width: 1250, Height: 300}

// LineSeries は1本のラインシリーズです。
type LineSeries struct {
	mu     sync.Mutex
	color  string
	points []entity.Point
}

// SetData はシリーズのデータを置き換えます。
func (s *LineSeries) SetData(points []entity.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append([]entity.Point(nil), points...)
}

// Color はシリーズの色を返します。
func (s *LineSeries) Color() string { return s.color }

// Points はシリーズのデータのコピーを返します。
func (s *LineSeries) Points() []entity.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Point(nil), s.points...)
}

// LineChart は複数シリーズのラインチャートです。
type LineChart struct {
	Title string

	mu     sync.Mutex
	series []*LineSeries
	fits   int
}

// AddLineSeries は指定色のシリーズを追加します。
func (l *LineChart) AddLineSeries(color string) controller.Series {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := &LineSeries{color: color}
	l.series = append(l.series, s)
	return s
}

// RemoveSeries はシリーズを取り外します。未登録のシリーズは無視します。
func (l *LineChart) RemoveSeries(s controller.Series) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, cur := range l.series {
		if controller.Series(cur) == s {
			l.series = append(l.series[:i], l.series[i+1:]...)
			return
		}
	}
}

// FitContent は時間軸をデータ範囲に合わせます。描画時に常に全範囲を使うため回数のみ記録します。
func (l *LineChart) FitContent() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fits++
}

// Series は現在付いているシリーズを追加順で返します。
func (l *LineChart) Series() []*LineSeries {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*LineSeries(nil), l.series...)
}

// RenderPNG は現在のシリーズをPNGとして書き出します。
func (l *LineChart) RenderPNG(w io.Writer, size Size) error {
	var series []chart.Series
	for i, s := range l.Series() {
		ts, ok := timeSeries(fmt.Sprintf("series-%d", i+1), s.Points(), func(p entity.Point) decimal.Decimal { return p.Value })
		if !ok {
			continue
		}
		ts.Style = lineStyle(s.Color(), 2)
		series = append(series, ts)
	}
	return draw(w, l.Title, size, series)
}

// CandleChart はローソク足チャートです。
// go-chart にローソク足がないため、終値・高値・安値の3本線で描画します。
type CandleChart struct {
	Title string

	mu      sync.Mutex
	candles []entity.Candle
	fits    int
}

// SetCandles はデータを置き換えます。
func (c *CandleChart) SetCandles(candles []entity.Candle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.candles = append([]entity.Candle(nil), candles...)
}

// FitContent は回数のみ記録します。
func (c *CandleChart) FitContent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fits++
}

// Candles はデータのコピーを返します。
func (c *CandleChart) Candles() []entity.Candle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entity.Candle(nil), c.candles...)
}

// RenderPNG はローソク足をPNGとして書き出します。
func (c *CandleChart) RenderPNG(w io.Writer, size Size) error {
	candles := c.Candles()
	pick := func(field func(entity.Candle) decimal.Decimal) []entity.Point {
		out := make([]entity.Point, len(candles))
		for i, cd := range candles {
			out[i] = entity.Point{Time: cd.Time, Value: field(cd)}
		}
		return out
	}
	value := func(p entity.Point) decimal.Decimal { return p.Value }

	var series []chart.Series
	if ts, ok := timeSeries("high", pick(func(cd entity.Candle) decimal.Decimal { return cd.High }), value); ok {
		ts.Style = lineStyle("#26A69A", 1)
		series = append(series, ts)
	}
	if ts, ok := timeSeries("low", pick(func(cd entity.Candle) decimal.Decimal { return cd.Low }), value); ok {
		ts.Style = lineStyle("#EF5350", 1)
		series = append(series, ts)
	}
	if ts, ok := timeSeries("close", pick(func(cd entity.Candle) decimal.Decimal { return cd.Close }), value); ok {
		ts.Style = lineStyle("#2962FF", 2)
		series = append(series, ts)
	}
	return draw(w, c.Title, size, series)
}

// Swatches はスロットごとの色見本の表示状態を保持します。
type Swatches struct {
	mu      sync.Mutex
	visible map[entity.Slot]string
}

// NewSwatches は全スロット非表示のSwatchesを生成します。
func NewSwatches() *Swatches {
	return &Swatches{visible: make(map[entity.Slot]string)}
}

func (s *Swatches) Show(slot entity.Slot, color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible[slot] = color
}

func (s *Swatches) Hide(slot entity.Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.visible, slot)
}

// Color は表示中の色見本の色を返します。
func (s *Swatches) Color(slot entity.Slot) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.visible[slot]
	return c, ok
}

// Header は「Today's Real」表示です。
type Header struct {
	mu    sync.Mutex
	price decimal.Decimal
	set   bool
}

func (h *Header) SetTodayPrice(price decimal.Decimal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.price, h.set = price, true
}

// Text は表示文字列を返します。価格未設定の場合は空文字です。
func (h *Header) Text() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.set {
		return ""
	}
	return "Today's Real: $" + h.price.StringFixed(2)
}

// timeSeries はgo-chartのTimeSeriesを作ります。1点のみの場合は描画できるよう翌日分を補います。
func timeSeries(name string, points []entity.Point, value func(entity.Point) decimal.Decimal) (chart.TimeSeries, bool) {
	if len(points) == 0 {
		return chart.TimeSeries{}, false
	}
	xs := make([]time.Time, 0, len(points)+1)
	ys := make([]float64, 0, len(points)+1)
	for _, p := range points {
		xs = append(xs, p.Time)
		ys = append(ys, value(p).InexactFloat64())
	}
	// Pad to at least two X values for go-chart
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(24*time.Hour))
		ys = append(ys, ys[0])
	}
	return chart.TimeSeries{Name: name, XValues: xs, YValues: ys}, true
}

func lineStyle(hex string, width float64) chart.Style {
	return chart.Style{
		StrokeColor: drawing.ColorFromHex(strings.TrimPrefix(hex, "#")),
		StrokeWidth: width,
	}
}

func draw(w io.Writer, title string, size Size, series []chart.Series) error {
	if len(series) == 0 {
		return ErrNoData
	}
	if size.Width <= 0 || size.Height <= 0 {
		size = DefaultSize
	}
	ch := chart.Chart{
		Title:      title,
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 16, Right: 12, Bottom: 12}},
		XAxis:      chart.XAxis{ValueFormatter: chart.TimeValueFormatterWithFormat(dateFormat)},
		YAxis:      chart.YAxis{Range: flatRange(series)},
		Series:     series,
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	return nil
}

// flatRange は全シリーズのY値が同一の場合に上下1の幅を持つ範囲を返します。
// go-chart は幅ゼロのY範囲を描画できません。
func flatRange(series []chart.Series) chart.Range {
	first := true
	var lo, hi float64
	for _, s := range series {
		ts, ok := s.(chart.TimeSeries)
		if !ok {
			return nil
		}
		for _, y := range ts.YValues {
			if first {
				lo, hi, first = y, y, false
				continue
			}
			lo, hi = min(lo, y), max(hi, y)
		}
	}
	if first || lo != hi {
		return nil
	}
	return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
}
