// Package entity はchartフィーチャーのドメインエンティティを定義します。
package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SlotCount はメタルごとのラインチャート用トグル数です。
const SlotCount = 6

// SpotVendor はスポット価格を表すベンダーの番兵値です。
const SpotVendor = "spot"

// Metal はカテゴリマッピングのバリアントを表します。
type Metal string

const (
	Gold   Metal = "gold"
	Silver Metal = "silver"
)

// Slot は1から始まるUIトグルの位置です。
type Slot int

// Valid はスロットが 1..SlotCount の範囲内かを返します。
func (s Slot) Valid() bool {
	return s >= 1 && s <= SlotCount
}

// ID はチェックボックスのDOM IDを返します（例: option1）。
func (s Slot) ID() string {
	return "option" + strconv.Itoa(int(s))
}

// ParseSlot は "option3" または "3" をSlotに変換します。
func ParseSlot(id string) (Slot, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(id), "option"))
	if err != nil {
		return 0, fmt.Errorf("invalid slot %q", id)
	}
	s := Slot(n)
	if !s.Valid() {
		return 0, fmt.Errorf("slot %d out of range 1-%d", n, SlotCount)
	}
	return s, nil
}

// SlotBinding はスロットに割り当てられたカテゴリです。
// Spot が true の場合、ベンダーは常に "spot" として取得します。
type SlotBinding struct {
	Label    string
	Category string
	Spot     bool
}

// CategoryMapping はメタルごとの6スロット分のカテゴリ割り当てです。
type CategoryMapping struct {
	Metal Metal
	Slots [SlotCount]SlotBinding
}

// Binding はスロットに対応するカテゴリを返します。
func (m CategoryMapping) Binding(s Slot) (SlotBinding, bool) {
	if !s.Valid() {
		return SlotBinding{}, false
	}
	return m.Slots[s-1], true
}

// VendorFor はスロットの取得に使うベンダーを返します。
func (m CategoryMapping) VendorFor(s Slot, selected string) string {
	if b, ok := m.Binding(s); ok && b.Spot {
		return SpotVendor
	}
	return selected
}

// DefaultPalette はスロット位置で参照するライン色です。
var DefaultPalette = []string{"#2962FF", "#FF0000", "#00FF00", "#0000FF", "#FFFF00", "#FFA500"}

// ColorFor はパレットからスロット位置の色を返します。
func ColorFor(palette []string, s Slot) string {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return palette[(int(s)-1)%len(palette)]
}

// Point はラインシリーズの1点です。
type Point struct {
	Time  time.Time
	Value decimal.Decimal
}

// Candle はローソク足の1本です。
type Candle struct {
	Time  time.Time
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}
