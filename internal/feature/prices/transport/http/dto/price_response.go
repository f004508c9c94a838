// Package dto defines data transfer objects for the prices HTTP API.
package dto

import "encoding/json"

// ObservationResponse は価格系列の1行を表すレスポンスDTOです。
type ObservationResponse struct {
	Date     string      `json:"date"`     // 日付 (YYYY-MM-DD)
	Vendor   string      `json:"vendor"`   // ベンダー
	Category string      `json:"category"` // カテゴリ
	Price    json.Number `json:"price"`    // 価格
}

// AverageResponse は最新日付の平均価格です。該当なしの場合 Avg は null になります。
type AverageResponse struct {
	Avg *json.Number `json:"avg"`
}

// SpotPriceResponse は最新スポット価格です。
type SpotPriceResponse struct {
	Price json.Number `json:"price"`
}

// CheapestPriceResponse はフルカバレッジ日付の最安値です。
type CheapestPriceResponse struct {
	Price  json.Number `json:"price"`
	Vendor string      `json:"vendor"`
	Date   string      `json:"date"`
}
