package entity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var timeLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/2006",
}

// ParseCandlesCSV は time,open,high,low,close 形式のCSVを読み込みます。
// 空行とヘッダー行は無視し、不正な行は行番号付きのエラーを返します。
func ParseCandlesCSV(r io.Reader) ([]Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []Candle
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read candles csv: %w", err)
		}
		line, _ := cr.FieldPos(0)

		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(rec[0]), "time") {
			continue
		}
		if len(rec) < 5 {
			return nil, fmt.Errorf("candles csv line %d: expected 5 fields, got %d", line, len(rec))
		}

		ts, err := parseTime(rec[0])
		if err != nil {
			return nil, fmt.Errorf("candles csv line %d: %w", line, err)
		}
		var vals [4]decimal.Decimal
		for i := range vals {
			v, err := decimal.NewFromString(strings.TrimSpace(rec[i+1]))
			if err != nil {
				return nil, fmt.Errorf("candles csv line %d: field %d: %w", line, i+2, err)
			}
			vals[i] = v
		}
		out = append(out, Candle{Time: ts, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]})
	}
	return out, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	// unix seconds
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
