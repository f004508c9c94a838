// Package httpclient はダッシュボードAPIを呼び出すPriceClient実装を提供します。
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bullion_backend/internal/feature/chart/controller"
	"bullion_backend/internal/feature/chart/domain/entity"
)

const (
	dateLayout   = "2006-01-02"
	errBodyLimit = 512
)

// PriceClient はHTTP経由で価格APIにアクセスします。
type PriceClient struct {
	baseURL *url.URL
	http    *http.Client
}

var _ controller.PriceClient = (*PriceClient)(nil)

// NewPriceClient は baseURL（例: http://localhost:8080）に対するクライアントを生成します。
func NewPriceClient(baseURL string, hc *http.Client) (*PriceClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &PriceClient{baseURL: u, http: hc}, nil
}

type observationResponse struct {
	Date  string      `json:"date"`
	Price json.Number `json:"price"`
}

type averageResponse struct {
	Avg *json.Number `json:"avg"`
}

// LineData は /data からベンダーとカテゴリの価格系列を取得します。
func (p *PriceClient) LineData(ctx context.Context, vendor, category string) ([]entity.Point, error) {
	q := url.Values{}
	q.Set("vendor", vendor)
	q.Set("category", category)

	var rows []observationResponse
	if err := p.getJSON(ctx, "/data", q, &rows); err != nil {
		return nil, err
	}

	out := make([]entity.Point, 0, len(rows))
	for _, r := range rows {
		t, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", r.Date, err)
		}
		v, err := decimal.NewFromString(r.Price.String())
		if err != nil {
			return nil, fmt.Errorf("parse price %q: %w", r.Price, err)
		}
		out = append(out, entity.Point{Time: t, Value: v})
	}
	return out, nil
}

// AveragePrice は /average から前方一致カテゴリの最新平均を取得します。
func (p *PriceClient) AveragePrice(ctx context.Context, prefix string) (decimal.NullDecimal, error) {
	q := url.Values{}
	q.Set("category", prefix)

	var rows []averageResponse
	if err := p.getJSON(ctx, "/average", q, &rows); err != nil {
		return decimal.NullDecimal{}, err
	}
	if len(rows) == 0 || rows[0].Avg == nil {
		return decimal.NullDecimal{}, nil
	}
	v, err := decimal.NewFromString(rows[0].Avg.String())
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parse avg %q: %w", rows[0].Avg, err)
	}
	return decimal.NullDecimal{Decimal: v, Valid: true}, nil
}

// History は静的配信されているローソク足CSVを取得します。
func (p *PriceClient) History(ctx context.Context, path string) ([]entity.Candle, error) {
	resp, err := p.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	return entity.ParseCandlesCSV(resp.Body)
}

func (p *PriceClient) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	resp, err := p.get(ctx, path, q)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// get はリクエストを送信し、2xx以外のレスポンスをエラーに変換します。
func (p *PriceClient) get(ctx context.Context, path string, q url.Values) (*http.Response, error) {
	u := *p.baseURL
	u.Path = u.Path + path
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return nil, fmt.Errorf("GET %s: HTTP error! status: %d: %s", path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return resp, nil
}
