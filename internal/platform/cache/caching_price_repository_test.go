package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"

	"bullion_backend/internal/feature/prices/domain/entity"
	"bullion_backend/internal/feature/prices/usecase"
)

// mockPriceRepository はテスト用のPriceRepositoryモック実装です。
type mockPriceRepository struct {
	findSeriesFn    func(ctx context.Context, vendor, category string) ([]entity.PriceObservation, error)
	latestAverageFn func(ctx context.Context, prefix string) (entity.Average, error)
	latestSpotFn    func(ctx context.Context, category string) (entity.PriceObservation, error)
	cheapestFn      func(ctx context.Context, category string) (entity.PriceObservation, error)
	calls           int
}

func (m *mockPriceRepository) FindSeries(ctx context.Context, vendor, category string) ([]entity.PriceObservation, error) {
	m.calls++
	if m.findSeriesFn != nil {
		return m.findSeriesFn(ctx, vendor, category)
	}
	return nil, nil
}

func (m *mockPriceRepository) LatestAverage(ctx context.Context, prefix string) (entity.Average, error) {
	m.calls++
	if m.latestAverageFn != nil {
		return m.latestAverageFn(ctx, prefix)
	}
	return entity.Average{}, nil
}

func (m *mockPriceRepository) LatestSpot(ctx context.Context, category string) (entity.PriceObservation, error) {
	m.calls++
	if m.latestSpotFn != nil {
		return m.latestSpotFn(ctx, category)
	}
	return entity.PriceObservation{}, nil
}

func (m *mockPriceRepository) CheapestAtFullCoverage(ctx context.Context, category string) (entity.PriceObservation, error) {
	m.calls++
	if m.cheapestFn != nil {
		return m.cheapestFn(ctx, category)
	}
	return entity.PriceObservation{}, nil
}

func fixedTTL(d time.Duration) func() time.Duration {
	return func() time.Duration { return d }
}

var testSeries = []entity.PriceObservation{
	{
		Date:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Vendor:   "jmbullion",
		Category: "gold-american-eagles",
		Price:    decimal.RequireFromString("2050.25"),
	},
}

// TestNewCachingPriceRepository_Defaults はデフォルト値（TTLとnamespace）が正しく設定されることを検証します。
func TestNewCachingPriceRepository_Defaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		ttl               func() time.Duration
		namespace         string
		expectedTTL       time.Duration
		expectedNamespace string
	}{
		{
			name:              "default values when nil/empty",
			expectedTTL:       5 * time.Minute,
			expectedNamespace: "prices",
		},
		{
			name:              "custom values preserved",
			ttl:               fixedTTL(10 * time.Minute),
			namespace:         "custom",
			expectedTTL:       10 * time.Minute,
			expectedNamespace: "custom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := NewCachingPriceRepository(nil, tt.ttl, &mockPriceRepository{}, tt.namespace)

			if got := repo.ttl(); got != tt.expectedTTL {
				t.Errorf("expected TTL %v, got %v", tt.expectedTTL, got)
			}
			if repo.namespace != tt.expectedNamespace {
				t.Errorf("expected namespace %q, got %q", tt.expectedNamespace, repo.namespace)
			}
		})
	}
}

// TestCachingPriceRepository_NilRedis はRedisがnilの場合にキャッシュをバイパスすることを検証します。
func TestCachingPriceRepository_NilRedis(t *testing.T) {
	t.Parallel()

	inner := &mockPriceRepository{
		findSeriesFn: func(ctx context.Context, vendor, category string) ([]entity.PriceObservation, error) {
			return testSeries, nil
		},
	}
	repo := NewCachingPriceRepository(nil, nil, inner, "prices")

	for i := 0; i < 2; i++ {
		rows, err := repo.FindSeries(context.Background(), "jmbullion", "gold-american-eagles")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 1 {
			t.Errorf("expected 1 row, got %d", len(rows))
		}
	}
	if inner.calls != 2 {
		t.Errorf("expected inner called twice, got %d", inner.calls)
	}
	if err := repo.Purge(context.Background()); err != nil {
		t.Errorf("purge without redis should be a no-op, got %v", err)
	}
}

// TestCachingPriceRepository_FindSeries_CacheHit はキャッシュヒット時に内部リポジトリを呼ばないことを検証します。
func TestCachingPriceRepository_FindSeries_CacheHit(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	cachedJSON, _ := json.Marshal(testSeries)
	mock.ExpectGet("prices:series:jmbullion:gold-american-eagles").SetVal(string(cachedJSON))

	inner := &mockPriceRepository{}
	repo := NewCachingPriceRepository(rdb, fixedTTL(5*time.Minute), inner, "prices")

	rows, err := repo.FindSeries(context.Background(), "jmbullion", "gold-american-eagles")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 0 {
		t.Error("inner repository should not be called on cache hit")
	}
	if len(rows) != 1 || !rows[0].Price.Equal(testSeries[0].Price) {
		t.Errorf("unexpected cached rows: %+v", rows)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestCachingPriceRepository_FindSeries_CacheMiss はキャッシュミス時にDBから取得し保存することを検証します。
func TestCachingPriceRepository_FindSeries_CacheMiss(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	expectedJSON, _ := json.Marshal(testSeries)
	mock.ExpectGet("prices:series:jmbullion:gold-american-eagles").RedisNil()
	mock.ExpectSet("prices:series:jmbullion:gold-american-eagles", expectedJSON, 5*time.Minute).SetVal("OK")

	inner := &mockPriceRepository{
		findSeriesFn: func(ctx context.Context, vendor, category string) ([]entity.PriceObservation, error) {
			return testSeries, nil
		},
	}
	repo := NewCachingPriceRepository(rdb, fixedTTL(5*time.Minute), inner, "prices")

	rows, err := repo.FindSeries(context.Background(), "jmbullion", "gold-american-eagles")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected 1 row, got %d", len(rows))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestCachingPriceRepository_LatestAverage_CacheMiss は平均値のキャッシュキーとTTLを検証します。
func TestCachingPriceRepository_LatestAverage_CacheMiss(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	avg := entity.Average{Value: decimal.NewFromInt(90), Valid: true}
	expectedJSON, _ := json.Marshal(avg)
	mock.ExpectGet("prices:avg:gold").RedisNil()
	mock.ExpectSet("prices:avg:gold", expectedJSON, time.Hour).SetVal("OK")

	inner := &mockPriceRepository{
		latestAverageFn: func(ctx context.Context, prefix string) (entity.Average, error) {
			return avg, nil
		},
	}
	repo := NewCachingPriceRepository(rdb, fixedTTL(time.Hour), inner, "prices")

	got, err := repo.LatestAverage(context.Background(), "gold")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Valid || !got.Value.Equal(avg.Value) {
		t.Errorf("unexpected average: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestCachingPriceRepository_LatestSpot_NotFoundNotCached は該当なしの結果がキャッシュされないことを検証します。
func TestCachingPriceRepository_LatestSpot_NotFoundNotCached(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectGet("prices:spot:spot-gold").RedisNil()

	inner := &mockPriceRepository{
		latestSpotFn: func(ctx context.Context, category string) (entity.PriceObservation, error) {
			return entity.PriceObservation{}, usecase.ErrNotFound
		},
	}
	repo := NewCachingPriceRepository(rdb, fixedTTL(5*time.Minute), inner, "prices")

	_, err := repo.LatestSpot(context.Background(), "spot-gold")
	if !errors.Is(err, usecase.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestCachingPriceRepository_Cheapest_CorruptedCache は破損したキャッシュを削除しDBにフォールバックすることを検証します。
func TestCachingPriceRepository_Cheapest_CorruptedCache(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	row := testSeries[0]
	expectedJSON, _ := json.Marshal(row)

	mock.ExpectGet("prices:cheapest:gold-american-eagles").SetVal("invalid json")
	mock.ExpectDel("prices:cheapest:gold-american-eagles").SetVal(1)
	mock.ExpectSet("prices:cheapest:gold-american-eagles", expectedJSON, 5*time.Minute).SetVal("OK")

	inner := &mockPriceRepository{
		cheapestFn: func(ctx context.Context, category string) (entity.PriceObservation, error) {
			return row, nil
		},
	}
	repo := NewCachingPriceRepository(rdb, fixedTTL(5*time.Minute), inner, "prices")

	got, err := repo.CheapestAtFullCoverage(context.Background(), "gold-american-eagles")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Vendor != "jmbullion" {
		t.Errorf("expected vendor jmbullion, got %q", got.Vendor)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestCachingPriceRepository_InnerError は内部リポジトリのエラーが伝播されることを検証します。
func TestCachingPriceRepository_InnerError(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	expectedErr := errors.New("database error")
	mock.ExpectGet("prices:series:jmbullion:gold-american-eagles").RedisNil()

	inner := &mockPriceRepository{
		findSeriesFn: func(ctx context.Context, vendor, category string) ([]entity.PriceObservation, error) {
			return nil, expectedErr
		},
	}
	repo := NewCachingPriceRepository(rdb, fixedTTL(5*time.Minute), inner, "prices")

	_, err := repo.FindSeries(context.Background(), "jmbullion", "gold-american-eagles")
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
}

// TestCachingPriceRepository_Purge はSCANとDELでネームスペース全体が削除されることを検証します。
func TestCachingPriceRepository_Purge(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectScan(0, "prices:*", 200).SetVal([]string{"prices:avg:gold", "prices:spot:spot-gold"}, 7)
	mock.ExpectDel("prices:avg:gold", "prices:spot:spot-gold").SetVal(2)
	mock.ExpectScan(7, "prices:*", 200).SetVal([]string{}, 0)

	repo := NewCachingPriceRepository(rdb, nil, &mockPriceRepository{}, "prices")

	if err := repo.Purge(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestCachingPriceRepository_Purge_ScanError はSCAN失敗時にエラーが返されることを検証します。
func TestCachingPriceRepository_Purge_ScanError(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectScan(0, "prices:*", 200).SetErr(errors.New("connection lost"))

	repo := NewCachingPriceRepository(rdb, nil, &mockPriceRepository{}, "prices")

	if err := repo.Purge(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

// TestSafe はsafe関数がRedisキーで問題となる文字を衝突なくエンコードすることを検証します。
func TestSafe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"gold-american-eagles", "gold-american-eagles"},
		{"gold bars", "gold+bars"},
		{"gold_bars", "gold_bars"},
		{"gold+bars", "gold%2Bbars"},
		{"key:value", "key%3Avalue"},
		{"gold*", "gold%2A"},
		{"g?[ld]", "g%3F%5Bld%5D"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if result := safe(tt.input); result != tt.expected {
				t.Errorf("safe(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestKey_DistinctInputsDoNotCollide は似た入力が同じキャッシュキーを共有しないことを検証します。
func TestKey_DistinctInputsDoNotCollide(t *testing.T) {
	t.Parallel()

	repo := NewCachingPriceRepository(nil, nil, &mockPriceRepository{}, "prices")

	tests := []struct {
		name string
		a    []string
		b    []string
	}{
		{name: "space vs underscore", a: []string{"avg", "gold bars"}, b: []string{"avg", "gold_bars"}},
		{name: "space vs plus", a: []string{"avg", "gold bars"}, b: []string{"avg", "gold+bars"}},
		{name: "colon vs underscore", a: []string{"spot", "a:b"}, b: []string{"spot", "a_b"}},
		{name: "separator shift", a: []string{"series", "v:a", "b"}, b: []string{"series", "v", "a:b"}},
		{name: "star vs underscore", a: []string{"cheapest", "gold*"}, b: []string{"cheapest", "gold_"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ka := repo.key(tt.a[0], tt.a[1:]...)
			kb := repo.key(tt.b[0], tt.b[1:]...)
			if ka == kb {
				t.Errorf("keys collide: %q", ka)
			}
		})
	}
}

// TestCachingPriceRepository_SimilarPrefixesUseSeparateEntries は
// "gold bars" と "gold_bars" が別々のキャッシュエントリを参照することを検証します。
func TestCachingPriceRepository_SimilarPrefixesUseSeparateEntries(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	byPrefix := map[string]entity.Average{
		"gold bars": {Value: decimal.NewFromInt(10), Valid: true},
		"gold_bars": {Value: decimal.NewFromInt(20), Valid: true},
	}
	spaceJSON, _ := json.Marshal(byPrefix["gold bars"])
	underscoreJSON, _ := json.Marshal(byPrefix["gold_bars"])
	mock.ExpectGet("prices:avg:gold+bars").RedisNil()
	mock.ExpectSet("prices:avg:gold+bars", spaceJSON, time.Hour).SetVal("OK")
	mock.ExpectGet("prices:avg:gold_bars").RedisNil()
	mock.ExpectSet("prices:avg:gold_bars", underscoreJSON, time.Hour).SetVal("OK")

	inner := &mockPriceRepository{
		latestAverageFn: func(ctx context.Context, prefix string) (entity.Average, error) {
			return byPrefix[prefix], nil
		},
	}
	repo := NewCachingPriceRepository(rdb, fixedTTL(time.Hour), inner, "prices")

	for _, prefix := range []string{"gold bars", "gold_bars"} {
		got, err := repo.LatestAverage(context.Background(), prefix)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", prefix, err)
		}
		if !got.Value.Equal(byPrefix[prefix].Value) {
			t.Errorf("prefix %q: expected %s, got %s", prefix, byPrefix[prefix].Value, got.Value)
		}
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 inner calls, got %d", inner.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}
