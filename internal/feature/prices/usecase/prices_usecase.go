// Package usecase は価格データ参照のビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"strings"

	"bullion_backend/internal/feature/prices/domain"
	"bullion_backend/internal/feature/prices/domain/entity"
)

// ErrNotFound はリポジトリが該当行なしを通知するためのエラーです。
// domain.ErrNotFound をそのまま公開します。
var ErrNotFound = domain.ErrNotFound

// PriceRepository は価格テーブルの読み取りレイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type PriceRepository interface {
	// FindSeries は vendor と category が一致する行を日付の昇順で返します。
	FindSeries(ctx context.Context, vendor, category string) ([]entity.PriceObservation, error)
	// LatestAverage は prefix に前方一致するカテゴリの最新日付における平均価格を返します。
	LatestAverage(ctx context.Context, prefix string) (entity.Average, error)
	// LatestSpot は category のスポット価格のうち最新の1行を返します。該当なしは ErrNotFound。
	LatestSpot(ctx context.Context, category string) (entity.PriceObservation, error)
	// CheapestAtFullCoverage は全ベンダーが揃った最新日付の最安値行を返します。該当なしは ErrNotFound。
	CheapestAtFullCoverage(ctx context.Context, category string) (entity.PriceObservation, error)
}

// PricesUsecase は価格参照のユースケースを提供します。
type PricesUsecase struct {
	repo PriceRepository
}

// NewPricesUsecase はPricesUsecaseの新しいインスタンスを生成します。
func NewPricesUsecase(repo PriceRepository) *PricesUsecase {
	return &PricesUsecase{repo: repo}
}

// Series は指定ベンダー・カテゴリの価格系列を返します。
func (u *PricesUsecase) Series(ctx context.Context, vendor, category string) ([]entity.PriceObservation, error) {
	if blank(vendor) || blank(category) {
		return nil, &domain.ValidationError{Message: "Missing vendor or category parameter"}
	}
	rows, err := u.repo.FindSeries(ctx, vendor, category)
	if err != nil {
		return nil, storeErr("find series", err)
	}
	return rows, nil
}

// LatestAverage はカテゴリ前方一致による最新日付の平均価格を返します。
func (u *PricesUsecase) LatestAverage(ctx context.Context, prefix string) (entity.Average, error) {
	if blank(prefix) {
		return entity.Average{}, &domain.ValidationError{Message: "Missing category parameter"}
	}
	avg, err := u.repo.LatestAverage(ctx, prefix)
	if err != nil {
		return entity.Average{}, storeErr("latest average", err)
	}
	return avg, nil
}

// LatestSpotPrice は指定カテゴリの最新スポット価格を返します。
func (u *PricesUsecase) LatestSpotPrice(ctx context.Context, category string) (entity.PriceObservation, error) {
	if blank(category) {
		return entity.PriceObservation{}, &domain.ValidationError{Message: "Missing category parameter"}
	}
	row, err := u.repo.LatestSpot(ctx, category)
	if err != nil {
		return entity.PriceObservation{}, storeErr("latest spot", err)
	}
	return row, nil
}

// CheapestPrice はフルカバレッジ日付における最安値を返します。
// 1社しか報告していない日の安値を選ばないよう、ベンダー数が過去最大の日に限定します。
func (u *PricesUsecase) CheapestPrice(ctx context.Context, category string) (entity.PriceObservation, error) {
	if blank(category) {
		return entity.PriceObservation{}, &domain.ValidationError{Message: "Missing category parameter"}
	}
	row, err := u.repo.CheapestAtFullCoverage(ctx, category)
	if err != nil {
		return entity.PriceObservation{}, storeErr("cheapest price", err)
	}
	return row, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// storeErr は ErrNotFound 以外のエラーを StoreError で包みます。
func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	var se *domain.StoreError
	if errors.As(err, &se) {
		return err
	}
	return &domain.StoreError{Op: op, Err: err}
}
