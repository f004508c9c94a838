// Package handler はpricesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bullion_backend/internal/feature/prices/domain"
	"bullion_backend/internal/feature/prices/domain/entity"
	"bullion_backend/internal/feature/prices/transport/http/dto"
	"bullion_backend/internal/platform/db"
	"bullion_backend/internal/platform/http/middleware"
)

const dateLayout = "2006-01-02"

// PricesUsecase は価格参照のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type PricesUsecase interface {
	Series(ctx context.Context, vendor, category string) ([]entity.PriceObservation, error)
	LatestAverage(ctx context.Context, prefix string) (entity.Average, error)
	LatestSpotPrice(ctx context.Context, category string) (entity.PriceObservation, error)
	CheapestPrice(ctx context.Context, category string) (entity.PriceObservation, error)
}

// PricesHandler は価格データのHTTPリクエストを処理します。
type PricesHandler struct {
	uc PricesUsecase
}

// NewPricesHandler は指定されたusecaseでPricesHandlerの新しいインスタンスを生成します。
func NewPricesHandler(uc PricesUsecase) *PricesHandler {
	return &PricesHandler{uc: uc}
}

// GetSeries はベンダーとカテゴリの価格系列を日付昇順のJSON配列で返します。
//
// エンドポイント例:
// GET /data?vendor=jmbullion&category=gold-american-eagles
func (h *PricesHandler) GetSeries(c *gin.Context) {
	rows, err := h.uc.Series(c.Request.Context(), c.Query("vendor"), c.Query("category"))
	if err != nil {
		h.fail(c, err, "")
		return
	}

	out := make([]dto.ObservationResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.ObservationResponse{
			Date:     r.Date.UTC().Format(dateLayout),
			Vendor:   r.Vendor,
			Category: r.Category,
			Price:    number(r.Price),
		})
	}
	c.JSON(http.StatusOK, out)
}

// GetAverage はカテゴリ前方一致の最新日付平均を1要素の配列で返します。
//
// エンドポイント例:
// GET /average?category=gold
func (h *PricesHandler) GetAverage(c *gin.Context) {
	avg, err := h.uc.LatestAverage(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.fail(c, err, "")
		return
	}

	var res dto.AverageResponse
	if avg.Valid {
		n := number(avg.Value)
		res.Avg = &n
	}
	c.JSON(http.StatusOK, []dto.AverageResponse{res})
}

// GetLatestSpotPrice は最新スポット価格を返します。
//
// エンドポイント例:
// GET /latest-spot-price?category=spot-gold
func (h *PricesHandler) GetLatestSpotPrice(c *gin.Context) {
	row, err := h.uc.LatestSpotPrice(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.fail(c, err, "No spot price found for category")
		return
	}
	c.JSON(http.StatusOK, dto.SpotPriceResponse{Price: number(row.Price)})
}

// GetCheapestPrice はフルカバレッジ日付における最安値を返します。
//
// エンドポイント例:
// GET /api/cheapest-price/gold-american-eagles
func (h *PricesHandler) GetCheapestPrice(c *gin.Context) {
	row, err := h.uc.CheapestPrice(c.Request.Context(), c.Param("category"))
	if err != nil {
		h.fail(c, err, "No price found for category")
		return
	}
	c.JSON(http.StatusOK, dto.CheapestPriceResponse{
		Price:  number(row.Price),
		Vendor: row.Vendor,
		Date:   row.Date.UTC().Format(dateLayout),
	})
}

// fail はエラー種別をステータスコードに変換し、プレーンテキストで返します。
// ストアエラーのみサーバー側でログを出力します。
func (h *PricesHandler) fail(c *gin.Context, err error, notFoundMsg string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		c.String(http.StatusBadRequest, ve.Message)
	case errors.Is(err, domain.ErrValidation):
		c.String(http.StatusBadRequest, "Bad Request")
	case errors.Is(err, domain.ErrNotFound) && notFoundMsg != "":
		c.String(http.StatusNotFound, notFoundMsg)
	default:
		slog.Error("price query failed",
			"error", err,
			"path", c.FullPath(),
			"sqlstate", db.SQLState(err),
			"request_id", c.GetString(middleware.ContextRequestID),
		)
		c.String(http.StatusInternalServerError, "Internal Server Error")
	}
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
