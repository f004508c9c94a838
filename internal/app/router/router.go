// Package router はHTTPルーティングを組み立てます。
package router

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	pagehandler "bullion_backend/internal/feature/chart/transport/handler"
	priceshandler "bullion_backend/internal/feature/prices/transport/handler"
	platformhandler "bullion_backend/internal/platform/http/handler"
	"bullion_backend/internal/platform/http/middleware"
	"bullion_backend/web"
)

// Options はルーターの横断設定です。
type Options struct {
	// CORSAllowOrigins が空の場合はCORSミドルウェアを付けません。
	CORSAllowOrigins []string
	// Templates が nil の場合は埋め込みテンプレートを使います。
	Templates *template.Template
}

func NewRouter(opts Options, health *platformhandler.HealthHandler, prices *priceshandler.PricesHandler,
	page *pagehandler.PageHandler) (*gin.Engine, error) {
	r := gin.Default()
	r.Use(middleware.RequestID())

	if len(opts.CORSAllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  opts.CORSAllowOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodHead, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type", middleware.HeaderRequestID},
			ExposeHeaders: []string{middleware.HeaderRequestID},
			MaxAge:        12 * time.Hour,
		}))
	}

	tmpl := opts.Templates
	if tmpl == nil {
		var err error
		if tmpl, err = web.Templates(); err != nil {
			return nil, fmt.Errorf("parse templates: %w", err)
		}
	}
	r.SetHTMLTemplate(tmpl)

	// 静的ファイル
	for _, dir := range []string{"css", "js", "img"} {
		sub, err := web.Public(dir)
		if err != nil {
			return nil, fmt.Errorf("static %s: %w", dir, err)
		}
		r.StaticFS("/"+dir, http.FS(sub))
	}

	// 導通確認用
	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)
	r.OPTIONS("/healthz", health.Health)

	// ダッシュボード
	r.GET("/", page.Index)

	// 価格API（読み取り専用）
	r.GET("/data", prices.GetSeries)
	r.GET("/average", prices.GetAverage)
	r.GET("/latest-spot-price", prices.GetLatestSpotPrice)
	r.GET("/api/cheapest-price/", prices.GetCheapestPrice) // カテゴリ未指定は400
	r.GET("/api/cheapest-price/:category", prices.GetCheapestPrice)

	return r, nil
}
