// Package handler はダッシュボード画面を返すHTTPハンドラーを提供します。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bullion_backend/internal/feature/chart/transport/http/dto"
)

// IndexTemplate はルートページのテンプレート名です。
const IndexTemplate = "index.tmpl"

// PageHandler はダッシュボードのルートページを描画します。
type PageHandler struct {
	view dto.PageView
}

// NewPageHandler は固定の表示データでPageHandlerを生成します。
func NewPageHandler(view dto.PageView) *PageHandler {
	return &PageHandler{view: view}
}

// Index はルートページを描画します。
//
// エンドポイント例:
// GET /
func (h *PageHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, IndexTemplate, h.view)
}
