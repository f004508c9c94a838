// Package http はダッシュボードAPIを呼び出すHTTPクライアントを提供します。
package http

import (
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"bullion_backend/internal/platform/http/middleware"
)

// DefaultTimeout は timeout が0以下の場合に使うリクエスト全体のタイムアウトです。
const DefaultTimeout = 10 * time.Second

// NewHTTPClient はダッシュボードAPI呼び出し用のHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: 環境変数（HTTP_PROXYなど）が設定されている場合に使用
//   - Dialer.Timeout: TCP接続タイムアウト
//   - MaxIdleConnsPerHost: 同一サーバーへの並列取得（6スロット＋ローソク足）を想定
//   - Client.Timeout: リクエスト全体のタイムアウト（0以下は DefaultTimeout）
//
// 各リクエストには X-Request-ID を付与し、サーバーログと突き合わせられるようにします。
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: &requestIDTransport{next: t}}
}

// requestIDTransport は X-Request-ID が未設定のリクエストにUUIDを付与します。
type requestIDTransport struct {
	next http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(middleware.HeaderRequestID) == "" {
		req = req.Clone(req.Context())
		req.Header.Set(middleware.HeaderRequestID, uuid.NewString())
	}
	return t.next.RoundTrip(req)
}
