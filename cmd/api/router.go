package main

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/gatekeeper/internal/auth"
	"github.com/yourusername/gatekeeper/internal/config"
	"github.com/yourusername/gatekeeper/internal/logging"
	"github.com/yourusername/gatekeeper/internal/metrics"
	"github.com/yourusername/gatekeeper/internal/web"
)

const healthCheckTimeout = 2 * time.Second

type routerDeps struct {
	logger   *slog.Logger
	users    auth.UserStore
	sessions sessions.Store
	checks   map[string]func(context.Context) error
	metrics  *metrics.Auth
}

// newRouter はミドルウェアとルーティングを設定した gin エンジンを作成します。
func newRouter(cfg *config.Config, d routerDeps) (*gin.Engine, error) {
	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.Middleware(d.logger))

	// セッションの設定（保存先はサーバー側、クッキーには署名付きIDのみ）
	d.sessions.Options(cookieOptions(cfg))
	router.Use(sessions.Sessions(auth.SessionCookieName, d.sessions))

	// CORSミドルウェアの設定（許可オリジンが空なら登録しない）
	if origins := splitOrigins(cfg.CORSAllowedOrigins); len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = []string{
			"Origin",
			"Content-Type",
			"Accept",
			"X-Request-ID",
		}
		corsConfig.ExposeHeaders = []string{"X-Request-ID"}
		router.Use(cors.New(corsConfig))
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)
	router.StaticFS("/static", http.FS(web.Static()))

	setupRoutes(router, cfg, d)
	return router, nil
}

// setupRoutes は運用エンドポイントと認証画面の配線を行います。
func setupRoutes(router *gin.Engine, cfg *config.Config, d routerDeps) {
	// まずは誰でも叩けるヘルスチェックとメトリクスを登録
	router.GET("/health", handleHealth(d.checks))
	router.GET("/metrics", gin.WrapH(d.metrics.Handler()))

	svc := auth.NewService(d.users, auth.NewBcryptHasher(cfg.BcryptCost))
	handler := auth.NewHandler(svc, d.logger, d.metrics, auth.WithCookieOptions(cookieOptions(cfg)))

	// 同じ画面をルート直下と /api の両方に公開する
	handler.Register(&router.RouterGroup)
	handler.Register(router.Group("/api"))
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
// 依存先のいずれかに到達できない場合は 503 を返します。
func handleHealth(checks map[string]func(context.Context) error) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		status := http.StatusOK
		results := gin.H{}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				slog.WarnContext(ctx, "health check failed", "check", name, "error", err)
				results[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "unavailable"
		}
		c.JSON(status, gin.H{
			"status":  overall,
			"service": "gatekeeper",
			"version": version,
			"checks":  results,
		})
	}
}

// cookieOptions はセッションクッキーの属性を返します。ログアウト時の失効クッキーも同じ属性を使います。
func cookieOptions(cfg *config.Config) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAgeSeconds(),
		HttpOnly: true,
		Secure:   cfg.IsRelease(),
		SameSite: http.SameSiteLaxMode,
	}
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
