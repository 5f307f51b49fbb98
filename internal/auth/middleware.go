package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/gatekeeper/internal/metrics"
)

// RequireLogin はセッションを検証するミドルウェアを返します。
// 未ログインの場合はエラーにせず loginURL へリダイレクトします。
func (h *Handler) RequireLogin(loginURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.svc.Authenticated(h.session(c))
		if !ok {
			h.metrics.Guard(metrics.OutcomeDenied)
			c.Redirect(http.StatusFound, loginURL)
			c.Abort()
			return
		}

		h.metrics.Guard(metrics.OutcomeSuccess)
		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}
