package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/gatekeeper/internal/logging"
	"github.com/yourusername/gatekeeper/internal/metrics"
	"github.com/yourusername/gatekeeper/internal/web"
)

// ContextUserIDKey は、ハンドラー間でログイン済みユーザーIDを共有するためのキーです。
const ContextUserIDKey = "auth.user_id"

// 利用者に表示するメッセージ
const (
	msgDuplicateUsername = "Username already exists."
	msgUserNotFound      = "No user found."
	msgInvalidPassword   = "Incorrect password."
	msgSignupFailed      = "Error during signup."
	msgLoginFailed       = "Error during login."
	msgMissingFields     = "Please fill in all fields."
)

type signupRequest struct {
	Username string `form:"username" binding:"required"`
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type loginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// Handler は認証画面とフォーム送信を扱う gin ハンドラー群です。
type Handler struct {
	svc     *Service
	logger  *slog.Logger
	metrics *metrics.Auth
	cookie  sessions.Options
}

// HandlerOption は Handler の任意設定です。
type HandlerOption func(*Handler)

// WithCookieOptions はセッションストアに設定したクッキーオプションを指定します。
func WithCookieOptions(opts sessions.Options) HandlerOption {
	return func(h *Handler) {
		h.cookie = opts
	}
}

// NewHandler はハンドラーを作成します。logger が nil の場合は slog.Default を使います。
func NewHandler(svc *Service, logger *slog.Logger, m *metrics.Auth, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		svc:     svc,
		logger:  logger,
		metrics: m,
		cookie:  DefaultCookieOptions(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) session(c *gin.Context) SessionHandle {
	return NewSessionHandle(sessions.Default(c), h.cookie)
}

// Register はルーターグループに認証関連のルートを登録します。
// 同じハンドラーを複数のプレフィックスに登録でき、リダイレクト先はグループ内に留まります。
func (h *Handler) Register(group *gin.RouterGroup) {
	base := strings.TrimSuffix(group.BasePath(), "/")
	r := routes{base: base}

	group.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, r.login())
	})
	group.GET("/signup", h.showView(web.SignupView, r))
	group.POST("/signup", h.handleSignup(r))
	group.GET("/login", h.showView(web.LoginView, r))
	group.POST("/login", h.handleLogin(r))
	group.GET("/dashboard", h.RequireLogin(r.login()), h.showView(web.DashboardView, r))
	group.POST("/logout", h.handleLogout(r))
}

type routes struct {
	base string
}

func (r routes) login() string     { return r.base + "/login" }
func (r routes) signup() string    { return r.base + "/signup" }
func (r routes) dashboard() string { return r.base + "/dashboard" }

func (h *Handler) showView(name string, r routes) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, name, gin.H{"Base": r.base})
	}
}

// handleSignup は POST /signup のハンドラーです。
func (h *Handler) handleSignup(r routes) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signupRequest
		if err := c.ShouldBind(&req); err != nil {
			h.metrics.Signup(metrics.OutcomeInvalidInput)
			renderMessage(c, "Sign up", msgMissingFields, r.signup())
			return
		}

		_, err := h.svc.Signup(c.Request.Context(), SignupInput{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
		})
		switch {
		case err == nil:
			h.metrics.Signup(metrics.OutcomeSuccess)
			c.Redirect(http.StatusFound, r.login())
		case errors.Is(err, ErrDuplicateUsername):
			h.metrics.Signup(metrics.OutcomeDuplicateUsername)
			renderMessage(c, "Sign up", msgDuplicateUsername, r.signup())
		default:
			h.metrics.Signup(metrics.OutcomeError)
			h.logError(c, "signup failed", err)
			renderMessage(c, "Sign up", msgSignupFailed, "")
		}
	}
}

// handleLogin は POST /login のハンドラーです。
func (h *Handler) handleLogin(r routes) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBind(&req); err != nil {
			h.metrics.Login(metrics.OutcomeInvalidInput)
			renderMessage(c, "Login", msgMissingFields, r.login())
			return
		}

		session := h.session(c)
		_, err := h.svc.Login(c.Request.Context(), session, req.Username, req.Password)
		switch {
		case err == nil:
			h.metrics.Login(metrics.OutcomeSuccess)
			c.Redirect(http.StatusFound, r.dashboard())
		case errors.Is(err, ErrUserNotFound):
			h.metrics.Login(metrics.OutcomeUserNotFound)
			renderMessage(c, "Login", msgUserNotFound, r.login())
		case errors.Is(err, ErrInvalidPassword):
			h.metrics.Login(metrics.OutcomeInvalidPassword)
			renderMessage(c, "Login", msgInvalidPassword, r.login())
		default:
			h.metrics.Login(metrics.OutcomeError)
			h.logError(c, "login failed", err)
			renderMessage(c, "Login", msgLoginFailed, "")
		}
	}
}

// handleLogout は POST /logout のハンドラーです。
// セッションの破棄に失敗してもログを残してログイン画面へ戻します。
func (h *Handler) handleLogout(r routes) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.svc.Logout(h.session(c)); err != nil {
			h.metrics.Logout(metrics.OutcomeError)
			h.logError(c, "logout failed", err)
		} else {
			h.metrics.Logout(metrics.OutcomeSuccess)
		}
		c.Redirect(http.StatusFound, r.login())
	}
}

func (h *Handler) logError(c *gin.Context, msg string, err error) {
	h.logger.ErrorContext(c.Request.Context(), msg,
		"request_id", c.GetString(logging.RequestIDKey),
		"path", c.Request.URL.Path,
		"error", err,
	)
}

func renderMessage(c *gin.Context, title, message, retryURL string) {
	c.HTML(http.StatusOK, web.MessageView, gin.H{
		"Title":    title,
		"Message":  message,
		"RetryURL": retryURL,
	})
}
