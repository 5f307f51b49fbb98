// Package metrics は認証処理の結果を Prometheus のカウンターとして公開します。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 結果ラベルの値
const (
	OutcomeSuccess           = "success"
	OutcomeDuplicateUsername = "duplicate_username"
	OutcomeUserNotFound      = "user_not_found"
	OutcomeInvalidPassword   = "invalid_password"
	OutcomeInvalidInput      = "invalid_input"
	OutcomeError             = "error"
	OutcomeDenied            = "denied"
)

// Auth は認証関連のカウンターをまとめたものです。
// nil のレシーバーでも安全に呼び出せます。
type Auth struct {
	signups  *prometheus.CounterVec
	logins   *prometheus.CounterVec
	logouts  *prometheus.CounterVec
	guards   *prometheus.CounterVec
	gatherer prometheus.Gatherer
}

// NewAuth はカウンターを作成して新しいレジストリに登録します。
func NewAuth() *Auth {
	reg := prometheus.NewRegistry()
	m := &Auth{
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatekeeper",
			Name:      "signups_total",
			Help:      "Signup attempts by outcome.",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatekeeper",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatekeeper",
			Name:      "logouts_total",
			Help:      "Logouts by outcome.",
		}, []string{"outcome"}),
		guards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatekeeper",
			Name:      "dashboard_guard_total",
			Help:      "Dashboard guard decisions.",
		}, []string{"outcome"}),
		gatherer: reg,
	}
	reg.MustRegister(
		m.signups,
		m.logins,
		m.logouts,
		m.guards,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Signup は登録結果を記録します。
func (m *Auth) Signup(outcome string) {
	if m == nil {
		return
	}
	m.signups.WithLabelValues(outcome).Inc()
}

// Login はログイン結果を記録します。
func (m *Auth) Login(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

// Logout はログアウト結果を記録します。
func (m *Auth) Logout(outcome string) {
	if m == nil {
		return
	}
	m.logouts.WithLabelValues(outcome).Inc()
}

// Guard はダッシュボードの保護判定を記録します。
func (m *Auth) Guard(outcome string) {
	if m == nil {
		return
	}
	m.guards.WithLabelValues(outcome).Inc()
}

// Handler は /metrics 用のハンドラーを返します。
func (m *Auth) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
