// Package web は画面テンプレートと静的ファイルを埋め込みで提供します。
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// テンプレート名
const (
	LoginView     = "login.html"
	SignupView    = "signup.html"
	DashboardView = "dashboard.html"
	MessageView   = "message.html"
)

// Templates は全テンプレートを読み込みます。
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// Static は /static 配下で配信するファイルシステムを返します。
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// 埋め込みのパスはビルド時に確定しているため到達しない
		panic(err)
	}
	return sub
}
