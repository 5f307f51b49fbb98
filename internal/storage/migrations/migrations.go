// Package migrations は goose 用の SQL マイグレーションを埋め込みます。
package migrations

import "embed"

// FS はマイグレーションファイル一式です。
//
//go:embed *.sql
var FS embed.FS
