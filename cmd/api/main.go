// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// ビルド時に設定されるバージョン情報
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// newRootCmd はルートコマンドを作成します。サブコマンド無しで起動した場合は serve と同じです。
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "gatekeeper",
		Short:        "Signup, login and session-gated dashboard server",
		Version:      version,
		SilenceUsage: true,
		RunE:         runServe,
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())

	return cmd
}

// newServeCmd は HTTP サーバーを起動するサブコマンドを作成します。
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

// newMigrateCmd はマイグレーションのみを適用するサブコマンドを作成します。
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE:  runMigrate,
	}
}
