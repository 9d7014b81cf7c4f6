package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration": "設定",
		"Logging":       "ログ",

		// Root command and flags
		"Image processors over the Model Context Protocol": "Model Context Protocol で画像プロセッサを提供",
		"Path to a YAML configuration file":                "YAML 設定ファイルのパス",
		"Log level (debug, info, warn, error)":             "ログレベル (debug, info, warn, error)",

		// Commands
		"Serve MCP requests on stdin/stdout":                             "標準入出力で MCP リクエストを処理",
		"Decode image files and print their dimensions and pixel format": "画像ファイルをデコードしてサイズとピクセル形式を表示",
		"Show version information":                                       "バージョン情報を表示",

		// Messages
		"inspect needs at least one FILE":     "inspect には 1 つ以上の FILE が必要です",
		"%d of %d files could not be decoded": "%d / %d 個のファイルをデコードできませんでした",
		"unimage-mcp %s":                      "unimage-mcp %s",
		"  Build time: %s":                    "  ビルド日時: %s",
		"  Git commit: %s":                    "  Git コミット: %s",
	})
}
