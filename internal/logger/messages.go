package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Lifecycle
		"unimage MCP server %s starting": "unimage MCP サーバー %s を起動しています",
		"Server stopped":                 "サーバーを停止しました",
		"Loaded configuration from %s":   "%s から設定を読み込みました",
		"Decoders: %s":                   "デコーダー: %s",

		// Requests
		"Request %s":                       "リクエスト %s",
		"Failed to parse request: %v":      "リクエストの解析に失敗しました: %v",
		"Failed to encode response: %v":    "レスポンスのエンコードに失敗しました: %v",
		"Tool %s failed: %v":               "ツール %s が失敗しました: %v",
		"Processor %d created (%d open)":   "プロセッサ %d を作成しました (%d 個使用中)",
		"Processor %d released (%d open)":  "プロセッサ %d を解放しました (%d 個使用中)",
		"Processor %d: %s failed (%s): %s": "プロセッサ %d: %s が失敗しました (%s): %s",
	})
}

