package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Engine level messages (info)
		"Preview engine started":             "プレビューエンジンを開始しました",
		"Cache invalidated":                  "キャッシュを無効化しました",
		"Output saved to %s":                 "出力を %s に保存しました",
		"Rendered %d frames to %s":           "%d フレームを %s にレンダリングしました",

		// Frame cache
		"Removed stale entry at bucket %d":   "バケット %d の古いエントリを削除しました",
		"Evicted %d of %d entries":           "%d / %d エントリを削除しました",

		// Pre-render scheduler
		"Pre-rendered %d frames":             "%d フレームを事前レンダリングしました",
		"Pre-render failed at %.3fs: %s":     "%.3f 秒の事前レンダリングに失敗しました: %s",
		"Pre-render batch stopped: %s":       "事前レンダリングバッチを停止しました: %s",

		// Decode cursor
		"Opened decode session for %s":       "%s のデコードセッションを開きました",
		"Released decode session for %s":     "%s のデコードセッションを解放しました",
		"Released %d decode sessions":        "%d 個のデコードセッションを解放しました",
		"Media %s unavailable: %s":           "メディア %s は利用できません: %s",
		"Sequential advance failed for %s, seeking: %s": "%s の逐次デコードに失敗しました。シークします: %s",

		// Errors
		"Failed to render frame: %s":         "フレームのレンダリングに失敗しました: %s",
		"Failed to load composition: %s":     "コンポジションの読み込みに失敗しました: %s",
	})
}
