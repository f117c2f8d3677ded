package utils

import (
	"os"
	"path/filepath"
)

// LoadViewerPage 指定されたパスからビューアHTMLを読み込む
// pagePathが相対パスの場合はプロジェクトルートからの相対パスとして扱う
// 絶対パスの場合はそのまま使用する
// ファイルが存在しない場合はエラーを返す（呼び出し元が組み込みページで代替する）
func LoadViewerPage(pagePath string) ([]byte, error) {
	var fullPath string
	if filepath.IsAbs(pagePath) {
		fullPath = pagePath
	} else {
		fullPath = filepath.Join(FindProjectRoot(), pagePath)
	}
	return os.ReadFile(fullPath)
}

// FindProjectRoot プロジェクトルート（go.modがあるディレクトリ）を探す
// 実行ファイルのディレクトリから親方向に探し、見つからなければ
// カレントディレクトリから同様に探す
func FindProjectRoot() string {
	if execPath, err := os.Executable(); err == nil {
		if root, ok := searchUp(filepath.Dir(execPath)); ok {
			return root
		}
	}

	if wd, err := os.Getwd(); err == nil {
		if root, ok := searchUp(wd); ok {
			return root
		}
	}

	// 見つからない場合はカレントディレクトリを返す
	return "."
}

func searchUp(dir string) (string, bool) {
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
