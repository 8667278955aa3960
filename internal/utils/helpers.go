package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandUser 展开路径开头的~为用户主目录
func ExpandUser(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
