package main

import (
	"fmt"

	"github.com/RecoveryAshes/ObexMirror/internal/models"
)

// ValidateFlags 验证命令行标志
func ValidateFlags(listingURL string, outputDir string, workers int) error {
	if err := models.ValidateURL(listingURL); err != nil {
		return fmt.Errorf("无效的列表页URL: %w", err)
	}

	if outputDir == "" {
		return fmt.Errorf("输出目录不能为空")
	}

	// 0表示自动推导,显式指定时检查范围
	if workers < 0 || workers > 100 {
		return fmt.Errorf("并发数必须在0-100之间,当前值: %d", workers)
	}

	return nil
}
