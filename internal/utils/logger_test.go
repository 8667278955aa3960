package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitLogger(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")

	config := LogConfig{
		Level:      "debug",
		LogDir:     logDir,
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
		Compress:   false,
	}

	if err := InitLogger(config); err != nil {
		t.Fatalf("初始化日志失败: %v", err)
	}

	// 日志目录自动创建
	if _, err := os.Stat(logDir); err != nil {
		t.Fatalf("日志目录未创建: %v", err)
	}

	Info("信息日志")
	Infof("格式化信息日志: %d", 42)
	Warn("警告日志")
	Warnf("格式化警告日志: %s", "x")
	Debug("调试日志")
	Debugf("格式化调试日志: %v", true)
	Error(os.ErrNotExist, "错误日志")
	Errorf("格式化错误日志: %s", "y")

	data, err := os.ReadFile(filepath.Join(logDir, "obex_mirror.log"))
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	for _, want := range []string{"信息日志", "警告日志", "调试日志", "错误日志"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("日志文件缺少 %q", want)
		}
	}
}

func TestInitLogger_无效级别回退(t *testing.T) {
	config := DefaultLogConfig()
	config.LogDir = filepath.Join(t.TempDir(), "logs")
	config.Level = "nonsense"

	if err := InitLogger(config); err != nil {
		t.Fatalf("无效级别不应报错: %v", err)
	}
}

func TestExpandUser(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("无法获取主目录: %v", err)
	}

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"波浪号前缀", "~/data", filepath.Join(home, "data")},
		{"仅波浪号", "~", home},
		{"普通路径", "/tmp/data", "/tmp/data"},
		{"中间的波浪号不展开", "/tmp/~data", "/tmp/~data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandUser(tt.path); got != tt.expected {
				t.Errorf("ExpandUser(%q) = %q, 期望 %q", tt.path, got, tt.expected)
			}
		})
	}
}
