package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_默认值(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if config.Listing.URL != DefaultListingURL {
		t.Errorf("默认列表页URL = %q", config.Listing.URL)
	}
	if config.Mirror.OutputDir != "complete_obex" {
		t.Errorf("默认输出目录 = %q", config.Mirror.OutputDir)
	}
	if config.HTTP.Timeout != 60 {
		t.Errorf("默认超时 = %d", config.HTTP.Timeout)
	}
	if config.Logging.Level != "info" {
		t.Errorf("默认日志级别 = %q", config.Logging.Level)
	}
}

func TestLoadConfig_配置文件覆盖(t *testing.T) {
	content := `listing:
  url: "http://mirror.example.com/projects/"
mirror:
  output_dir: "/data/obex"
  workers: 8
http:
  timeout: 120
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if config.Listing.URL != "http://mirror.example.com/projects/" {
		t.Errorf("列表页URL = %q", config.Listing.URL)
	}
	if config.Mirror.Workers != 8 {
		t.Errorf("并发数 = %d", config.Mirror.Workers)
	}
	if config.HTTP.Timeout != 120 {
		t.Errorf("超时 = %d", config.HTTP.Timeout)
	}
	// 未覆盖的字段保持默认
	if config.Logging.Level != "info" {
		t.Errorf("日志级别 = %q", config.Logging.Level)
	}
}

func TestLoadConfig_文件损坏(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listing: [broken"), 0644); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("期望返回错误")
	}
}

func TestConfig_MirrorConfig(t *testing.T) {
	config := &Config{
		Listing: ListingConfig{URL: "http://x/projects/", TableFile: "table.csv"},
		Mirror:  MirrorSection{OutputDir: "out", Workers: 4},
		HTTP:    HTTPConfig{Timeout: 30},
	}

	cfg := config.MirrorConfig()
	if cfg.ListingURL != "http://x/projects/" || cfg.OutputDir != "out" {
		t.Errorf("折算结果 = %+v", cfg)
	}
	if cfg.Workers != 4 {
		t.Errorf("并发数 = %d, 期望 4", cfg.Workers)
	}
	if cfg.HTTPTimeout != 30 {
		t.Errorf("超时 = %d, 期望 30", cfg.HTTPTimeout)
	}
}

func TestConfig_MirrorConfig_自动推导并发数(t *testing.T) {
	config := &Config{
		Mirror: MirrorSection{Workers: 0},
	}

	cfg := config.MirrorConfig()
	if cfg.Workers < 1 || cfg.Workers > 32 {
		t.Errorf("自动推导并发数 = %d, 期望在1-32之间", cfg.Workers)
	}
}

func TestDefaultWorkers(t *testing.T) {
	workers := DefaultWorkers()
	if workers < 1 || workers > 32 {
		t.Errorf("DefaultWorkers() = %d, 期望在1-32之间", workers)
	}
}
