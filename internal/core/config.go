package core

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/RecoveryAshes/ObexMirror/internal/models"
	"github.com/RecoveryAshes/ObexMirror/internal/utils"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/spf13/viper"
)

// DefaultListingURL 默认列表页地址(完整目录,单页返回全部项目)
const DefaultListingURL = "http://obex.parallax.com/projects/?field_category_tid=All&items_per_page=All"

// Config 应用程序配置
type Config struct {
	Listing ListingConfig `mapstructure:"listing"`
	Mirror  MirrorSection `mapstructure:"mirror"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ListingConfig 列表页配置
type ListingConfig struct {
	URL       string `mapstructure:"url"`        // 列表页URL
	TableFile string `mapstructure:"table_file"` // CSV快照输出路径(可选)
}

// MirrorSection 镜像输出配置
type MirrorSection struct {
	OutputDir string `mapstructure:"output_dir"` // 输出目录,必须不存在
	Workers   int    `mapstructure:"workers"`    // 并发数,0表示按硬件并行度自动推导
}

// HTTPConfig HTTP客户端配置
type HTTPConfig struct {
	Timeout int `mapstructure:"timeout"` // 请求超时(秒)
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".obexmirror"))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件不存在时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 列表页默认值
	v.SetDefault("listing.url", DefaultListingURL)
	v.SetDefault("listing.table_file", "")

	// 镜像默认值
	v.SetDefault("mirror.output_dir", "complete_obex")
	v.SetDefault("mirror.workers", 0)

	// HTTP默认值
	v.SetDefault("http.timeout", 60)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)
}

// MirrorConfig 把应用配置折算为镜像任务配置
// workers为0时按逻辑CPU数的两倍推导
func (c *Config) MirrorConfig() models.MirrorConfig {
	workers := c.Mirror.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	return models.MirrorConfig{
		ListingURL:  c.Listing.URL,
		TableFile:   utils.ExpandUser(c.Listing.TableFile),
		OutputDir:   utils.ExpandUser(c.Mirror.OutputDir),
		Workers:     workers,
		HTTPTimeout: c.HTTP.Timeout,
	}
}

// DefaultWorkers 按硬件并行度推导默认并发数
// 下载任务以网络IO为主,取逻辑CPU数的两倍,上限32
func DefaultWorkers() int {
	count, err := cpu.Counts(true)
	if err != nil || count < 1 {
		count = runtime.NumCPU()
	}
	if count < 1 {
		count = 1
	}

	workers := count * 2
	if workers > 32 {
		workers = 32
	}
	return workers
}
