package main

import (
	"fmt"
	"os"
	"time"

	"github.com/RecoveryAshes/ObexMirror/internal/core"
	"github.com/RecoveryAshes/ObexMirror/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// 镜像参数
	listingURL string
	outputDir  string
	tableFile  string
	workers    int
)

var rootCmd = &cobra.Command{
	Use:   "obexmirror",
	Short: "OBEX对象目录镜像工具",
	Long: `ObexMirror - 把在线对象目录完整镜像到本地 (Go版本)

抓取列表页并解析项目表格,并发抓取每个项目的详情页提取附件链接,
把全部附件下载到按项目划分的目录中,并递归展开所有zip压缩包
(包括压缩包里嵌套的压缩包),直到没有未展开的压缩包为止。

使用示例:
  # 使用默认列表页镜像到 ./complete_obex
  obexmirror

  # 指定输出目录并保存表格CSV快照
  obexmirror -o ~/obex_mirror -t obex_table.csv

  # 限制并发数
  obexmirror --workers 8

注意: 输出目录必须不存在,防止与上一次运行的残留输出混合。

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}
		if verbose {
			logConfig.Level = "debug"
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 命令行参数覆盖配置文件
		if listingURL != "" {
			appConfig.Listing.URL = listingURL
		}
		if tableFile != "" {
			appConfig.Listing.TableFile = tableFile
		}
		if outputDir != "" {
			appConfig.Mirror.OutputDir = outputDir
		}
		if workers > 0 {
			appConfig.Mirror.Workers = workers
		}

		cfg := appConfig.MirrorConfig()
		if err := ValidateFlags(cfg.ListingURL, cfg.OutputDir, workers); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// 输出目录检查先于任何网络请求,已存在直接失败
		mirror := core.NewMirror(cfg)
		if err := mirror.EnsureOutputAbsent(); err != nil {
			return err
		}

		utils.Infof("🚀 开始镜像任务")
		startTime := time.Now()

		fetcher, err := core.NewFetcher(cfg)
		if err != nil {
			return fmt.Errorf("创建目录抓取器失败: %w", err)
		}

		catalog, err := fetcher.Fetch()
		if err != nil {
			return fmt.Errorf("抓取目录失败: %w", err)
		}

		summary, err := mirror.Mirror(catalog)
		if err != nil {
			return fmt.Errorf("镜像失败: %w", err)
		}

		elapsed := time.Since(startTime)

		// 显示统计结果
		fmt.Println("\n==================================================")
		fmt.Println("📊 镜像统计")
		fmt.Println("==================================================")
		fmt.Printf("✅ 项目数: %d\n", summary.Stats.Projects)
		fmt.Printf("✅ 下载附件数: %d\n", summary.Stats.Artifacts)
		fmt.Printf("✅ 展开压缩包数: %d\n", summary.Stats.ExtractedZips)
		fmt.Printf("❌ 失败附件数: %d\n", summary.Stats.FailedArtifacts)
		fmt.Printf("❌ 展开失败项目数: %d\n", summary.Stats.FailedResolves)
		fmt.Printf("📦 总大小: %.2f MB\n", float64(summary.Stats.TotalSize)/(1024*1024))
		fmt.Printf("⏱️  总耗时: %.1f秒\n", elapsed.Seconds())
		fmt.Println("==================================================")

		if summary.HasFailures() {
			utils.Warnf("部分附件失败,详情见输出目录中的镜像报告")
		}
		utils.Info("✨ 镜像任务完成!")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ObexMirror %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// 镜像参数
	rootCmd.Flags().StringVarP(&listingURL, "url", "u", "", "列表页URL (默认使用配置中的OBEX完整目录)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "输出目录,必须不存在 (默认: complete_obex)")
	rootCmd.Flags().StringVarP(&tableFile, "table", "t", "", "表格CSV快照输出文件 (不指定则不输出)")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "并发数 (0表示按CPU核心数自动推导)")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
