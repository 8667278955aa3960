package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/ObexMirror/internal/models"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
)

// reportFileName 镜像报告文件名(写在输出目录根部)
const reportFileName = "mirror_report.json"

// Reporter 报告生成器
type Reporter struct {
	outputDir string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

// GenerateReport 生成镜像报告
// 报告包含成功/失败附件列表与统计信息,供调用方和测试断言,
// 而不必解析日志文本
func (r *Reporter) GenerateReport(listingURL string, summary *models.MirrorSummary, config models.MirrorConfig) error {
	endTime := time.Now()
	report := models.MirrorReport{
		RunID:      uuid.New().String(),
		ListingURL: listingURL,
		OutputDir:  r.outputDir,
		StartTime:  endTime.Add(-time.Duration(summary.Stats.Duration * float64(time.Second))),
		EndTime:    endTime,
		Summary:    summary,
		Config:     config,
	}

	data, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}

	reportPath := filepath.Join(r.outputDir, reportFileName)
	if err := os.WriteFile(reportPath, data, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Infof("✅ 报告已生成: %s", reportPath)
	return nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
