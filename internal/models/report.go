package models

import (
	"encoding/json"
	"time"
)

// MirrorStats 镜像统计
type MirrorStats struct {
	Projects        int     `json:"projects"`         // 镜像的项目数
	Artifacts       int     `json:"artifacts"`        // 成功下载的附件数
	FailedArtifacts int     `json:"failed_artifacts"` // 下载失败的附件数
	FailedResolves  int     `json:"failed_resolves"`  // 压缩包展开失败的项目数
	ExtractedZips   int     `json:"extracted_zips"`   // 展开的压缩包数
	TotalSize       int64   `json:"total_size"`       // 总下载大小(字节)
	Duration        float64 `json:"duration"`         // 总耗时(秒)
}

// ArtifactInfo 成功下载的附件信息
type ArtifactInfo struct {
	Project      string    `json:"project"`
	URL          string    `json:"url"`
	FilePath     string    `json:"file_path"`
	Size         int64     `json:"size"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// FailedArtifactInfo 失败附件信息
type FailedArtifactInfo struct {
	Project  string `json:"project"`
	URL      string `json:"url"`
	ErrorMsg string `json:"error_msg"`
}

// FailedResolveInfo 压缩包展开失败信息
type FailedResolveInfo struct {
	Project  string `json:"project"`
	ErrorMsg string `json:"error_msg"`
}

// MirrorSummary 镜像结果汇总
// 镜像采用尽力而为语义: 单个附件失败只计入汇总,不中断整体任务。
// 调用方通过汇总断言失败情况,而不是解析日志文本。
type MirrorSummary struct {
	Stats            MirrorStats          `json:"stats"`
	SuccessArtifacts []ArtifactInfo       `json:"success_artifacts"`
	FailedArtifacts  []FailedArtifactInfo `json:"failed_artifacts"`
	FailedResolves   []FailedResolveInfo  `json:"failed_resolves"`
}

// HasFailures 是否存在任何局部失败
func (s *MirrorSummary) HasFailures() bool {
	return len(s.FailedArtifacts) > 0 || len(s.FailedResolves) > 0
}

// MirrorReport 镜像报告(写入输出目录的JSON文件)
type MirrorReport struct {
	RunID      string         `json:"run_id"`
	ListingURL string         `json:"listing_url"`
	OutputDir  string         `json:"output_dir"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    time.Time      `json:"end_time"`
	Summary    *MirrorSummary `json:"summary"`
	Config     MirrorConfig   `json:"config"` // 配置快照
}

// ToJSON 序列化为JSON
func (r *MirrorReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
