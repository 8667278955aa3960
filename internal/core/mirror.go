package core

import (
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/RecoveryAshes/ObexMirror/internal/models"
	"github.com/RecoveryAshes/ObexMirror/internal/utils"
)

// Mirror 镜像写入器
// 职责: 创建输出目录树,按项目并发下载附件,再逐项目展开压缩包
//
// 并发模型: 每个项目一个goroutine,信号量通道限制并发数,
// WaitGroup作为屏障。一个项目目录只属于一个任务,任务间唯一共享的
// 状态是结果通道,槽位互不重叠,无须加锁。
// 失败语义: 尽力而为。单个附件下载失败或单个项目的压缩包展开失败
// 只记入汇总并打警告日志,不影响兄弟附件和其他项目。
type Mirror struct {
	cfg      models.MirrorConfig
	client   *http.Client
	archiver *Archiver
}

// projectResult 单个项目任务的结果(经结果通道汇集)
type projectResult struct {
	success    []models.ArtifactInfo
	failed     []models.FailedArtifactInfo
	resolveErr *models.FailedResolveInfo
	extracted  int
	size       int64
}

// NewMirror 创建镜像写入器
func NewMirror(cfg models.MirrorConfig) *Mirror {
	return &Mirror{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.HTTPTimeout) * time.Second,
		},
		archiver: NewArchiver(),
	}
}

// EnsureOutputAbsent 检查输出目录不存在
// 已存在时返回PreconditionError,防止静默合并到旧输出
func (m *Mirror) EnsureOutputAbsent() error {
	if _, err := os.Stat(m.cfg.OutputDir); err == nil || !os.IsNotExist(err) {
		return &models.PreconditionError{Path: m.cfg.OutputDir}
	}
	return nil
}

// Mirror 把目录镜像到本地输出目录
// 所有项目任务完成(屏障)后才返回;个别附件失败不构成整体错误,
// 通过返回的汇总暴露
func (m *Mirror) Mirror(catalog models.Catalog) (*models.MirrorSummary, error) {
	startTime := time.Now()

	if err := m.EnsureOutputAbsent(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(m.cfg.OutputDir, 0755); err != nil {
		return nil, err
	}

	utils.Infof("📦 开始镜像 %d 个项目到 %s (并发数: %d)", len(catalog), m.cfg.OutputDir, m.cfg.Workers)
	bar := utils.NewProgressBar(len(catalog), "镜像项目")

	results := make(chan projectResult, len(catalog))
	sem := make(chan struct{}, m.cfg.Workers)
	var wg sync.WaitGroup

	for title, attachments := range catalog {
		projectDir := filepath.Join(m.cfg.OutputDir, models.NormalizeTitle(title))
		if err := os.MkdirAll(projectDir, 0755); err != nil {
			return nil, err
		}

		wg.Add(1)
		go func(title, dir string, attachments []models.Attachment) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results <- m.mirrorProject(title, dir, attachments)
			_ = bar.Add(1)
		}(title, projectDir, attachments)
	}

	wg.Wait()
	close(results)

	summary := &models.MirrorSummary{Stats: models.MirrorStats{Projects: len(catalog)}}
	for res := range results {
		summary.SuccessArtifacts = append(summary.SuccessArtifacts, res.success...)
		summary.FailedArtifacts = append(summary.FailedArtifacts, res.failed...)
		if res.resolveErr != nil {
			summary.FailedResolves = append(summary.FailedResolves, *res.resolveErr)
		}
		summary.Stats.ExtractedZips += res.extracted
		summary.Stats.TotalSize += res.size
	}
	summary.Stats.Artifacts = len(summary.SuccessArtifacts)
	summary.Stats.FailedArtifacts = len(summary.FailedArtifacts)
	summary.Stats.FailedResolves = len(summary.FailedResolves)
	summary.Stats.Duration = time.Since(startTime).Seconds()

	reporter := utils.NewReporter(m.cfg.OutputDir)
	if err := reporter.GenerateReport(m.cfg.ListingURL, summary, m.cfg); err != nil {
		utils.Warnf("生成报告失败: %v", err)
	}

	utils.Infof("✅ 镜像完成: %d 个附件, %d 个失败, 耗时 %.1f 秒",
		summary.Stats.Artifacts, summary.Stats.FailedArtifacts, summary.Stats.Duration)
	return summary, nil
}

// mirrorProject 镜像单个项目: 按列出顺序依次下载附件,全部完成后展开压缩包
// 附件下载失败记录URL和原因后继续,不重试
func (m *Mirror) mirrorProject(title, dir string, attachments []models.Attachment) projectResult {
	var res projectResult

	for _, att := range attachments {
		data, err := download(m.client, att.URL)
		if err != nil {
			utils.Warnf("下载失败 [%s]: %v", att.URL, err)
			res.failed = append(res.failed, models.FailedArtifactInfo{
				Project:  title,
				URL:      att.URL,
				ErrorMsg: err.Error(),
			})
			continue
		}

		target := filepath.Join(dir, models.NormalizeTitle(att.Name))
		if err := os.WriteFile(target, data, 0644); err != nil {
			utils.Warnf("写入附件失败 [%s]: %v", target, err)
			res.failed = append(res.failed, models.FailedArtifactInfo{
				Project:  title,
				URL:      att.URL,
				ErrorMsg: err.Error(),
			})
			continue
		}

		utils.Debugf("📥 下载成功: %s (%d bytes)", target, len(data))
		res.success = append(res.success, models.ArtifactInfo{
			Project:      title,
			URL:          att.URL,
			FilePath:     target,
			Size:         int64(len(data)),
			DownloadedAt: time.Now(),
		})
		res.size += int64(len(data))
	}

	extracted, err := m.archiver.Resolve(dir)
	res.extracted = extracted
	if err != nil {
		utils.Warnf("展开压缩包失败 [项目: %s]: %v", title, err)
		res.resolveErr = &models.FailedResolveInfo{Project: title, ErrorMsg: err.Error()}
	}

	return res
}
