package core

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"sync"
	"time"

	"github.com/RecoveryAshes/ObexMirror/internal/models"
	"github.com/RecoveryAshes/ObexMirror/internal/parsers"
	"github.com/RecoveryAshes/ObexMirror/internal/utils"
	"github.com/gocolly/colly/v2"
)

// Fetcher 目录抓取器
// 职责: 抓取列表页 -> 解析表格 -> 并发抓取各项目详情页 -> 汇总为Catalog
//
// 两个阶段严格串行: 先取得完整的项目->附件映射,再开始任何下载。
// 详情页抓取跑在Colly异步采集器上,并发由LimitRule限制,
// Wait()作为阶段结束的屏障。
type Fetcher struct {
	cfg    models.MirrorConfig
	base   *url.URL // 列表页URL解析结果,相对链接以其origin补全
	client *http.Client
}

// NewFetcher 创建目录抓取器
func NewFetcher(cfg models.MirrorConfig) (*Fetcher, error) {
	parsed, err := url.Parse(cfg.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("解析列表页URL失败: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("无法从列表页URL中提取域名: %s", cfg.ListingURL)
	}

	return &Fetcher{
		cfg:  cfg,
		base: &url.URL{Scheme: parsed.Scheme, Host: parsed.Host},
		client: &http.Client{
			Timeout: time.Duration(cfg.HTTPTimeout) * time.Second,
		},
	}, nil
}

// Fetch 抓取并解析整个目录
// 列表页抓取/解析失败和表头缺列是致命错误;
// 单个详情页失败只丢弃该项目并记录警告,不中断整体抓取
func (f *Fetcher) Fetch() (models.Catalog, error) {
	utils.Infof("📋 抓取项目列表: %s", f.cfg.ListingURL)

	body, err := f.fetchListing()
	if err != nil {
		return nil, err
	}

	table, err := f.parseListing(body)
	if err != nil {
		return nil, err
	}

	linkIdx := table.ColumnIndex(models.LinkColumn)
	if linkIdx < 0 {
		return nil, &models.SchemaError{Column: models.LinkColumn}
	}
	titleIdx := table.ColumnIndex(models.TitleColumn)
	if titleIdx < 0 {
		return nil, &models.SchemaError{Column: models.TitleColumn}
	}

	rows := table.ProjectRows()
	utils.Infof("发现 %d 个项目,开始抓取详情页 (并发数: %d)", len(rows), f.cfg.Workers)

	return f.fetchDetails(rows, linkIdx, titleIdx)
}

// fetchListing 抓取列表页HTML
func (f *Fetcher) fetchListing() ([]byte, error) {
	resp, err := f.client.Get(f.cfg.ListingURL)
	if err != nil {
		return nil, &models.FetchError{URL: f.cfg.ListingURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &models.FetchError{URL: f.cfg.ListingURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.FetchError{URL: f.cfg.ListingURL, Err: err}
	}
	return body, nil
}

// parseListing 解析列表页表格,按配置附带CSV快照输出
func (f *Fetcher) parseListing(body []byte) (models.ListingTable, error) {
	var sink io.Writer
	if f.cfg.TableFile != "" {
		file, err := os.Create(f.cfg.TableFile)
		if err != nil {
			return nil, fmt.Errorf("创建CSV快照文件失败: %w", err)
		}
		defer file.Close()
		sink = file
		utils.Infof("CSV快照输出: %s", f.cfg.TableFile)
	}

	return parsers.NewListingParser(sink).Parse(bytes.NewReader(body))
}

// fetchDetails 并发抓取所有项目详情页
// 每行一个任务,项目标题通过Colly请求上下文传递;
// 结果映射在Wait()屏障之后才返回
func (f *Fetcher) fetchDetails(rows [][]string, linkIdx, titleIdx int) (models.Catalog, error) {
	c := colly.NewCollector(colly.Async(true))
	c.SetClient(f.client)

	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: f.cfg.Workers,
	}); err != nil {
		return nil, fmt.Errorf("设置并发限制失败: %w", err)
	}

	catalog := make(models.Catalog)
	var mu sync.Mutex

	c.OnResponse(func(r *colly.Response) {
		title := r.Ctx.Get("title")

		attachments, err := parsers.NewDetailParser(f.base).Parse(bytes.NewReader(r.Body))
		if err != nil {
			utils.Warnf("解析详情页失败 [%s]: %v, 跳过该项目", r.Request.URL, err)
			return
		}

		// 锚点没有文本时退回URL路径末段作为文件名
		for i := range attachments {
			if attachments[i].Name == "" {
				attachments[i].Name = fileNameFromURL(attachments[i].URL)
			}
		}

		utils.Debugf("项目 [%s]: %d 个附件", title, len(attachments))

		mu.Lock()
		catalog[title] = attachments
		mu.Unlock()
	})

	c.OnError(func(r *colly.Response, err error) {
		utils.Warnf("获取详情页失败 [%s]: %v, 跳过该项目", r.Request.URL, err)
	})

	for _, row := range rows {
		if linkIdx >= len(row) || titleIdx >= len(row) {
			utils.Warnf("数据行列数不足,跳过: %v", row)
			continue
		}

		detailURL := f.resolve(row[linkIdx])
		ctx := colly.NewContext()
		ctx.Put("title", row[titleIdx])

		if err := c.Request("GET", detailURL, nil, ctx, nil); err != nil {
			utils.Warnf("提交详情页请求失败 [%s]: %v", detailURL, err)
		}
	}

	c.Wait()

	utils.Infof("✅ 目录抓取完成: %d/%d 个项目", len(catalog), len(rows))
	return catalog, nil
}

// resolve 把列表页中的相对链接补全为绝对URL
func (f *Fetcher) resolve(link string) string {
	ref, err := url.Parse(link)
	if err != nil {
		return link
	}
	return f.base.ResolveReference(ref).String()
}

// fileNameFromURL 从URL路径中取末段作为文件名
func fileNameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "attachment"
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return "attachment"
	}
	return name
}
