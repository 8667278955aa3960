package models

import (
	"fmt"
	"net/url"
	"strings"
)

// 列表页表格的固定列名
const (
	// LinkColumn 合成的链接列名(表头第0列,链接来自<a>标签的href属性而非文本)
	LinkColumn = "Link"
	// TitleColumn 项目标题列名
	TitleColumn = "Project Title"
)

// Attachment 附件
// 在解析详情页时创建,下载时消费一次,之后不再修改
type Attachment struct {
	URL  string `json:"url"`  // 下载地址(绝对URL)
	Name string `json:"name"` // 目标文件名
}

// Catalog 目录映射: 项目标题 -> 附件列表(按详情页出现顺序)
type Catalog map[string][]Attachment

// ListingTable 列表页解析结果
// 第0行为表头,之后每行列数与表头一致
type ListingTable [][]string

// Header 返回表头行
func (t ListingTable) Header() []string {
	if len(t) == 0 {
		return nil
	}
	return t[0]
}

// ColumnIndex 按列名查找表头中的列索引,不存在返回-1
func (t ListingTable) ColumnIndex(name string) int {
	for i, col := range t.Header() {
		if col == name {
			return i
		}
	}
	return -1
}

// ProjectRows 返回项目数据行
// 排除表头和最后一行(表格末尾的非项目占位行)
func (t ListingTable) ProjectRows() [][]string {
	if len(t) <= 2 {
		return nil
	}
	return t[1 : len(t)-1]
}

// NormalizeTitle 把项目标题规范化为目录名
// 路径分隔符替换为下划线,其余字符原样保留
func NormalizeTitle(title string) string {
	return strings.ReplaceAll(title, "/", "_")
}

// MirrorConfig 镜像任务配置
type MirrorConfig struct {
	ListingURL  string `json:"listing_url"`  // 列表页URL
	TableFile   string `json:"table_file"`   // CSV快照输出路径(可选,空则不输出)
	OutputDir   string `json:"output_dir"`   // 输出目录(必须不存在)
	Workers     int    `json:"workers"`      // 并发工作者数量
	HTTPTimeout int    `json:"http_timeout"` // HTTP请求超时(秒)
}

// Validate 验证配置
func (c *MirrorConfig) Validate() error {
	if err := ValidateURL(c.ListingURL); err != nil {
		return fmt.Errorf("列表页URL无效: %w", err)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("输出目录不能为空")
	}
	if c.Workers < 1 || c.Workers > 100 {
		return fmt.Errorf("并发数必须在1-100之间,当前值: %d", c.Workers)
	}
	if c.HTTPTimeout < 1 || c.HTTPTimeout > 600 {
		return fmt.Errorf("HTTP超时必须在1-600秒之间,当前值: %d", c.HTTPTimeout)
	}
	return nil
}

// ValidateURL 验证URL格式
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("URL格式无效: %w", err)
	}

	if parsed.Scheme == "" {
		return fmt.Errorf("URL缺少协议(http/https)")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL协议必须是http或https")
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL缺少主机名")
	}

	return nil
}
