package parsers

import (
	"io"
	"net/url"
	"strings"

	"github.com/RecoveryAshes/ObexMirror/internal/models"
	"golang.org/x/net/html"
)

// attachmentLabel 详情页中附件链接前的字面标签文本
const attachmentLabel = "Attachment"

// DetailParser 项目详情页解析器
// 职责: 提取"Attachment"标签之后的下载链接及其显示文件名
//
// 状态机三个标志:
//   - pastHeader: 已越过页面第一个<th>,在此之前不采集任何链接
//   - sawLabel:   刚看到字面文本"Attachment",下一个<a>就是附件链接
//   - inAnchor:   正在该<a>内部,文本内容累积为附件文件名
type DetailParser struct {
	base *url.URL // 目录站点基准URL,用于把相对链接补全为绝对URL

	pastHeader bool
	sawLabel   bool
	inAnchor   bool

	attachments []models.Attachment
}

// NewDetailParser 创建详情页解析器
// base为nil时相对链接原样返回
func NewDetailParser(base *url.URL) *DetailParser {
	return &DetailParser{base: base}
}

// Parse 解析详情页HTML,返回附件列表(按页面出现顺序)
// 没有附件的页面返回空列表,不是错误
func (p *DetailParser) Parse(r io.Reader) ([]models.Attachment, error) {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, &models.ParseError{Err: err}
			}
			return p.attachments, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			p.handleStartTag(z.Token())
		case html.EndTagToken:
			p.handleEndTag(z.Token().Data)
		case html.TextToken:
			p.handleText(string(z.Text()))
		}
	}
}

// handleStartTag 处理开始标签
func (p *DetailParser) handleStartTag(t html.Token) {
	switch t.Data {
	case "th":
		p.pastHeader = true
	case "a":
		if !p.sawLabel {
			return
		}
		if href, ok := attrValue(t, "href"); ok {
			p.attachments = append(p.attachments, models.Attachment{
				URL: p.resolve(href),
			})
			p.inAnchor = true
		}
	}
}

// handleEndTag 处理结束标签
// </a>结束当前附件的文件名采集,同时清除标签标志
func (p *DetailParser) handleEndTag(tag string) {
	if tag == "a" && p.inAnchor {
		p.inAnchor = false
		p.sawLabel = false
	}
}

// handleText 处理文本内容
func (p *DetailParser) handleText(data string) {
	stripped := strings.TrimSpace(data)

	if p.pastHeader && stripped == attachmentLabel {
		p.sawLabel = true
	}

	if p.inAnchor && len(p.attachments) > 0 {
		content := collapseWhitespace(stripped)
		if content == "" {
			return
		}
		last := &p.attachments[len(p.attachments)-1]
		if last.Name != "" {
			last.Name += " "
		}
		last.Name += content
	}
}

// resolve 把链接补全为绝对URL
func (p *DetailParser) resolve(href string) string {
	if p.base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return p.base.ResolveReference(ref).String()
}
