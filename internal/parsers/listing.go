package parsers

import (
	"fmt"
	"io"
	"strings"

	"github.com/RecoveryAshes/ObexMirror/internal/models"
	"golang.org/x/net/html"
)

// ListingParser 列表页解析器
// 职责: 单遍消费HTML词法事件,把项目列表表格还原为行/列结构
//
// 解析约定:
//   - 第0行是表头,并在最前面合成一个"Link"列,
//     因为真实链接来自数据单元格中<a>标签的href属性而非文本
//   - 数据单元格内的<a>标签: href(已解码HTML实体)先于文本内容作为独立单元格追加
//   - 表头单元格内的<a>标签不是项目链接,忽略
//   - 单元格关闭时压缩内部空白并去除首尾空白,纯空文本丢弃
//   - 行关闭时,空行不计入结果(防御流浪的<tr>)
type ListingParser struct {
	sink io.Writer // CSV快照输出(可选),仅供人工检查,不影响返回结果

	table      models.ListingTable
	currentRow []string
	cellText   strings.Builder

	inHeaderCell bool
	inDataCell   bool
}

// NewListingParser 创建列表页解析器
// sink为nil时不输出CSV快照
func NewListingParser(sink io.Writer) *ListingParser {
	return &ListingParser{sink: sink}
}

// Parse 解析列表页HTML,返回表格
// 无法继续词法分析的HTML返回ParseError,不做部分恢复
func (p *ListingParser) Parse(r io.Reader) (models.ListingTable, error) {
	p.writeSink("%q,", models.LinkColumn)

	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, &models.ParseError{Err: err}
			}
			return p.table, nil
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
func (p *ListingParser) handleStartTag(t html.Token) {
	switch t.Data {
	case "tr":
		p.currentRow = []string{}
		if len(p.table) == 0 {
			// 首行是表头,合成链接列
			p.currentRow = append(p.currentRow, models.LinkColumn)
		}
	case "th":
		p.inHeaderCell = true
		p.cellText.Reset()
	case "td":
		p.inDataCell = true
		p.cellText.Reset()
	case "a":
		// 只采集数据单元格内的链接,表头中的锚点不是项目链接
		if p.inDataCell && p.currentRow != nil {
			if href, ok := attrValue(t, "href"); ok {
				p.writeSink("%q,", href)
				p.currentRow = append(p.currentRow, href)
			}
		}
	}
}

// handleEndTag 处理结束标签
func (p *ListingParser) handleEndTag(tag string) {
	switch tag {
	case "tr":
		p.writeSink("\n")
		if len(p.currentRow) > 0 {
			p.table = append(p.table, p.currentRow)
		}
		p.currentRow = nil
	case "th", "td":
		p.flushCell()
		p.inHeaderCell = false
		p.inDataCell = false
	}
}

// handleText 处理文本内容
func (p *ListingParser) handleText(data string) {
	if (p.inHeaderCell || p.inDataCell) && p.currentRow != nil {
		p.cellText.WriteString(data)
	}
}

// flushCell 结算当前单元格的文本内容
// 空白压缩为单个空格,纯空内容丢弃(单元格可能只有链接)
func (p *ListingParser) flushCell() {
	content := collapseWhitespace(p.cellText.String())
	p.cellText.Reset()
	if content == "" || p.currentRow == nil {
		return
	}
	p.writeSink("%q,", content)
	p.currentRow = append(p.currentRow, content)
}

// writeSink 写CSV快照,sink未设置时为空操作
func (p *ListingParser) writeSink(format string, args ...interface{}) {
	if p.sink != nil {
		fmt.Fprintf(p.sink, format, args...)
	}
}

// collapseWhitespace 把连续空白压缩为单个空格并去除首尾空白
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// attrValue 查找标签属性值(词法分析器已解码HTML实体)
func attrValue(t html.Token, name string) (string, bool) {
	for _, a := range t.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}
