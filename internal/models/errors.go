package models

import "fmt"

// FetchError HTTP请求失败(网络错误或非2xx状态码)
type FetchError struct {
	URL        string // 请求的URL
	StatusCode int    // HTTP状态码,网络错误时为0
	Err        error  // 底层错误,HTTP错误时为nil
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("请求失败 [%s]: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("请求失败 [%s]: HTTP %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SchemaError 表头中缺少预期的列
type SchemaError struct {
	Column string // 缺失的列名
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("表头中缺少列: %q", e.Column)
}

// ParseError HTML无法被流式解析器解析
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("解析HTML失败: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ExtractionError 压缩包损坏或无法解压
type ExtractionError struct {
	Path string // 出错的压缩包路径
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("解压失败 [%s]: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// PreconditionError 输出目录已存在
// 防止静默合并到上一次运行的残留输出中
type PreconditionError struct {
	Path string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("无法继续: 输出目录已存在 [%s]", e.Path)
}
