package core

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/ObexMirror/internal/models"
	"github.com/RecoveryAshes/ObexMirror/internal/utils"
)

// Archiver 压缩包展开器
// 职责: 迭代扫描目录下的zip文件并原地解压,直到没有未展开的压缩包
//
// 解压可能产生新的zip(嵌套压缩包),所以每轮展开后必须重新扫描;
// 已展开的路径记入集合,每个路径只展开一次,循环自然终止。
// 策略: 成功展开的压缩包随即删除(嵌套zip只有在外层展开后才会出现,
// 展开集合保证即使解压产出同名zip也不会二次展开)。
type Archiver struct{}

// NewArchiver 创建压缩包展开器
func NewArchiver() *Archiver {
	return &Archiver{}
}

// Resolve 展开目录下的所有压缩包(含嵌套),幂等
// 没有压缩包的目录只做一次扫描,不产生任何写入
// 返回值: 展开的压缩包数量; 损坏的压缩包返回ExtractionError并中止该目录的展开
func (a *Archiver) Resolve(dir string) (int, error) {
	extracted := make(map[string]bool)

	for {
		archives, err := findArchives(dir)
		if err != nil {
			return len(extracted), fmt.Errorf("扫描压缩包失败 [%s]: %w", dir, err)
		}

		var pending []string
		for _, p := range archives {
			if !extracted[p] {
				pending = append(pending, p)
			}
		}
		if len(pending) == 0 {
			return len(extracted), nil
		}

		for _, archive := range pending {
			utils.Debugf("展开压缩包: %s", archive)
			if err := extractZip(archive, filepath.Dir(archive)); err != nil {
				return len(extracted), &models.ExtractionError{Path: archive, Err: err}
			}
			extracted[archive] = true

			if err := os.Remove(archive); err != nil {
				utils.Warnf("删除已展开的压缩包失败 [%s]: %v", archive, err)
			}
		}
	}
}

// findArchives 递归扫描目录,收集所有zip文件路径(扩展名不区分大小写)
func findArchives(dir string) ([]string, error) {
	var result []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".zip") {
			result = append(result, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// extractZip 把压缩包解压到目标目录
// 条目路径不允许越出目标目录(zip-slip)
func extractZip(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, entry := range reader.File {
		target := filepath.Join(destDir, entry.Name)
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("压缩包条目路径越界: %s", entry.Name)
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if err := extractEntry(entry, target); err != nil {
			return fmt.Errorf("解压条目失败 [%s]: %w", entry.Name, err)
		}
	}

	return nil
}

// extractEntry 解压单个文件条目
func extractEntry(entry *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return err
	}
	return nil
}
