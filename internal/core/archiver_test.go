package core

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/ObexMirror/internal/models"
)

// zipBytes 在内存中构造zip内容
func zipBytes(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("创建zip条目失败: %v", err)
		}
		if _, err := f.Write(data); err != nil {
			t.Fatalf("写入zip条目失败: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("关闭zip失败: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("写入文件失败: %v", err)
	}
}

// remainingZips 统计目录下残留的zip文件
func remainingZips(t *testing.T, dir string) []string {
	t.Helper()
	archives, err := findArchives(dir)
	if err != nil {
		t.Fatalf("扫描失败: %v", err)
	}
	return archives
}

func TestArchiver_无压缩包是空操作(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "readme.txt"), []byte("plain"))

	extracted, err := NewArchiver().Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve失败: %v", err)
	}
	if extracted != 0 {
		t.Errorf("展开数 = %d, 期望 0", extracted)
	}
}

func TestArchiver_单层压缩包(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.zip"), zipBytes(t, map[string][]byte{
		"hello.txt": []byte("hello"),
	}))

	extracted, err := NewArchiver().Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve失败: %v", err)
	}
	if extracted != 1 {
		t.Errorf("展开数 = %d, 期望 1", extracted)
	}

	data, err := os.ReadFile(filepath.Join(dir, "hello.txt"))
	if err != nil || string(data) != "hello" {
		t.Errorf("解压内容 = %q, err = %v", data, err)
	}
	if zips := remainingZips(t, dir); len(zips) != 0 {
		t.Errorf("残留zip = %v, 期望已删除", zips)
	}
}

func TestArchiver_嵌套压缩包两轮展开(t *testing.T) {
	dir := t.TempDir()

	inner := zipBytes(t, map[string][]byte{"payload.txt": []byte("nested")})
	outer := zipBytes(t, map[string][]byte{
		"b.zip":      inner,
		"readme.txt": []byte("outer"),
	})
	writeFile(t, filepath.Join(dir, "a.zip"), outer)

	extracted, err := NewArchiver().Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve失败: %v", err)
	}
	// a.zip第一轮, b.zip第二轮
	if extracted != 2 {
		t.Errorf("展开数 = %d, 期望 2", extracted)
	}

	for _, name := range []string{"readme.txt", "payload.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("缺少解压文件 %s: %v", name, err)
		}
	}
	if zips := remainingZips(t, dir); len(zips) != 0 {
		t.Errorf("残留zip = %v, 期望全部展开并删除", zips)
	}
}

func TestArchiver_子目录中的压缩包原地展开(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sub", "c.ZIP"), zipBytes(t, map[string][]byte{
		"inner.txt": []byte("sub"),
	}))

	if _, err := NewArchiver().Resolve(dir); err != nil {
		t.Fatalf("Resolve失败: %v", err)
	}

	// c.ZIP在sub/下,内容应展开到sub/而非根目录
	if _, err := os.Stat(filepath.Join(dir, "sub", "inner.txt")); err != nil {
		t.Errorf("嵌套目录解压位置错误: %v", err)
	}
}

func TestArchiver_幂等(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.zip"), zipBytes(t, map[string][]byte{
		"hello.txt": []byte("hello"),
	}))

	if _, err := NewArchiver().Resolve(dir); err != nil {
		t.Fatalf("第一次Resolve失败: %v", err)
	}

	extracted, err := NewArchiver().Resolve(dir)
	if err != nil {
		t.Fatalf("第二次Resolve失败: %v", err)
	}
	if extracted != 0 {
		t.Errorf("第二次展开数 = %d, 期望 0", extracted)
	}
}

func TestArchiver_损坏的压缩包(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.zip"), []byte("this is not a zip"))

	_, err := NewArchiver().Resolve(dir)
	if err == nil {
		t.Fatal("期望返回错误")
	}

	var ee *models.ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("期望ExtractionError, 实际: %T", err)
	}
	if filepath.Base(ee.Path) != "broken.zip" {
		t.Errorf("错误路径 = %q, 期望指向损坏的压缩包", ee.Path)
	}
}

func TestExtractZip_条目路径越界(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.zip")
	writeFile(t, archive, zipBytes(t, map[string][]byte{
		"../escape.txt": []byte("nope"),
	}))

	if err := extractZip(archive, dir); err == nil {
		t.Fatal("期望拒绝越界条目")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.txt")); err == nil {
		t.Error("越界文件不应被写出")
	}
}
