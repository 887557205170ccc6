package workdir

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("写入文件失败: %v", err)
	}
}

func TestPaths(t *testing.T) {
	a := New("/data/tmp")

	if got := a.Dir("abc12345"); got != filepath.Join("/data/tmp", "abc12345") {
		t.Errorf("任务目录路径错误: %s", got)
	}
	if got := a.Path("abc12345", VideoFile); got != filepath.Join("/data/tmp", "abc12345", "video.mp4") {
		t.Errorf("文件路径错误: %s", got)
	}
}

func TestCleanupScratch(t *testing.T) {
	a := New(t.TempDir())
	code := "clean001"

	if err := a.CreateDir(code); err != nil {
		t.Fatalf("创建任务目录失败: %v", err)
	}
	write(t, a.Path(code, VideoFile))
	write(t, a.Path(code, AudioFile))
	write(t, a.Path(code, CaptionsFile))
	write(t, filepath.Join(a.Path(code, GenDir), "chunk_0.mp4"))
	write(t, a.Path(code, ResultFile))
	write(t, a.Path(code, ResultWithCaptionsFile))

	if err := a.CleanupScratch(code); err != nil {
		t.Fatalf("清理失败: %v", err)
	}

	entries, err := os.ReadDir(a.Dir(code))
	if err != nil {
		t.Fatalf("读取任务目录失败: %v", err)
	}
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	if len(names) != 2 || !names[ResultFile] || !names[ResultWithCaptionsFile] {
		t.Errorf("清理后只应保留成品文件: %v", names)
	}
}

func TestCleanupScratchMissingDir(t *testing.T) {
	a := New(t.TempDir())
	if err := a.CleanupScratch("missing1"); err == nil {
		t.Error("目录不存在时清理应报错")
	}
}

func TestRemove(t *testing.T) {
	a := New(t.TempDir())
	code := "gone0001"

	if err := a.CreateDir(code); err != nil {
		t.Fatalf("创建任务目录失败: %v", err)
	}
	write(t, a.Path(code, ResultFile))

	if err := a.Remove(code); err != nil {
		t.Fatalf("删除任务目录失败: %v", err)
	}
	if _, err := os.Stat(a.Dir(code)); !os.IsNotExist(err) {
		t.Error("任务目录应已删除")
	}

	// 目录不存在时视为成功
	if err := a.Remove(code); err != nil {
		t.Errorf("重复删除不应报错: %v", err)
	}
}

func TestExists(t *testing.T) {
	a := New(t.TempDir())
	code := "exist001"

	if a.Exists(code, AudioFile) {
		t.Error("文件尚未创建")
	}
	write(t, a.Path(code, AudioFile))
	if !a.Exists(code, AudioFile) {
		t.Error("文件已创建")
	}
}

func TestEnsureGen(t *testing.T) {
	a := New(t.TempDir())

	dir, err := a.EnsureGen("gen00001")
	if err != nil {
		t.Fatalf("创建分段输出目录失败: %v", err)
	}
	if dir != a.Path("gen00001", GenDir) {
		t.Errorf("分段输出目录路径错误: %s", dir)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("分段输出目录应已创建: %v", err)
	}
}
