package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"slide-talker/app/config"
	"slide-talker/app/logger"
	"slide-talker/app/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestLogger() *logger.Logger {
	return logger.New(config.LogConfig{Level: "error", Format: "text", Output: "stdout"})
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.Task{}); err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}
	return db
}

func newTestStore(t *testing.T) *TaskStore {
	t.Helper()
	return NewTaskStore(newTestDB(t))
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("写入文件失败: %v", err)
	}
}

// waitStatus 轮询任务状态直到进入预期状态或超时
func waitStatus(t *testing.T, store *TaskStore, code string, want model.Status) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status, err := store.GetStatus(code)
		if err == nil && status == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	status, err := store.GetStatus(code)
	t.Fatalf("等待状态超时: code=%s, want=%s, got=%s, err=%v", code, want, status, err)
}
