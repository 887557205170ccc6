package service

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"slide-talker/app/logger"
	"slide-talker/app/utils/workdir"

	"github.com/robfig/cron/v3"
)

// RetentionSweeper 保留清理任务。每天本地零点运行一次，
// 删除超过保留期的任务（数据行与工作目录）并按日期清理过期日志文件。
type RetentionSweeper struct {
	logger        *logger.Logger
	store         *TaskStore
	arena         *workdir.Arena
	logDir        string
	retentionDays int
	cron          *cron.Cron
}

// NewRetentionSweeper 创建保留清理任务
func NewRetentionSweeper(log *logger.Logger, store *TaskStore, arena *workdir.Arena, logDir string, retentionDays int) *RetentionSweeper {
	if retentionDays <= 0 {
		retentionDays = 7
	}
	return &RetentionSweeper{
		logger:        log,
		store:         store,
		arena:         arena,
		logDir:        logDir,
		retentionDays: retentionDays,
	}
}

// Start 启动每日零点调度
func (s *RetentionSweeper) Start() {
	if s.cron != nil {
		return
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc("0 0 * * *", s.SweepOnce); err != nil {
		s.logger.Errorf("注册保留清理调度失败: %v", err)
		return
	}
	s.cron.Start()
	s.logger.Infof("保留清理任务已启动，保留天数: %d", s.retentionDays)
}

// Stop 停止调度，等待进行中的清理结束
func (s *RetentionSweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
	s.logger.Infof("保留清理任务已停止")
}

// SweepOnce 执行一轮清理，管理接口与测试也会直接调用
func (s *RetentionSweeper) SweepOnce() {
	cutoff := Today().AddDate(0, 0, -s.retentionDays)
	s.logger.Infof("开始保留清理，截止日期: %s", cutoff.Format("2006-01-02"))

	s.sweepTasks(cutoff)
	s.sweepLogs(cutoff)
}

// sweepTasks 删除创建日期不晚于截止日期的任务，单个任务失败不中断整轮
func (s *RetentionSweeper) sweepTasks(cutoff time.Time) {
	codes, err := s.store.FindOlderThan(cutoff)
	if err != nil {
		s.logger.Errorf("查询过期任务失败: %v", err)
		return
	}

	for _, code := range codes {
		if err := s.arena.Remove(code); err != nil {
			s.logger.Errorf("删除任务目录失败: code=%s, err=%v", code, err)
		}
		if err := s.store.Delete(code); err != nil {
			s.logger.Errorf("删除任务记录失败: code=%s, err=%v", code, err)
		}
	}

	if len(codes) > 0 {
		s.logger.Infof("本轮清理了 %d 个过期任务", len(codes))
	}
}

// sweepLogs 删除文件名日期不晚于截止日期的日志文件
func (s *RetentionSweeper) sweepLogs(cutoff time.Time) {
	entries, err := os.ReadDir(s.logDir)
	if err != nil {
		s.logger.Errorf("读取日志目录失败: %v", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		// 日志文件按 YYYY-MM-DD.log 命名
		dateStr, _, _ := strings.Cut(entry.Name(), ".")
		date, err := time.ParseInLocation("2006-01-02", dateStr, cutoff.Location())
		if err != nil {
			continue
		}
		if date.After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.logDir, entry.Name())); err != nil {
			s.logger.Errorf("删除日志文件失败: %s, err=%v", entry.Name(), err)
		}
	}
}
