package service

import (
	"slide-talker/app/logger"
	"slide-talker/app/model"
	"slide-talker/app/utils/workdir"
)

// Finalizer 任务终结处理，两个流水线协程共用。
// 终态写入必须最先执行且不依赖后续步骤；邮件通知与中间产物清理失败只记录日志。
type Finalizer struct {
	logger   *logger.Logger
	store    *TaskStore
	arena    *workdir.Arena
	notifier *Notifier
}

// NewFinalizer 创建终结处理器
func NewFinalizer(log *logger.Logger, store *TaskStore, arena *workdir.Arena, notifier *Notifier) *Finalizer {
	return &Finalizer{
		logger:   log,
		store:    store,
		arena:    arena,
		notifier: notifier,
	}
}

// Finalize 写入终态、发送通知并清理中间产物
func (f *Finalizer) Finalize(code string, success bool) {
	f.logger.Infof("任务终结: code=%s, success=%v", code, success)

	status := model.StatusFail
	if success {
		status = model.StatusFinish
	}
	if err := f.store.SetStatus(code, status); err != nil {
		f.logger.Errorf("写入终态失败: code=%s, err=%v", code, err)
	}

	email, err := f.store.GetEmail(code)
	if err != nil {
		f.logger.Errorf("查询通知邮箱失败: code=%s, err=%v", code, err)
	} else if email == nil {
		f.logger.Debugf("任务未设置通知邮箱: code=%s", code)
	} else if err := f.notifier.Send(*email, code, success); err != nil {
		f.logger.Errorf("发送通知失败: code=%s, err=%v", code, err)
	}

	if err := f.arena.CleanupScratch(code); err != nil {
		f.logger.Errorf("清理中间产物失败: code=%s, err=%v", code, err)
	}
}
