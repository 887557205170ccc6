package service

import (
	"context"
	"sync"
	"time"

	"slide-talker/app/logger"
	"slide-talker/app/model"
	"slide-talker/app/utils/srt"
	"slide-talker/app/utils/workdir"
)

// MergeWorker 字幕合并流水线。只处理人工确认字幕后的显式合并请求，
// 合并前检查视频合成与字幕流程都已完成。
//
// 条件未满足时默认丢弃请求：字幕提交早于视频合成完成的任务会永远停在
// Processing，这是沿用的已知缺陷。开启 requeueOnPending 后改为延迟重新入队。
type MergeWorker struct {
	logger       *logger.Logger
	store        *TaskStore
	engine       *Engine
	arena        *workdir.Arena
	finalizer    *Finalizer
	queue        chan model.MergeRequest
	requeue      bool
	requeueDelay time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	isRunning    bool
	mu           sync.Mutex
}

// NewMergeWorker 创建字幕合并流水线
func NewMergeWorker(log *logger.Logger, store *TaskStore, engine *Engine, arena *workdir.Arena, finalizer *Finalizer, capacity int, requeue bool, requeueDelay time.Duration) *MergeWorker {
	if capacity <= 0 {
		capacity = 100
	}
	if requeueDelay <= 0 {
		requeueDelay = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &MergeWorker{
		logger:       log,
		store:        store,
		engine:       engine,
		arena:        arena,
		finalizer:    finalizer,
		queue:        make(chan model.MergeRequest, capacity),
		requeue:      requeue,
		requeueDelay: requeueDelay,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start 启动流水线
func (w *MergeWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		w.logger.Warnf("字幕合并流水线已经在运行中")
		return
	}

	w.isRunning = true
	w.logger.Infof("启动字幕合并流水线，队列容量: %d", cap(w.queue))

	w.wg.Add(1)
	go w.run()
}

// Stop 停止流水线
func (w *MergeWorker) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = false
	w.mu.Unlock()

	w.logger.Infof("正在停止字幕合并流水线...")
	w.cancel()
	w.wg.Wait()
	w.logger.Infof("字幕合并流水线已停止")
}

// TryEnqueue 非阻塞入队，语义同视频合成队列
func (w *MergeWorker) TryEnqueue(req model.MergeRequest) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.isRunning {
		return ErrQueueClosed
	}
	select {
	case w.queue <- req:
		return nil
	default:
		return ErrQueueFull
	}
}

// QueueDepth 当前排队数与容量
func (w *MergeWorker) QueueDepth() (int, int) {
	return len(w.queue), cap(w.queue)
}

func (w *MergeWorker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case req := <-w.queue:
			w.logger.Infof("收到字幕合并请求: code=%s", req.Code)
			w.process(req)
		}
	}
}

func (w *MergeWorker) process(req model.MergeRequest) {
	code := req.Code

	task, err := w.store.GetTask(code)
	if err != nil {
		w.logger.Errorf("读取任务失败，丢弃合并请求: code=%s, err=%v", code, err)
		return
	}

	if !task.MergeReady() {
		if w.requeue {
			w.logger.Warnf("合并条件未满足，%s 后重新入队: code=%s, video=%s, subs=%s",
				w.requeueDelay, code, task.VideoStatus, task.SubsStatus)
			w.requeueLater(req)
		} else {
			w.logger.Warnf("合并条件未满足，丢弃请求: code=%s, video=%s, subs=%s",
				code, task.VideoStatus, task.SubsStatus)
		}
		return
	}

	// 把人工确认的字幕写成 SRT 文件，覆盖自动转写的草稿
	if err := srt.Write(w.arena.Path(code, workdir.CaptionsFile), task.Subtitles); err != nil {
		w.logger.Errorf("写入字幕文件失败: code=%s, err=%v", code, err)
		w.finalizer.Finalize(code, false)
		return
	}

	err = w.engine.Execute(w.ctx, StepBurnCaptions, map[string]string{
		"video_path":    w.arena.Path(code, workdir.ResultFile),
		"subtitle_path": w.arena.Path(code, workdir.CaptionsFile),
		"output_path":   w.arena.Path(code, workdir.ResultWithCaptionsFile),
	})
	if err != nil {
		w.logger.Errorf("字幕烧录失败: code=%s, err=%v", code, err)
	}
	w.finalizer.Finalize(code, err == nil)
}

// requeueLater 延迟后重新入队，流水线停止时放弃
func (w *MergeWorker) requeueLater(req model.MergeRequest) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		select {
		case <-w.ctx.Done():
		case <-time.After(w.requeueDelay):
			if err := w.TryEnqueue(req); err != nil {
				w.logger.Errorf("重新入队失败: code=%s, err=%v", req.Code, err)
			}
		}
	}()
}
