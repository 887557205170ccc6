package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"slide-talker/app/logger"
	"slide-talker/app/model"
	"slide-talker/app/utils/workdir"
)

var (
	// ErrQueueFull 队列已满，调用方应稍后重试
	ErrQueueFull = errors.New("队列已满")
	// ErrQueueClosed 队列已关闭，调用方不应重试
	ErrQueueClosed = errors.New("队列已关闭")
)

// SynthesisWorker 视频合成流水线。单协程消费有界队列，
// 每个任务按固定步骤顺序处理完（或失败）才取下一个，任一步骤失败立即终结任务。
type SynthesisWorker struct {
	logger    *logger.Logger
	store     *TaskStore
	engine    *Engine
	arena     *workdir.Arena
	finalizer *Finalizer
	queue     chan model.SynthesisRequest
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.Mutex
}

// NewSynthesisWorker 创建视频合成流水线
func NewSynthesisWorker(log *logger.Logger, store *TaskStore, engine *Engine, arena *workdir.Arena, finalizer *Finalizer, capacity int) *SynthesisWorker {
	if capacity <= 0 {
		capacity = 100
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &SynthesisWorker{
		logger:    log,
		store:     store,
		engine:    engine,
		arena:     arena,
		finalizer: finalizer,
		queue:     make(chan model.SynthesisRequest, capacity),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start 启动流水线
func (w *SynthesisWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		w.logger.Warnf("视频合成流水线已经在运行中")
		return
	}

	w.isRunning = true
	w.logger.Infof("启动视频合成流水线，队列容量: %d", cap(w.queue))

	w.wg.Add(1)
	go w.run()
}

// Stop 停止流水线，当前任务处理完后退出
func (w *SynthesisWorker) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = false
	w.mu.Unlock()

	w.logger.Infof("正在停止视频合成流水线...")
	w.cancel()
	w.wg.Wait()
	w.logger.Infof("视频合成流水线已停止")
}

// TryEnqueue 非阻塞入队。队列满返回 ErrQueueFull（可重试），
// 流水线已关闭返回 ErrQueueClosed（不可重试）。
func (w *SynthesisWorker) TryEnqueue(req model.SynthesisRequest) error {
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
func (w *SynthesisWorker) QueueDepth() (int, int) {
	return len(w.queue), cap(w.queue)
}

// run 消费队列，严格串行处理
func (w *SynthesisWorker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case req := <-w.queue:
			w.logger.Infof("收到视频合成请求: code=%s", req.Code)
			w.process(req)
		}
	}
}

// process 按顺序执行合成步骤，失败即短路终结
func (w *SynthesisWorker) process(req model.SynthesisRequest) {
	code := req.Code

	if err := w.runSteps(req); err != nil {
		w.logger.Errorf("视频合成失败: code=%s, err=%v", code, err)
		w.finalizer.Finalize(code, false)
		return
	}

	if err := w.store.SetVideoStatus(code, model.StatusFinish); err != nil {
		// 没有重试策略，存储写入失败同样按任务失败处理
		w.logger.Errorf("更新视频状态失败: code=%s, err=%v", code, err)
		w.finalizer.Finalize(code, false)
		return
	}

	if req.Subtitle {
		// 非交互路径：直接用自动转写的草稿烧录字幕。
		// 人工确认的字幕提交会经由合并流水线另行处理。
		err := w.engine.Execute(w.ctx, StepBurnCaptions, map[string]string{
			"video_path":    w.arena.Path(code, workdir.ResultFile),
			"subtitle_path": w.arena.Path(code, workdir.CaptionsFile),
			"output_path":   w.arena.Path(code, workdir.ResultWithCaptionsFile),
		})
		if err != nil {
			w.logger.Errorf("自动字幕烧录失败: code=%s, err=%v", code, err)
		}
		w.finalizer.Finalize(code, err == nil)
	} else {
		w.finalizer.Finalize(code, true)
	}

	w.logger.Infof("视频合成流程结束: code=%s", code)
}

// runSteps 执行字幕烧录之前的所有步骤
func (w *SynthesisWorker) runSteps(req model.SynthesisRequest) error {
	code := req.Code

	if req.RemoveBackground {
		err := w.engine.Execute(w.ctx, StepRemoveBackground, map[string]string{
			"video_path":  w.arena.Path(code, workdir.VideoFile),
			"output_path": w.arena.Path(code, workdir.VideoFile),
		})
		if err != nil {
			return err
		}
	}

	if err := w.engine.Execute(w.ctx, StepExtractAudio, map[string]string{
		"mp4_path": w.arena.Path(code, workdir.VideoFile),
		"wav_path": w.arena.Path(code, workdir.AudioFile),
	}); err != nil {
		return err
	}

	if req.Subtitle {
		// 自动转写字幕草稿供人工校对，此处不更新 subs_status
		if err := w.engine.Execute(w.ctx, StepTranscribeAudio, map[string]string{
			"file_path": w.arena.Path(code, workdir.AudioFile),
			"save_path": w.arena.Path(code, workdir.CaptionsFile),
		}); err != nil {
			return err
		}
	}

	genDir, err := w.arena.EnsureGen(code)
	if err != nil {
		return err
	}

	if err := w.engine.Execute(w.ctx, StepSynthesizeHead, map[string]string{
		"audio_path": w.arena.Path(code, workdir.AudioFile),
		"image_path": w.arena.Path(code, workdir.AvatarFile),
		"result_dir": genDir,
	}); err != nil {
		return err
	}

	if err := w.engine.Execute(w.ctx, StepMergeChunks, map[string]string{
		"chunks_dir":  genDir,
		"output_path": w.arena.Path(code, workdir.AvatarVideoFile),
	}); err != nil {
		return err
	}

	return w.engine.Execute(w.ctx, StepCompositeAvatar, map[string]string{
		"main_video_path":   w.arena.Path(code, workdir.VideoFile),
		"avatar_video_path": w.arena.Path(code, workdir.AvatarVideoFile),
		"output_path":       w.arena.Path(code, workdir.ResultFile),
		"position":          fmt.Sprintf("(%g,%g)", req.X, req.Y),
		"avatar_shape":      req.Shape,
	})
}
