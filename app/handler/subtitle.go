package handler

import (
	"errors"
	"fmt"
	"net/http"

	"slide-talker/app/logger"
	"slide-talker/app/model"
	"slide-talker/app/service"
	"slide-talker/app/utils/workdir"

	"github.com/gin-gonic/gin"
)

// SubtitleHandler 字幕流程处理器：按需转写草稿、接收人工确认的字幕
type SubtitleHandler struct {
	logger *logger.Logger
	store  *service.TaskStore
	engine *service.Engine
	worker *service.MergeWorker
	arena  *workdir.Arena
}

// NewSubtitleHandler 创建字幕处理器
func NewSubtitleHandler(log *logger.Logger, store *service.TaskStore, engine *service.Engine, worker *service.MergeWorker, arena *workdir.Arena) *SubtitleHandler {
	return &SubtitleHandler{
		logger: log,
		store:  store,
		engine: engine,
		worker: worker,
		arena:  arena,
	}
}

// GenerateDraft 对任务音频做语音转写，生成字幕草稿供人工校对
func (h *SubtitleHandler) GenerateDraft(c *gin.Context) {
	code := c.Param("code")
	h.logger.Infof("生成字幕草稿: code=%s", code)

	if !h.arena.Exists(code, workdir.AudioFile) {
		fail(c, http.StatusNotFound, 404, "任务音频不存在")
		return
	}

	err := h.engine.Execute(c.Request.Context(), service.StepTranscribeAudio, map[string]string{
		"file_path": h.arena.Path(code, workdir.AudioFile),
		"save_path": h.arena.Path(code, workdir.CaptionsFile),
	})
	if err != nil {
		h.logger.Errorf("语音转写失败: code=%s, err=%v", code, err)
		fail(c, http.StatusInternalServerError, 500, "字幕生成失败")
		return
	}

	success(c, nil, "字幕草稿已生成")
}

// SubtitleRequest 字幕提交请求
type SubtitleRequest struct {
	Subtitles []model.Subtitle `json:"subtitles" form:"subtitles" binding:"required"`
}

// Submit 接收人工确认的字幕：保存字幕、标记字幕流程完成、发送合并请求。
// 调用方约定先写入字幕与状态再入队，合并流水线据此检查前置条件。
func (h *SubtitleHandler) Submit(c *gin.Context) {
	code := c.Param("code")
	h.logger.Infof("提交字幕: code=%s", code)

	var req SubtitleRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, 400, "请求参数错误: "+err.Error())
		return
	}

	cues := make(model.SubtitleList, 0, len(req.Subtitles))
	for i := range req.Subtitles {
		cue := req.Subtitles[i]
		cue.ApplyDefaults()
		if err := cue.Validate(); err != nil {
			fail(c, http.StatusUnprocessableEntity, 422, fmt.Sprintf("第 %d 条字幕无效: %v", i+1, err))
			return
		}
		cues = append(cues, cue)
	}

	if err := h.store.SetSubtitles(code, cues); err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			fail(c, http.StatusNotFound, 404, "任务不存在")
			return
		}
		h.logger.Errorf("保存字幕失败: code=%s, err=%v", code, err)
		fail(c, http.StatusInternalServerError, 500, "内部错误")
		return
	}

	if err := h.store.SetSubsStatus(code, model.StatusFinish); err != nil {
		h.logger.Errorf("更新字幕状态失败: code=%s, err=%v", code, err)
		fail(c, http.StatusInternalServerError, 500, "内部错误")
		return
	}

	if err := h.worker.TryEnqueue(model.MergeRequest{Code: code}); err != nil {
		if errors.Is(err, service.ErrQueueFull) {
			h.logger.Warnf("合并队列已满: code=%s", code)
			fail(c, http.StatusServiceUnavailable, 503, "服务繁忙，请稍后重试")
			return
		}
		h.logger.Errorf("合并队列已关闭: code=%s", code)
		fail(c, http.StatusInternalServerError, 500, "内部错误")
		return
	}

	h.logger.Infof("字幕合并请求已入队: code=%s", code)
	success(c, nil, "字幕已提交")
}
