package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"slide-talker/app/logger"
	"slide-talker/app/model"
	"slide-talker/app/service"
	"slide-talker/app/utils/imagehelper"
	"slide-talker/app/utils/workdir"

	"github.com/gin-gonic/gin"
)

// 允许上传的文件类型
var (
	videoContentTypes  = map[string]bool{"video/mp4": true, "video/quicktime": true}
	avatarContentTypes = map[string]bool{"image/png": true, "image/jpeg": true}
)

// GenerateHandler 任务接入处理器
type GenerateHandler struct {
	logger *logger.Logger
	store  *service.TaskStore
	worker *service.SynthesisWorker
	arena  *workdir.Arena
}

// NewGenerateHandler 创建任务接入处理器
func NewGenerateHandler(log *logger.Logger, store *service.TaskStore, worker *service.SynthesisWorker, arena *workdir.Arena) *GenerateHandler {
	return &GenerateHandler{
		logger: log,
		store:  store,
		worker: worker,
		arena:  arena,
	}
}

// Generate 接收视频与头像，分配任务码并送入合成队列。
// 上传落盘、任务入库都在请求协程内完成，只有入队受队列容量限制。
func (h *GenerateHandler) Generate(c *gin.Context) {
	h.logger.Infof("收到视频生成请求")

	video, err := c.FormFile("video")
	if err != nil {
		fail(c, http.StatusBadRequest, 400, "缺少视频文件")
		return
	}
	if !videoContentTypes[video.Header.Get("Content-Type")] {
		fail(c, http.StatusUnprocessableEntity, 422, "视频格式必须为 MP4 或 MOV")
		return
	}

	avatar, err := c.FormFile("avatar")
	if err != nil {
		fail(c, http.StatusBadRequest, 400, "缺少头像文件")
		return
	}
	if !avatarContentTypes[avatar.Header.Get("Content-Type")] {
		fail(c, http.StatusUnprocessableEntity, 422, "头像格式必须为 PNG 或 JPEG")
		return
	}

	x, errX := parseUnitRange(c.PostForm("x"))
	y, errY := parseUnitRange(c.PostForm("y"))
	if errX != nil || errY != nil {
		fail(c, http.StatusUnprocessableEntity, 422, "位置参数必须在 0 到 1 之间")
		return
	}

	shape := c.DefaultPostForm("shape", model.ShapeRect)
	if shape != model.ShapeRect && shape != model.ShapeCircle {
		fail(c, http.StatusUnprocessableEntity, 422, "形状参数必须为 rect 或 circle")
		return
	}

	removeBg := c.DefaultPostForm("remove_bg", "true") == "true"
	subtitle := c.DefaultPostForm("subtitle", "false") == "true"

	// 分配唯一任务码
	code, err := service.GenerateCode(h.store)
	if err != nil {
		h.logger.Errorf("分配任务码失败: %v", err)
		fail(c, http.StatusInternalServerError, 500, "内部错误")
		return
	}
	h.logger.Debugf("分配任务码: %s", code)

	if err := h.arena.CreateDir(code); err != nil {
		h.logger.Errorf("创建任务目录失败: code=%s, err=%v", code, err)
		fail(c, http.StatusInternalServerError, 500, "内部错误")
		return
	}

	if err := c.SaveUploadedFile(video, h.arena.Path(code, workdir.VideoFile)); err != nil {
		h.logger.Errorf("保存视频失败: code=%s, err=%v", code, err)
		fail(c, http.StatusInternalServerError, 500, "内部错误")
		return
	}

	if err := h.saveAvatar(avatar, code); err != nil {
		h.logger.Errorf("保存头像失败: code=%s, err=%v", code, err)
		fail(c, http.StatusInternalServerError, 500, "内部错误")
		return
	}

	// 新增任务至数据库
	if err := h.store.Insert(code, subtitle); err != nil {
		h.logger.Errorf("创建任务记录失败: code=%s, err=%v", code, err)
		fail(c, http.StatusInternalServerError, 500, "内部错误")
		return
	}

	req := model.SynthesisRequest{
		Code:             code,
		X:                x,
		Y:                y,
		Shape:            shape,
		RemoveBackground: removeBg,
		Subtitle:         subtitle,
	}
	if err := h.worker.TryEnqueue(req); err != nil {
		if errors.Is(err, service.ErrQueueFull) {
			h.logger.Warnf("合成队列已满: code=%s", code)
			fail(c, http.StatusServiceUnavailable, 503, "服务繁忙，请稍后重试")
			return
		}
		h.logger.Errorf("合成队列已关闭: code=%s", code)
		fail(c, http.StatusInternalServerError, 500, "内部错误")
		return
	}

	h.logger.Infof("视频生成请求已入队: code=%s", code)
	success(c, gin.H{"code": code}, "任务已创建")
}

// saveAvatar 规范化头像后保存为 avatar.jpg
func (h *GenerateHandler) saveAvatar(file *multipart.FileHeader, code string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	return imagehelper.NormalizeAvatar(src, h.arena.Path(code, workdir.AvatarFile))
}

// parseUnitRange 解析 0~1 范围内的浮点参数
func parseUnitRange(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f > 1 {
		return 0, errors.New("超出范围")
	}
	return f, nil
}
