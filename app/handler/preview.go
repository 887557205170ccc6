package handler

import (
	"bytes"
	"image/png"
	"net/http"

	"slide-talker/app/logger"
	"slide-talker/app/model"
	"slide-talker/app/utils/imagehelper"

	"github.com/gin-gonic/gin"
)

// 预览图尺寸，模拟 16:9 视频画面的字幕区域
const (
	previewWidth  = 640
	previewHeight = 120
)

// PreviewHandler 字幕样式预览处理器，供人工校对界面展示渲染效果
type PreviewHandler struct {
	logger *logger.Logger
}

// NewPreviewHandler 创建预览处理器
func NewPreviewHandler(log *logger.Logger) *PreviewHandler {
	return &PreviewHandler{logger: log}
}

// Render 按提交的字幕样式渲染预览图
func (h *PreviewHandler) Render(c *gin.Context) {
	var cue model.Subtitle
	if err := c.ShouldBind(&cue); err != nil {
		fail(c, http.StatusBadRequest, 400, "请求参数错误: "+err.Error())
		return
	}

	cue.ApplyDefaults()
	if cue.Text == "" {
		fail(c, http.StatusUnprocessableEntity, 422, "字幕内容不能为空")
		return
	}

	img, err := imagehelper.RenderCaption(cue.Text, cue.Font, cue.FontSize, cue.Color, previewWidth, previewHeight)
	if err != nil {
		h.logger.Errorf("渲染字幕预览失败: %v", err)
		fail(c, http.StatusInternalServerError, 500, "预览渲染失败")
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		h.logger.Errorf("编码预览图失败: %v", err)
		fail(c, http.StatusInternalServerError, 500, "预览渲染失败")
		return
	}

	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
