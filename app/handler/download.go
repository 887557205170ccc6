package handler

import (
	"net/http"

	"slide-talker/app/logger"
	"slide-talker/app/utils/workdir"

	"github.com/gin-gonic/gin"
)

// DownloadHandler 成品下载处理器
type DownloadHandler struct {
	logger *logger.Logger
	arena  *workdir.Arena
}

// NewDownloadHandler 创建下载处理器
func NewDownloadHandler(log *logger.Logger, arena *workdir.Arena) *DownloadHandler {
	return &DownloadHandler{
		logger: log,
		arena:  arena,
	}
}

// Get 下载成品，优先返回带字幕版本
func (h *DownloadHandler) Get(c *gin.Context) {
	code := c.Param("code")
	h.logger.Infof("下载成品: code=%s", code)

	for _, name := range []string{workdir.ResultWithCaptionsFile, workdir.ResultFile} {
		if h.arena.Exists(code, name) {
			c.FileAttachment(h.arena.Path(code, name), name)
			return
		}
	}

	h.logger.Warnf("成品不存在: code=%s", code)
	fail(c, http.StatusNotFound, 404, "成品不存在")
}
