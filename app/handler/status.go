package handler

import (
	"errors"
	"net/http"
	"time"

	"slide-talker/app/logger"
	"slide-talker/app/service"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// StatusHandler 任务状态查询处理器。
// 前端会轮询状态，终态不可变，因此 Finish/Fail 进缓存长期有效，Processing 不缓存。
type StatusHandler struct {
	logger  *logger.Logger
	store   *service.TaskStore
	goCache *cache.Cache
}

// NewStatusHandler 创建状态查询处理器
func NewStatusHandler(log *logger.Logger, store *service.TaskStore) *StatusHandler {
	return &StatusHandler{
		logger:  log,
		store:   store,
		goCache: cache.New(cache.NoExpiration, 10*time.Minute),
	}
}

// Get 查询任务状态，返回 processing / finished / failed
func (h *StatusHandler) Get(c *gin.Context) {
	code := c.Param("code")
	h.logger.Debugf("查询任务状态: code=%s", code)

	if cached, ok := h.goCache.Get(code); ok {
		success(c, gin.H{"status": cached}, "")
		return
	}

	status, err := h.store.GetStatus(code)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			fail(c, http.StatusNotFound, 404, "任务不存在")
			return
		}
		h.logger.Errorf("查询任务状态失败: code=%s, err=%v", code, err)
		fail(c, http.StatusInternalServerError, 500, "内部错误")
		return
	}

	text := status.ClientText()
	if status.Terminal() {
		h.goCache.Set(code, text, cache.NoExpiration)
	}
	success(c, gin.H{"status": text}, "")
}
