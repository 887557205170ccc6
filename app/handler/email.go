package handler

import (
	"errors"
	"net/http"
	"net/mail"

	"slide-talker/app/logger"
	"slide-talker/app/service"

	"github.com/gin-gonic/gin"
)

// EmailHandler 通知邮箱设置处理器
type EmailHandler struct {
	logger *logger.Logger
	store  *service.TaskStore
}

// NewEmailHandler 创建通知邮箱处理器
func NewEmailHandler(log *logger.Logger, store *service.TaskStore) *EmailHandler {
	return &EmailHandler{
		logger: log,
		store:  store,
	}
}

// EmailRequest 设置邮箱请求
type EmailRequest struct {
	Email string `json:"email" form:"email" binding:"required"`
}

// Set 为任务设置完成通知邮箱，任务终结前都可以设置
func (h *EmailHandler) Set(c *gin.Context) {
	code := c.Param("code")
	h.logger.Infof("设置通知邮箱: code=%s", code)

	var req EmailRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, 400, "请求参数错误: "+err.Error())
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		h.logger.Warnf("邮箱格式错误: %s", req.Email)
		fail(c, http.StatusUnprocessableEntity, 422, "邮箱格式错误")
		return
	}

	if err := h.store.SetEmail(code, req.Email); err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			fail(c, http.StatusNotFound, 404, "任务不存在或已终结")
			return
		}
		h.logger.Errorf("更新邮箱失败: code=%s, err=%v", code, err)
		fail(c, http.StatusInternalServerError, 500, "内部错误")
		return
	}

	success(c, nil, "邮箱已设置")
}
