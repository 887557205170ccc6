package handler

import (
	"net/http"
	"time"

	"slide-talker/app/auth"
	"slide-talker/app/config"
	"slide-talker/app/database"
	"slide-talker/app/logger"
	"slide-talker/app/model"
	"slide-talker/app/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler 管理后台认证处理器
type AuthHandler struct {
	config     *config.Config
	logger     *logger.Logger
	jwtService *auth.JWTService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		config:     cfg,
		logger:     log,
		jwtService: auth.NewJWTService(cfg),
	}
}

// LoginRequest 登录请求结构
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应结构
type LoginResponse struct {
	Token    string `json:"token"`
	ExpireAt int64  `json:"expire_at"`
}

// Login 管理员登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 400, "请求参数错误: "+err.Error())
		return
	}

	// 查找用户
	var user model.User
	db := database.GetDB()
	if err := db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		fail(c, http.StatusUnauthorized, 401, "用户名或密码错误")
		return
	}

	if !user.IsActive {
		fail(c, http.StatusUnauthorized, 401, "账户已被禁用")
		return
	}

	if !utils.VerifyPassword(req.Password, user.Password) {
		fail(c, http.StatusUnauthorized, 401, "用户名或密码错误")
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Username)
	if err != nil {
		h.logger.Errorf("生成令牌失败: %v", err)
		fail(c, http.StatusInternalServerError, 500, "生成令牌失败")
		return
	}

	// 更新最后登录时间
	now := time.Now()
	user.LastLogin = &now
	db.Save(&user)

	expireAt := now.Add(time.Duration(h.config.JWT.ExpireTime) * time.Hour).Unix()
	success(c, LoginResponse{Token: token, ExpireAt: expireAt}, "登录成功")
}
