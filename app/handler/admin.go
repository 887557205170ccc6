package handler

import (
	"slide-talker/app/logger"
	"slide-talker/app/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler 管理后台处理器：队列状态查询与手动清理
type AdminHandler struct {
	logger          *logger.Logger
	synthesisWorker *service.SynthesisWorker
	mergeWorker     *service.MergeWorker
	sweeper         *service.RetentionSweeper
}

// NewAdminHandler 创建管理后台处理器
func NewAdminHandler(log *logger.Logger, synthesis *service.SynthesisWorker, merge *service.MergeWorker, sweeper *service.RetentionSweeper) *AdminHandler {
	return &AdminHandler{
		logger:          log,
		synthesisWorker: synthesis,
		mergeWorker:     merge,
		sweeper:         sweeper,
	}
}

// QueueStats 查询两条流水线的队列深度
func (h *AdminHandler) QueueStats(c *gin.Context) {
	synthesisLen, synthesisCap := h.synthesisWorker.QueueDepth()
	mergeLen, mergeCap := h.mergeWorker.QueueDepth()

	success(c, gin.H{
		"synthesis": gin.H{"length": synthesisLen, "capacity": synthesisCap},
		"merge":     gin.H{"length": mergeLen, "capacity": mergeCap},
	}, "")
}

// Sweep 手动触发一轮保留清理
func (h *AdminHandler) Sweep(c *gin.Context) {
	username := c.GetString("username")
	h.logger.Infof("管理员 %s 手动触发保留清理", username)

	h.sweeper.SweepOnce()
	success(c, nil, "清理已执行")
}
