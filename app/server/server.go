package server

import (
	"context"
	"net/http"
	"time"

	"slide-talker/app/config"
	"slide-talker/app/database"
	"slide-talker/app/handler"
	"slide-talker/app/logger"
	"slide-talker/app/middleware"
	"slide-talker/app/service"
	"slide-talker/app/utils/workdir"

	"github.com/gin-gonic/gin"
)

// Server 表示 HTTP 服务器与后台流水线的组合
type Server struct {
	Config          *config.Config
	Logger          *logger.Logger
	gin             *gin.Engine
	http            *http.Server
	synthesisWorker *service.SynthesisWorker
	mergeWorker     *service.MergeWorker
	sweeper         *service.RetentionSweeper
}

// New 创建一个新的 Server 实例
func New(cfg *config.Config, log *logger.Logger) *Server {
	router := gin.Default()

	// 组装核心服务
	arena := workdir.New(cfg.Storage.WorkDir)
	store := service.NewTaskStore(database.GetDB())
	engine := service.NewEngine(&cfg.Engine, log)
	notifier := service.NewNotifier(&cfg.SMTP, log)
	finalizer := service.NewFinalizer(log, store, arena, notifier)

	synthesisWorker := service.NewSynthesisWorker(log, store, engine, arena, finalizer, cfg.Queue.SynthesisCapacity)
	mergeWorker := service.NewMergeWorker(log, store, engine, arena, finalizer,
		cfg.Queue.MergeCapacity, cfg.Queue.RequeueOnPending, time.Duration(cfg.Queue.RequeueDelay)*time.Second)
	sweeper := service.NewRetentionSweeper(log, store, arena, cfg.Log.Dir, cfg.Storage.RetentionDays)

	s := &Server{
		gin: router,
		http: &http.Server{
			Addr:    ":" + cfg.Server.Port,
			Handler: router,
		},
		Config:          cfg,
		Logger:          log,
		synthesisWorker: synthesisWorker,
		mergeWorker:     mergeWorker,
		sweeper:         sweeper,
	}

	// 设置路由
	s.setupRoutes(store, engine, arena)

	return s
}

// Start 启动流水线、保留清理与 HTTP 服务
func (s *Server) Start() error {
	s.synthesisWorker.Start()
	s.mergeWorker.Start()
	s.sweeper.Start()

	s.Logger.Infof("在端口 %s 启动服务器", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown 优雅关闭：先停收新请求，再停流水线，最后关数据库
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)

	s.synthesisWorker.Stop()
	s.mergeWorker.Stop()
	s.sweeper.Stop()

	if dbErr := database.Close(); dbErr != nil {
		s.Logger.Errorf("关闭数据库连接失败: %v", dbErr)
	}
	return err
}

// setupRoutes 设置API路由
func (s *Server) setupRoutes(store *service.TaskStore, engine *service.Engine, arena *workdir.Arena) {
	s.gin.Use(middleware.CORS())

	// 创建处理器实例
	generateHandler := handler.NewGenerateHandler(s.Logger, store, s.synthesisWorker, arena)
	emailHandler := handler.NewEmailHandler(s.Logger, store)
	statusHandler := handler.NewStatusHandler(s.Logger, store)
	subtitleHandler := handler.NewSubtitleHandler(s.Logger, store, engine, s.mergeWorker, arena)
	downloadHandler := handler.NewDownloadHandler(s.Logger, arena)
	previewHandler := handler.NewPreviewHandler(s.Logger)
	authHandler := handler.NewAuthHandler(s.Config, s.Logger)
	adminHandler := handler.NewAdminHandler(s.Logger, s.synthesisWorker, s.mergeWorker, s.sweeper)

	// API路由组
	api := s.gin.Group("/api")
	{
		// 任务接入与查询
		api.POST("/gen", generateHandler.Generate)
		api.GET("/gen/:code", statusHandler.Get)
		api.POST("/gen/:code/email", emailHandler.Set)

		// 字幕流程
		api.GET("/gen/subtitle/:code", subtitleHandler.GenerateDraft)
		api.POST("/set/subtitle/:code", subtitleHandler.Submit)
		api.POST("/subtitle/preview", previewHandler.Render)

		// 认证
		api.POST("/auth/login", authHandler.Login)

		// 管理后台（需要JWT验证）
		admin := api.Group("/admin")
		admin.Use(middleware.JWTAuth(s.Config))
		{
			admin.GET("/queue", adminHandler.QueueStats)
			admin.POST("/sweep", adminHandler.Sweep)
		}
	}

	// 成品下载
	s.gin.GET("/download/:code", downloadHandler.Get)
}
