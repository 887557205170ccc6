package service

import (
	"context"
	"fmt"
	"time"

	"slide-talker/app/config"
	"slide-talker/app/logger"

	"resty.dev/v3"
)

// Step 推理引擎支持的操作，入参统一为命名文件路径
type Step string

const (
	StepRemoveBackground Step = "remove_background"
	StepExtractAudio     Step = "extract_audio"
	StepSynthesizeHead   Step = "synthesize_head"
	StepMergeChunks      Step = "merge_chunks"
	StepCompositeAvatar  Step = "composite_avatar"
	StepTranscribeAudio  Step = "transcribe_audio"
	StepBurnCaptions     Step = "burn_captions"
)

// 每个步骤对应的引擎端点
var stepEndpoints = map[Step]string{
	StepRemoveBackground: "/remove_background",
	StepExtractAudio:     "/convert_mp4_to_wav",
	StepSynthesizeHead:   "/gen",
	StepMergeChunks:      "/merge_avatar_video_chunks",
	StepCompositeAvatar:  "/merge_video_and_avatar_video",
	StepTranscribeAudio:  "/gen_subtitle",
	StepBurnCaptions:     "/merge_video_and_subtitle",
}

// Engine 推理引擎客户端。引擎以 HTTP 提供耗时的媒体操作，
// 每次调用都带超时，避免引擎无响应时阻塞整条流水线。
type Engine struct {
	logger *logger.Logger
	client *resty.Client
}

// NewEngine 创建推理引擎客户端
func NewEngine(cfg *config.EngineConfig, log *logger.Logger) *Engine {
	client := resty.New()
	client.SetBaseURL(cfg.URL)
	if cfg.Timeout > 0 {
		client.SetTimeout(time.Duration(cfg.Timeout) * time.Second)
	}

	return &Engine{
		logger: log,
		client: client,
	}
}

// Execute 执行单个步骤。引擎返回非 2xx 或传输失败都视为步骤失败。
func (e *Engine) Execute(ctx context.Context, step Step, params map[string]string) error {
	endpoint, ok := stepEndpoints[step]
	if !ok {
		return fmt.Errorf("未知步骤: %s", step)
	}

	e.logger.Debugf("调用引擎步骤 %s: %v", step, params)

	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(params).
		Post(endpoint)
	if err != nil {
		return fmt.Errorf("请求引擎步骤 %s 失败: %w", step, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("引擎步骤 %s 失败，状态码: %d, 响应: %s", step, resp.StatusCode(), resp.String())
	}

	e.logger.Infof("引擎步骤 %s 完成", step)
	return nil
}
