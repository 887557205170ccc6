package model

// 头像合成形状
const (
	ShapeRect   = "rect"
	ShapeCircle = "circle"
)

// SynthesisRequest 视频合成队列消息，由接入层在任务入库后发送
type SynthesisRequest struct {
	Code             string  // 任务码
	X                float64 // 头像位置，0~1
	Y                float64 // 头像位置，0~1
	Shape            string  // rect 或 circle
	RemoveBackground bool    // 是否先对头像视频做背景移除
	Subtitle         bool    // 是否需要字幕流程
}

// MergeRequest 字幕合并队列消息，由人工确认字幕后发送
type MergeRequest struct {
	Code string
}
