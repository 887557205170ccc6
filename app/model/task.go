package model

import (
	"time"
)

// Status 任务状态，Processing 为初始态，Finish/Fail 为终态
type Status string

const (
	StatusProcessing Status = "Processing"
	StatusFinish     Status = "Finish"
	StatusFail       Status = "Fail"
)

// Terminal 判断状态是否为终态
func (s Status) Terminal() bool {
	return s == StatusFinish || s == StatusFail
}

// ClientText 转换为对外接口使用的状态文本
func (s Status) ClientText() string {
	switch s {
	case StatusFinish:
		return "finished"
	case StatusFail:
		return "failed"
	default:
		return "processing"
	}
}

// Task 任务模型，每个生成任务一行，code 为主键。
// Status 是对外权威状态；VideoStatus / SubsStatus 分别跟踪视频合成与字幕子流程，
// 由不同协程独立更新，因此存储层必须按字段更新而非整行覆盖。
type Task struct {
	Code        string       `json:"code" gorm:"primaryKey;size:8"`
	Email       *string      `json:"email" gorm:"size:64"`
	Status      Status       `json:"status" gorm:"size:16;not null;index"`
	VideoStatus Status       `json:"video_status" gorm:"size:16;not null"`
	SubsStatus  Status       `json:"subs_status" gorm:"size:16;not null"`
	Subtitles   SubtitleList `json:"subtitles" gorm:"type:text"`
	Date        time.Time    `json:"date" gorm:"index"` // 创建日期，仅供保留清理使用
}

// TableName 指定表名
func (Task) TableName() string {
	return "task"
}

// MergeReady 判断字幕合并的前置条件：视频合成与字幕流程都已完成
func (t *Task) MergeReady() bool {
	return t.VideoStatus == StatusFinish && t.SubsStatus == StatusFinish
}
