package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultFontSize = 32
	DefaultColor    = "white"
	DefaultFont     = "./NotoSansCJK-Regular.ttc"
)

// Subtitle 单条字幕，时间格式为 HH:MM:SS,mmm
type Subtitle struct {
	Text      string `json:"text" form:"text"`
	FontSize  int    `json:"fontsize" form:"fontsize"`
	Color     string `json:"color" form:"color"`
	Font      string `json:"font" form:"font"`
	StartTime string `json:"start_time" form:"start_time"`
	EndTime   string `json:"end_time" form:"end_time"`
}

// ApplyDefaults 填充未指定的样式字段
func (s *Subtitle) ApplyDefaults() {
	if s.FontSize <= 0 {
		s.FontSize = DefaultFontSize
	}
	if s.Color == "" {
		s.Color = DefaultColor
	}
	if s.Font == "" {
		s.Font = DefaultFont
	}
}

// Validate 校验字幕内容与起止时间。
// 只要求起止时间各自是合法的时刻，不强制 end > start，也不检查相邻字幕重叠。
func (s *Subtitle) Validate() error {
	if s.Text == "" {
		return fmt.Errorf("字幕内容不能为空")
	}
	if err := ValidateCueTime(s.StartTime); err != nil {
		return fmt.Errorf("起始时间无效: %w", err)
	}
	if err := ValidateCueTime(s.EndTime); err != nil {
		return fmt.Errorf("结束时间无效: %w", err)
	}
	return nil
}

// ValidateCueTime 校验 HH:MM:SS,mmm 形式的时间字符串，毫秒部分可省略
func ValidateCueTime(v string) error {
	if _, err := time.Parse("15:04:05.999", strings.ReplaceAll(v, ",", ".")); err != nil {
		return fmt.Errorf("时间格式错误: %q", v)
	}
	return nil
}

// SubtitleList 字幕序列，在数据库中以 JSON 文本存储
type SubtitleList []Subtitle

// Value 实现 driver.Valuer
func (l SubtitleList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner
func (l *SubtitleList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("无法将 %T 扫描为 SubtitleList", value)
	}
}
