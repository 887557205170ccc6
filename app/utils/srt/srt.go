// Package srt 将字幕序列渲染为 SubRip 文本，供字幕烧录步骤使用。
package srt

import (
	"fmt"
	"os"
	"strings"

	"slide-talker/app/model"
)

// Render 渲染 SubRip 文本，顺序与传入序列一致
func Render(cues model.SubtitleList) string {
	var b strings.Builder
	for i, cue := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, cue.StartTime, cue.EndTime, cue.Text)
	}
	return b.String()
}

// Write 渲染并写入文件
func Write(path string, cues model.SubtitleList) error {
	if err := os.WriteFile(path, []byte(Render(cues)), 0644); err != nil {
		return fmt.Errorf("写入字幕文件失败: %w", err)
	}
	return nil
}
