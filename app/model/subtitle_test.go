package model

import (
	"testing"
)

func TestValidateCueTime(t *testing.T) {
	cases := []struct {
		value string
		ok    bool
	}{
		{"00:00:10,500", true},
		{"00:00:10", true},
		{"23:59:59,999", true},
		{"", false},
		{"00-00-10-500", false},
		{"25:00:00,000", false},
		{"abc", false},
	}

	for _, tc := range cases {
		err := ValidateCueTime(tc.value)
		if tc.ok && err != nil {
			t.Errorf("时间 %q 应校验通过: %v", tc.value, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("时间 %q 应校验失败", tc.value)
		}
	}
}

func TestSubtitleValidate(t *testing.T) {
	cue := Subtitle{Text: "你好", StartTime: "00:00:00,000", EndTime: "00:00:01,000"}
	if err := cue.Validate(); err != nil {
		t.Errorf("合法字幕校验失败: %v", err)
	}

	empty := Subtitle{StartTime: "00:00:00,000", EndTime: "00:00:01,000"}
	if err := empty.Validate(); err == nil {
		t.Error("空字幕内容应校验失败")
	}

	badTime := Subtitle{Text: "你好", StartTime: "bad", EndTime: "00:00:01,000"}
	if err := badTime.Validate(); err == nil {
		t.Error("非法时间应校验失败")
	}
}

func TestSubtitleApplyDefaults(t *testing.T) {
	cue := Subtitle{Text: "你好"}
	cue.ApplyDefaults()

	if cue.FontSize != DefaultFontSize || cue.Color != DefaultColor || cue.Font != DefaultFont {
		t.Errorf("默认样式填充错误: %+v", cue)
	}

	styled := Subtitle{Text: "你好", FontSize: 48, Color: "yellow", Font: "/fonts/custom.ttf"}
	styled.ApplyDefaults()
	if styled.FontSize != 48 || styled.Color != "yellow" || styled.Font != "/fonts/custom.ttf" {
		t.Errorf("已指定的样式不应被覆盖: %+v", styled)
	}
}

func TestSubtitleListValueScan(t *testing.T) {
	list := SubtitleList{
		{Text: "你好", FontSize: 32, Color: "white", Font: DefaultFont, StartTime: "00:00:00,000", EndTime: "00:00:01,000"},
	}

	value, err := list.Value()
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}

	var got SubtitleList
	if err := got.Scan(value); err != nil {
		t.Fatalf("反序列化失败: %v", err)
	}
	if len(got) != 1 || got[0].Text != "你好" || got[0].EndTime != "00:00:01,000" {
		t.Errorf("字幕序列读写不一致: %+v", got)
	}
}

func TestSubtitleListEmptyValue(t *testing.T) {
	var list SubtitleList
	value, err := list.Value()
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}
	// 空序列存 NULL
	if value != nil {
		t.Errorf("空序列应序列化为 nil: %v", value)
	}

	var got SubtitleList
	if err := got.Scan(nil); err != nil {
		t.Fatalf("扫描 NULL 失败: %v", err)
	}
	if got != nil {
		t.Errorf("NULL 应扫描为 nil: %+v", got)
	}
}

func TestStatus(t *testing.T) {
	if StatusProcessing.Terminal() {
		t.Error("Processing 不是终态")
	}
	if !StatusFinish.Terminal() || !StatusFail.Terminal() {
		t.Error("Finish/Fail 应是终态")
	}

	if StatusProcessing.ClientText() != "processing" ||
		StatusFinish.ClientText() != "finished" ||
		StatusFail.ClientText() != "failed" {
		t.Error("状态文本转换错误")
	}
}

func TestMergeReady(t *testing.T) {
	task := Task{VideoStatus: StatusFinish, SubsStatus: StatusProcessing}
	if task.MergeReady() {
		t.Error("字幕流程未完成时不应满足合并条件")
	}
	task.SubsStatus = StatusFinish
	if !task.MergeReady() {
		t.Error("两个子流程都完成后应满足合并条件")
	}
	task.VideoStatus = StatusFail
	if task.MergeReady() {
		t.Error("视频合成失败时不应满足合并条件")
	}
}
