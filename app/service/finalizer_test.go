package service

import (
	"os"
	"path/filepath"
	"testing"

	"slide-talker/app/model"
	"slide-talker/app/utils/workdir"
)

func TestFinalizeSuccess(t *testing.T) {
	f := newPipelineFixture(t)
	f.prepareTask(t, "fin00001", false)
	writeFile(t, f.arena.Path("fin00001", workdir.AudioFile))
	writeFile(t, filepath.Join(f.arena.Path("fin00001", workdir.GenDir), "chunk_0.mp4"))
	writeFile(t, f.arena.Path("fin00001", workdir.ResultFile))
	writeFile(t, f.arena.Path("fin00001", workdir.ResultWithCaptionsFile))

	f.fin.Finalize("fin00001", true)

	status, err := f.store.GetStatus("fin00001")
	if err != nil {
		t.Fatalf("查询状态失败: %v", err)
	}
	if status != model.StatusFinish {
		t.Errorf("终态错误: got=%s", status)
	}

	entries, err := os.ReadDir(f.arena.Dir("fin00001"))
	if err != nil {
		t.Fatalf("读取任务目录失败: %v", err)
	}
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	if len(names) != 2 || !names[workdir.ResultFile] || !names[workdir.ResultWithCaptionsFile] {
		t.Errorf("清理后只应保留成品文件: %v", names)
	}
}

func TestFinalizeFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.prepareTask(t, "fin00002", false)

	f.fin.Finalize("fin00002", false)

	status, err := f.store.GetStatus("fin00002")
	if err != nil {
		t.Fatalf("查询状态失败: %v", err)
	}
	if status != model.StatusFail {
		t.Errorf("终态错误: got=%s", status)
	}
}

func TestFinalizeTerminalStateSticks(t *testing.T) {
	f := newPipelineFixture(t)
	f.prepareTask(t, "fin00003", false)

	f.fin.Finalize("fin00003", true)
	// 迟到的合并结果不能改写已终结的任务
	f.fin.Finalize("fin00003", false)

	status, err := f.store.GetStatus("fin00003")
	if err != nil {
		t.Fatalf("查询状态失败: %v", err)
	}
	if status != model.StatusFinish {
		t.Errorf("终态被迟到的终结改写: got=%s", status)
	}
}

func TestFinalizeWithoutEmail(t *testing.T) {
	f := newPipelineFixture(t)
	f.prepareTask(t, "fin00004", false)

	// 未设置邮箱时终结流程照常完成，不报错不发信
	f.fin.Finalize("fin00004", true)

	status, err := f.store.GetStatus("fin00004")
	if err != nil {
		t.Fatalf("查询状态失败: %v", err)
	}
	if status != model.StatusFinish {
		t.Errorf("终态错误: got=%s", status)
	}
}
