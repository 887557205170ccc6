package service

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"slide-talker/app/config"
	"slide-talker/app/model"
	"slide-talker/app/utils/workdir"
)

// pipelineFixture 流水线测试的公共组件
type pipelineFixture struct {
	store *TaskStore
	arena *workdir.Arena
	fake  *fakeEngine
	fin   *Finalizer
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	log := newTestLogger()
	store := newTestStore(t)
	arena := workdir.New(t.TempDir())
	fake := newFakeEngine(t)
	notifier := NewNotifier(&config.SMTPConfig{}, log)

	return &pipelineFixture{
		store: store,
		arena: arena,
		fake:  fake,
		fin:   NewFinalizer(log, store, arena, notifier),
	}
}

// prepareTask 建任务记录和工作目录，预置上传产生的文件
func (f *pipelineFixture) prepareTask(t *testing.T, code string, captions bool) {
	t.Helper()

	if err := f.store.Insert(code, captions); err != nil {
		t.Fatalf("创建任务失败: %v", err)
	}
	if err := f.arena.CreateDir(code); err != nil {
		t.Fatalf("创建任务目录失败: %v", err)
	}
	writeFile(t, f.arena.Path(code, workdir.VideoFile))
	writeFile(t, f.arena.Path(code, workdir.AvatarFile))
}

func (f *pipelineFixture) newWorker(t *testing.T, capacity int) *SynthesisWorker {
	t.Helper()

	w := NewSynthesisWorker(newTestLogger(), f.store, f.fake.engine(t), f.arena, f.fin, capacity)
	t.Cleanup(w.Stop)
	return w
}

func TestSynthesisStepOrder(t *testing.T) {
	f := newPipelineFixture(t)
	f.prepareTask(t, "order01", false)

	w := f.newWorker(t, 10)
	w.Start()

	err := w.TryEnqueue(model.SynthesisRequest{
		Code: "order01", X: 0.8, Y: 0.8, Shape: model.ShapeCircle, RemoveBackground: true,
	})
	if err != nil {
		t.Fatalf("入队失败: %v", err)
	}
	waitStatus(t, f.store, "order01", model.StatusFinish)

	want := []string{
		"/remove_background",
		"/convert_mp4_to_wav",
		"/gen",
		"/merge_avatar_video_chunks",
		"/merge_video_and_avatar_video",
	}
	got := f.fake.endpoints()
	if len(got) != len(want) {
		t.Fatalf("步骤数量错误: want=%v, got=%v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("步骤顺序错误: want=%v, got=%v", want, got)
		}
	}

	task, err := f.store.GetTask("order01")
	if err != nil {
		t.Fatalf("查询任务失败: %v", err)
	}
	if task.VideoStatus != model.StatusFinish {
		t.Errorf("视频状态错误: got=%s", task.VideoStatus)
	}
}

func TestSynthesisAutoCaptions(t *testing.T) {
	f := newPipelineFixture(t)
	f.prepareTask(t, "autocap1", true)

	w := f.newWorker(t, 10)
	w.Start()

	err := w.TryEnqueue(model.SynthesisRequest{
		Code: "autocap1", X: 0.5, Y: 0.5, Shape: model.ShapeRect, Subtitle: true,
	})
	if err != nil {
		t.Fatalf("入队失败: %v", err)
	}
	waitStatus(t, f.store, "autocap1", model.StatusFinish)

	want := []string{
		"/convert_mp4_to_wav",
		"/gen_subtitle",
		"/gen",
		"/merge_avatar_video_chunks",
		"/merge_video_and_avatar_video",
		"/merge_video_and_subtitle",
	}
	got := f.fake.endpoints()
	if len(got) != len(want) {
		t.Fatalf("步骤数量错误: want=%v, got=%v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("步骤顺序错误: want=%v, got=%v", want, got)
		}
	}

	// 自动烧录不代表人工字幕流程完成
	task, err := f.store.GetTask("autocap1")
	if err != nil {
		t.Fatalf("查询任务失败: %v", err)
	}
	if task.SubsStatus != model.StatusProcessing {
		t.Errorf("合成流水线不应改写字幕流程状态: got=%s", task.SubsStatus)
	}
}

func TestSynthesisAutoBurnFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.fake.failOn = "/merge_video_and_subtitle"
	f.prepareTask(t, "burnfail", true)

	w := f.newWorker(t, 10)
	w.Start()

	err := w.TryEnqueue(model.SynthesisRequest{
		Code: "burnfail", X: 0.5, Y: 0.5, Shape: model.ShapeRect, Subtitle: true,
	})
	if err != nil {
		t.Fatalf("入队失败: %v", err)
	}
	waitStatus(t, f.store, "burnfail", model.StatusFail)

	// 合成本身已成功，失败发生在字幕烧录：视频子状态保持 Finish，总状态为 Fail
	task, err := f.store.GetTask("burnfail")
	if err != nil {
		t.Fatalf("查询任务失败: %v", err)
	}
	if task.VideoStatus != model.StatusFinish {
		t.Errorf("烧录失败不应影响已完成的视频子状态: got=%s", task.VideoStatus)
	}
}

func TestSynthesisShortCircuitOnFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.fake.failOn = "/gen"
	f.prepareTask(t, "fail0001", false)

	w := f.newWorker(t, 10)
	w.Start()

	if err := w.TryEnqueue(model.SynthesisRequest{Code: "fail0001", Shape: model.ShapeRect}); err != nil {
		t.Fatalf("入队失败: %v", err)
	}
	waitStatus(t, f.store, "fail0001", model.StatusFail)

	got := f.fake.endpoints()
	if got[len(got)-1] != "/gen" {
		t.Errorf("失败后不应继续执行后续步骤: %v", got)
	}

	task, err := f.store.GetTask("fail0001")
	if err != nil {
		t.Fatalf("查询任务失败: %v", err)
	}
	if task.VideoStatus != model.StatusProcessing {
		t.Errorf("失败任务的视频状态不应标记完成: got=%s", task.VideoStatus)
	}
}

func TestSynthesisCleanupKeepsDeliverables(t *testing.T) {
	f := newPipelineFixture(t)
	f.prepareTask(t, "clean001", false)
	writeFile(t, f.arena.Path("clean001", workdir.ResultFile))

	w := f.newWorker(t, 10)
	w.Start()

	if err := w.TryEnqueue(model.SynthesisRequest{Code: "clean001", Shape: model.ShapeRect}); err != nil {
		t.Fatalf("入队失败: %v", err)
	}
	waitStatus(t, f.store, "clean001", model.StatusFinish)

	entries, err := os.ReadDir(f.arena.Dir("clean001"))
	if err != nil {
		t.Fatalf("读取任务目录失败: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != workdir.ResultFile {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("清理后只应保留成品文件: %v", names)
	}
}

func TestSynthesisQueueBackpressure(t *testing.T) {
	f := newPipelineFixture(t)

	started := make(chan struct{}, 16)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		started <- struct{}{}
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	engine := NewEngine(&config.EngineConfig{URL: srv.URL, Timeout: 30}, newTestLogger())
	w := NewSynthesisWorker(newTestLogger(), f.store, engine, f.arena, f.fin, 1)
	w.Start()

	// 第一个请求被消费后阻塞在引擎调用里，第二个占满队列
	if err := w.TryEnqueue(model.SynthesisRequest{Code: "busy0001", Shape: model.ShapeRect}); err != nil {
		t.Fatalf("入队失败: %v", err)
	}
	<-started
	if err := w.TryEnqueue(model.SynthesisRequest{Code: "busy0002", Shape: model.ShapeRect}); err != nil {
		t.Fatalf("入队失败: %v", err)
	}

	if err := w.TryEnqueue(model.SynthesisRequest{Code: "busy0003", Shape: model.ShapeRect}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("队列满时应返回 ErrQueueFull: err=%v", err)
	}

	close(release)
	w.Stop()
}

func TestSynthesisEnqueueAfterStop(t *testing.T) {
	f := newPipelineFixture(t)
	w := f.newWorker(t, 10)
	w.Start()
	w.Stop()

	if err := w.TryEnqueue(model.SynthesisRequest{Code: "late0001", Shape: model.ShapeRect}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("流水线停止后入队应返回 ErrQueueClosed: err=%v", err)
	}
}

func TestSynthesisStopWaitsCurrentTask(t *testing.T) {
	f := newPipelineFixture(t)
	f.prepareTask(t, "wait0001", false)

	w := f.newWorker(t, 10)
	w.Start()

	if err := w.TryEnqueue(model.SynthesisRequest{Code: "wait0001", Shape: model.ShapeRect}); err != nil {
		t.Fatalf("入队失败: %v", err)
	}
	// 给消费协程一点时间取走任务
	time.Sleep(50 * time.Millisecond)
	w.Stop()

	status, err := f.store.GetStatus("wait0001")
	if err != nil {
		t.Fatalf("查询状态失败: %v", err)
	}
	if !status.Terminal() {
		t.Errorf("停止前取走的任务应处理到终态: got=%s", status)
	}
}
