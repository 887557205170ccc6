package service

import (
	"regexp"
	"sync"
	"testing"
)

var codePattern = regexp.MustCompile(`^[0-9a-zA-Z]{5}[0-9]{3}$`)

func TestRandomCodeFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := randomCode()
		if !codePattern.MatchString(code) {
			t.Fatalf("任务码格式错误: %q", code)
		}
	}
}

func TestGenerateCodeUnique(t *testing.T) {
	store := newTestStore(t)

	var (
		mu    sync.Mutex
		seen  = map[string]bool{}
		wg    sync.WaitGroup
		errCh = make(chan error, 20)
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := GenerateCode(store)
			if err != nil {
				errCh <- err
				return
			}
			if err := store.Insert(code, false); err != nil {
				errCh <- err
				return
			}
			mu.Lock()
			seen[code] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Fatalf("并发生成任务码失败: %v", err)
	}
	if len(seen) != 20 {
		t.Errorf("任务码出现重复: 期望 20 个，实际 %d 个", len(seen))
	}
}
