package uia

import (
	"sync"
	"testing"
	"time"
)

func TestConnSerializesCalls(t *testing.T) {
	conn := NewConn()
	defer conn.Close()

	// 并发提交的调用必须在 worker 中串行执行，无重入
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		total   int
	)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := conn.Do(func() error {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				total++
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("调用失败: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("同时执行的调用数应为 1, 实际峰值为 %d", maxSeen)
	}
	if total != 20 {
		t.Errorf("执行次数应为 20, 实际为 %d", total)
	}
}

func TestConnDoReturnsCallError(t *testing.T) {
	conn := NewConn()
	defer conn.Close()

	want := NewError(KindPlatform, "原生调用失败")
	err := conn.Do(func() error { return want })
	if err != want {
		t.Errorf("应原样返回调用错误, 实际为 %v", err)
	}
}

func TestConnClosedRejectsCalls(t *testing.T) {
	conn := NewConn()
	conn.Close()

	if !conn.Closed() {
		t.Fatal("Close 后 Closed() 应为 true")
	}

	err := conn.Do(func() error {
		t.Error("关闭后的调用不应执行")
		return nil
	})
	if !IsKind(err, KindAppNotRunning) {
		t.Errorf("关闭后调用应返回 ApplicationNotRunning, 实际为 %v", err)
	}

	// 重复关闭不应 panic
	conn.Close()
}

func TestConnCloseUnblocksWaiters(t *testing.T) {
	conn := NewConn()

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		conn.Do(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	// worker 被占用期间关闭连接，后续等待方应尽快返回而不是永久阻塞
	done := make(chan error, 1)
	go func() {
		done <- conn.Do(func() error { return nil })
	}()

	conn.Close()
	close(release)

	select {
	case err := <-done:
		t.Logf("排队调用返回: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("关闭后排队调用超时未返回")
	}
}
