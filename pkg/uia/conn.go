package uia

import (
	"sync"
)

// Conn 串行化对单个无障碍连接的原生调用
//
// 多数平台的无障碍 API 对同一元素树不支持多线程重入，因此每个目标
// 连接由一个专属 worker goroutine 持有，所有树查询和动作调用经请求
// 通道进入该 worker 顺序执行。不同目标应用可以由独立的 Conn 并行驱动。
// 超时只作用于轮询层（Locator），已发出的原生调用不可抢占。
type Conn struct {
	reqs    chan func()
	done    chan struct{}
	closeMu sync.Once
}

// NewConn 创建连接 worker 并启动其调度循环
func NewConn() *Conn {
	c := &Conn{
		reqs: make(chan func()),
		done: make(chan struct{}),
	}
	go c.loop()
	return c
}

func (c *Conn) loop() {
	for {
		select {
		case fn := <-c.reqs:
			fn()
		case <-c.done:
			// 清空排队中的请求，让等待方立即返回
			for {
				select {
				case fn := <-c.reqs:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Do 在连接 worker 中执行 fn 并等待其返回
// 连接已关闭时返回 KindAppNotRunning 错误
func (c *Conn) Do(fn func() error) error {
	select {
	case <-c.done:
		return NewError(KindAppNotRunning, "连接已关闭")
	default:
	}

	errc := make(chan error, 1)
	wrapped := func() {
		select {
		case <-c.done:
			errc <- NewError(KindAppNotRunning, "连接已关闭")
		default:
			errc <- fn()
		}
	}

	select {
	case c.reqs <- wrapped:
		return <-errc
	case <-c.done:
		return NewError(KindAppNotRunning, "连接已关闭")
	}
}

// Closed 判断连接是否已关闭
func (c *Conn) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Close 关闭连接，之后的 Do 调用立即失败
func (c *Conn) Close() {
	c.closeMu.Do(func() {
		close(c.done)
	})
}
