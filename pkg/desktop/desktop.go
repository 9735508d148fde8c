// Package desktop 提供桌面与应用程序的顶层句柄
// Desktop 是整个桌面树的入口；Application 绑定单个进程，
// 管理 启动中 → 就绪 → 已关闭 的生命周期，并作为定位器的根作用域。
package desktop

import (
	"fmt"
	"strings"
	"time"

	"github.com/zoeyai/uidriver/internal/logger"
	"github.com/zoeyai/uidriver/pkg/locator"
	"github.com/zoeyai/uidriver/pkg/overlay"
	"github.com/zoeyai/uidriver/pkg/process"
	"github.com/zoeyai/uidriver/pkg/uia"
	"github.com/zoeyai/uidriver/pkg/window"
)

// ==================== 常量 ====================

const (
	// DefaultLaunchTimeout 等待新进程出现主窗口的默认超时
	DefaultLaunchTimeout = 30 * time.Second

	// launchPollInterval 启动轮询间隔
	launchPollInterval = 200 * time.Millisecond
)

// ==================== Desktop ====================

// Desktop 桌面句柄，持有后端连接
type Desktop struct {
	backend uia.Backend
	log     *logger.Logger
}

// New 创建桌面句柄并初始化平台后端
func New() (*Desktop, error) {
	backend, err := uia.NewBackend()
	if err != nil {
		return nil, fmt.Errorf("初始化无障碍后端失败: %w", err)
	}
	return &Desktop{
		backend: backend,
		log:     logger.Default(),
	}, nil
}

// NewWithBackend 使用指定后端创建桌面句柄 (测试用)
func NewWithBackend(backend uia.Backend) *Desktop {
	return &Desktop{
		backend: backend,
		log:     logger.Default(),
	}
}

// Backend 返回底层后端
func (d *Desktop) Backend() uia.Backend {
	return d.backend
}

// Roots 返回桌面根元素，实现 locator.Scope
func (d *Desktop) Roots() ([]uia.Element, error) {
	root, err := d.backend.Root()
	if err != nil {
		return nil, err
	}
	return []uia.Element{root}, nil
}

// Locator 在整个桌面范围内创建定位器
func (d *Desktop) Locator(sel string, opts ...locator.Option) (*locator.Locator, error) {
	return locator.Parse(d, sel, opts...)
}

// Close 释放后端连接
func (d *Desktop) Close() error {
	return d.backend.Close()
}

// ==================== Application 状态 ====================

// State 应用程序生命周期状态
type State int

const (
	// StateLaunching 进程已创建，主窗口尚未出现
	StateLaunching State = iota
	// StateReady 主窗口已出现，可以执行定位与操作
	StateReady
	// StateClosed 已关闭，句柄失效
	StateClosed
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateLaunching:
		return "Launching"
	case StateReady:
		return "Ready"
	case StateClosed:
		return "Closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ==================== Application ====================

// Application 单个应用进程的句柄
type Application struct {
	desktop *Desktop
	pid     int
	state   State
	log     *logger.Logger

	// isRunning 进程存活检查，可注入以便测试
	isRunning func(pid int) bool
}

// OpenApplication 启动应用并等待主窗口出现
// 返回的句柄处于就绪态；超时前窗口未出现则返回 ApplicationNotRunning 错误。
func (d *Desktop) OpenApplication(path string, args ...string) (*Application, error) {
	return d.OpenApplicationTimeout(DefaultLaunchTimeout, path, args...)
}

// OpenApplicationTimeout 启动应用，使用指定的主窗口等待超时
func (d *Desktop) OpenApplicationTimeout(timeout time.Duration, path string, args ...string) (*Application, error) {
	pid, err := process.Launch(path, args...)
	if err != nil {
		return nil, uia.NewError(uia.KindPlatform, "启动应用失败: %v", err)
	}

	app := &Application{
		desktop:   d,
		pid:       pid,
		state:     StateLaunching,
		log:       d.log,
		isRunning: process.IsRunning,
	}

	d.log.Info("应用已启动: path=%s pid=%d，等待主窗口", path, pid)

	if err := app.waitReady(timeout); err != nil {
		return nil, err
	}
	return app, nil
}

// Attach 附加到已运行的进程
func (d *Desktop) Attach(pid int) (*Application, error) {
	if !process.IsRunning(pid) {
		return nil, uia.NewError(uia.KindAppNotRunning, "进程不存在或已退出: pid=%d", pid)
	}

	app := &Application{
		desktop:   d,
		pid:       pid,
		state:     StateReady,
		log:       d.log,
		isRunning: process.IsRunning,
	}
	return app, nil
}

// AttachByTitle 按窗口标题附加 (部分匹配)
func (d *Desktop) AttachByTitle(title string) (*Application, error) {
	info, err := window.ByTitle(title)
	if err != nil {
		return nil, uia.NewError(uia.KindAppNotRunning, "按标题附加失败: %v", err)
	}
	return d.Attach(info.PID)
}

// AttachByName 按进程名附加 (部分匹配)
func (d *Desktop) AttachByName(name string) (*Application, error) {
	procs, err := process.Find(name)
	if err != nil {
		return nil, uia.NewError(uia.KindPlatform, "查找进程失败: %v", err)
	}
	if len(procs) == 0 {
		return nil, uia.NewError(uia.KindAppNotRunning, "未找到名称包含 %q 的进程", name)
	}
	return d.Attach(procs[0].PID)
}

// waitReady 轮询等待进程的顶层窗口出现
func (a *Application) waitReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if !a.isRunning(a.pid) {
			a.state = StateClosed
			return uia.NewError(uia.KindAppNotRunning,
				"进程在主窗口出现前退出: pid=%d", a.pid)
		}

		roots, err := a.desktop.backend.Windows(a.pid)
		if err == nil && len(roots) > 0 {
			a.state = StateReady
			a.log.Info("应用就绪: pid=%d windows=%d", a.pid, len(roots))
			return nil
		}

		if time.Now().After(deadline) {
			return uia.NewError(uia.KindAppNotRunning,
				"等待主窗口超时 (%v): pid=%d", timeout, a.pid)
		}
		time.Sleep(launchPollInterval)
	}
}

// PID 返回进程 ID
func (a *Application) PID() int {
	return a.pid
}

// State 返回当前生命周期状态
func (a *Application) State() State {
	a.refreshState()
	return a.state
}

// refreshState 就绪态下检测进程退出，退出则迁移到已关闭
func (a *Application) refreshState() {
	if a.state == StateReady && !a.isRunning(a.pid) {
		a.state = StateClosed
	}
}

// IsRunning 进程是否仍在运行
func (a *Application) IsRunning() bool {
	a.refreshState()
	return a.state == StateReady
}

// Roots 返回应用的顶层窗口元素，实现 locator.Scope
func (a *Application) Roots() ([]uia.Element, error) {
	a.refreshState()
	if a.state == StateClosed {
		return nil, uia.NewError(uia.KindAppNotRunning,
			"应用已关闭: pid=%d", a.pid)
	}
	if a.state == StateLaunching {
		return nil, uia.NewError(uia.KindNoMatch,
			"应用尚未就绪: pid=%d", a.pid)
	}
	return a.desktop.backend.Windows(a.pid)
}

// Locator 在应用的窗口范围内创建定位器
func (a *Application) Locator(sel string, opts ...locator.Option) (*locator.Locator, error) {
	return locator.Parse(a, sel, opts...)
}

// MainWindow 返回第一个顶层窗口元素
func (a *Application) MainWindow() (uia.Element, error) {
	roots, err := a.Roots()
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, uia.NewError(uia.KindNoMatch,
			"应用没有顶层窗口: pid=%d", a.pid)
	}
	return roots[0], nil
}

// Title 返回主窗口标题
func (a *Application) Title() (string, error) {
	win, err := a.MainWindow()
	if err != nil {
		return "", err
	}
	attrs, err := win.Attributes()
	if err != nil {
		return "", err
	}
	return attrs.Name, nil
}

// Activate 将应用窗口置于前台
func (a *Application) Activate() error {
	a.refreshState()
	if a.state == StateClosed {
		return uia.NewError(uia.KindAppNotRunning,
			"应用已关闭: pid=%d", a.pid)
	}
	if err := window.ActivateByPID(a.pid); err != nil {
		return uia.NewError(uia.KindPlatform, "激活应用窗口失败: %v", err)
	}
	return nil
}

// Highlight 高亮主窗口边界
func (a *Application) Highlight(duration time.Duration) error {
	win, err := a.MainWindow()
	if err != nil {
		return err
	}
	attrs, err := win.Attributes()
	if err != nil {
		return err
	}
	if attrs.Rect == nil || attrs.Rect.Empty() {
		a.log.Warn("主窗口无边界矩形，跳过高亮: pid=%d", a.pid)
		return nil
	}

	label := attrs.Name
	if label == "" {
		label = fmt.Sprintf("pid=%d", a.pid)
	}
	return overlay.Show(overlay.Frame{
		Rect:     *attrs.Rect,
		Label:    truncateLabel(label),
		Duration: duration,
	})
}

// Close 终止应用进程，句柄迁移到已关闭
func (a *Application) Close() error {
	if a.state == StateClosed {
		return nil
	}
	a.state = StateClosed

	if a.isRunning(a.pid) {
		if err := process.Kill(a.pid); err != nil {
			return uia.NewError(uia.KindPlatform,
				"终止进程失败: pid=%d: %v", a.pid, err)
		}
	}
	a.log.Info("应用已关闭: pid=%d", a.pid)
	return nil
}

// truncateLabel 限制高亮标签长度
func truncateLabel(s string) string {
	const max = 40
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max]) + "..."
}
