//go:build linux

// Linux 平台后端：通过 AT-SPI2 的 D-Bus 接口访问无障碍树。
// 先经会话总线向 org.a11y.Bus 查询无障碍总线地址，再在该私有总线上
// 以 (busName, objectPath) 二元组寻址元素。
package uia

import (
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	a11yBusService = "org.a11y.Bus"
	a11yBusPath    = "/org/a11y/bus"

	atspiAccessible   = "org.a11y.atspi.Accessible"
	atspiComponent    = "org.a11y.atspi.Component"
	atspiAction       = "org.a11y.atspi.Action"
	atspiText         = "org.a11y.atspi.Text"
	atspiEditableText = "org.a11y.atspi.EditableText"

	atspiRegistryName = "org.a11y.atspi.Registry"
	atspiRootPath     = "/org/a11y/atspi/accessible/root"
	atspiNullPath     = "/org/a11y/atspi/null"
)

// AT-SPI 状态位（Atspi StateType 枚举序号）
const (
	stateDefunct = 6
	stateEnabled = 8
	stateShowing = 25
	stateVisible = 30
)

// atspiRef D-Bus 上的元素引用
type atspiRef struct {
	Name string
	Path dbus.ObjectPath
}

// atspiBackend Linux AT-SPI2 后端
type atspiBackend struct {
	conn *Conn
	bus  *dbus.Conn
}

// newPlatformBackend 创建 AT-SPI 后端
// 无障碍总线不可用（未启用 AT-SPI 或无桌面会话）时返回 KindPermissionDenied
func newPlatformBackend() (Backend, error) {
	b := &atspiBackend{conn: NewConn()}

	err := b.conn.Do(func() error {
		session, err := dbus.SessionBus()
		if err != nil {
			return &Error{
				Kind:  KindPermissionDenied,
				Stage: -1,
				Msg:   "无法连接会话总线（缺少桌面会话？）",
				Err:   err,
			}
		}

		var addr string
		obj := session.Object(a11yBusService, a11yBusPath)
		if err := obj.Call("org.a11y.Bus.GetAddress", 0).Store(&addr); err != nil {
			return &Error{
				Kind:  KindPermissionDenied,
				Stage: -1,
				Msg:   "查询无障碍总线地址失败（AT-SPI 未启用？）",
				Err:   err,
			}
		}

		bus, err := dbus.Dial(addr)
		if err != nil {
			return WrapPlatform(0, err, "连接无障碍总线失败: %s", addr)
		}
		if err := bus.Auth(nil); err != nil {
			bus.Close()
			return WrapPlatform(0, err, "无障碍总线认证失败")
		}
		if err := bus.Hello(); err != nil {
			bus.Close()
			return WrapPlatform(0, err, "无障碍总线握手失败")
		}
		b.bus = bus
		return nil
	})
	if err != nil {
		b.conn.Close()
		return nil, err
	}

	return b, nil
}

func (b *atspiBackend) Name() string    { return "atspi" }
func (b *atspiBackend) Supported() bool { return true }

func (b *atspiBackend) Close() error {
	err := b.conn.Do(func() error {
		if b.bus != nil {
			return b.bus.Close()
		}
		return nil
	})
	b.conn.Close()
	return err
}

// Root 返回桌面根元素（AT-SPI Registry 的根 Accessible）
func (b *atspiBackend) Root() (Element, error) {
	return &atspiElement{
		backend: b,
		ref:     atspiRef{Name: atspiRegistryName, Path: atspiRootPath},
	}, nil
}

// Windows 返回指定进程的顶层窗口元素
// 根元素的子节点是各应用，按连接的 Unix 进程 ID 过滤后取其窗口子节点
func (b *atspiBackend) Windows(pid int) ([]Element, error) {
	root, err := b.Root()
	if err != nil {
		return nil, err
	}

	apps, err := root.Children()
	if err != nil {
		return nil, err
	}

	var result []Element
	for _, app := range apps {
		a := app.(*atspiElement)
		if b.pidOf(a.ref.Name) != pid {
			continue
		}
		windows, err := a.Children()
		if err != nil {
			if IsStale(err) {
				continue
			}
			return nil, err
		}
		result = append(result, windows...)
	}
	return result, nil
}

// pidOf 查询总线连接名对应的 Unix 进程 ID，失败返回 0
func (b *atspiBackend) pidOf(busName string) int {
	var pid uint32
	_ = b.conn.Do(func() error {
		obj := b.bus.Object("org.freedesktop.DBus", "/org/freedesktop/DBus")
		_ = obj.Call("org.freedesktop.DBus.GetConnectionUnixProcessID", 0, busName).Store(&pid)
		return nil
	})
	return int(pid)
}

// ==================== 元素实现 ====================

// atspiElement AT-SPI 元素句柄
type atspiElement struct {
	backend *atspiBackend
	ref     atspiRef
	pid     int // 惰性缓存
}

// call 在连接 worker 内发起元素的 D-Bus 方法调用
func (e *atspiElement) call(iface, method string, retvals []interface{}, args ...interface{}) error {
	return e.backend.conn.Do(func() error {
		obj := e.backend.bus.Object(e.ref.Name, e.ref.Path)
		call := obj.Call(iface+"."+method, 0, args...)
		if call.Err != nil {
			return mapDBusError(call.Err, method)
		}
		if len(retvals) > 0 {
			if err := call.Store(retvals...); err != nil {
				return WrapPlatform(0, err, "解析 %s 返回值失败", method)
			}
		}
		return nil
	})
}

// getProperty 读取元素的 D-Bus 属性
func (e *atspiElement) getProperty(iface, prop string, out interface{}) error {
	return e.backend.conn.Do(func() error {
		obj := e.backend.bus.Object(e.ref.Name, e.ref.Path)
		v, err := obj.GetProperty(iface + "." + prop)
		if err != nil {
			return mapDBusError(err, prop)
		}
		if err := v.Store(out); err != nil {
			return WrapPlatform(0, err, "解析属性 %s 失败", prop)
		}
		return nil
	})
}

// mapDBusError 将 D-Bus 错误归类：目标对象/服务消失视为失效句柄
func mapDBusError(err error, op string) error {
	var dbusErr dbus.Error
	if e, ok := err.(dbus.Error); ok {
		dbusErr = e
	}
	switch dbusErr.Name {
	case "org.freedesktop.DBus.Error.UnknownObject",
		"org.freedesktop.DBus.Error.ServiceUnknown",
		"org.freedesktop.DBus.Error.NameHasNoOwner",
		"org.freedesktop.DBus.Error.Disconnected":
		return NewError(KindStale, "元素句柄已失效 (%s)", op)
	}
	return WrapPlatform(0, err, "D-Bus 调用 %s 失败", op)
}

// Attributes 读取元素属性快照
func (e *atspiElement) Attributes() (*Attributes, error) {
	var name string
	if err := e.getProperty(atspiAccessible, "Name", &name); err != nil {
		return nil, err
	}

	var roleName string
	if err := e.call(atspiAccessible, "GetRoleName", []interface{}{&roleName}); err != nil {
		return nil, err
	}

	var states []uint32
	if err := e.call(atspiAccessible, "GetState", []interface{}{&states}); err != nil {
		return nil, err
	}
	if hasState(states, stateDefunct) {
		return nil, NewError(KindStale, "元素句柄已失效 (defunct)")
	}

	attrs := &Attributes{
		Role:         atspiRoleToRole(roleName),
		Name:         name,
		AutomationID: e.automationID(),
		Enabled:      hasState(states, stateEnabled),
		Visible:      hasState(states, stateVisible) && hasState(states, stateShowing),
	}

	// Component 接口缺失表示元素没有屏幕几何
	var x, y, w, h int32
	err := e.call(atspiComponent, "GetExtents", []interface{}{&x, &y, &w, &h}, uint32(0))
	if err == nil && w > 0 && h > 0 {
		attrs.Rect = &Rect{X: int(x), Y: int(y), Width: int(w), Height: int(h)}
	}

	return attrs, nil
}

// automationID 读取最接近平台自动化 ID 的标识（AccessibleId 属性）
func (e *atspiElement) automationID() string {
	var id string
	if err := e.getProperty(atspiAccessible, "AccessibleId", &id); err != nil {
		return ""
	}
	return id
}

// Children 按 AT-SPI 枚举顺序返回直接子元素
func (e *atspiElement) Children() ([]Element, error) {
	var count int32
	if err := e.getProperty(atspiAccessible, "ChildCount", &count); err != nil {
		return nil, err
	}

	children := make([]Element, 0, count)
	for i := int32(0); i < count; i++ {
		var ref atspiRef
		err := e.call(atspiAccessible, "GetChildAtIndex", []interface{}{&ref}, i)
		if err != nil {
			if IsStale(err) {
				// 遍历期间树可能变化，跳过已消失的子节点
				continue
			}
			return nil, err
		}
		if ref.Path == atspiNullPath || ref.Path == "" {
			continue
		}
		children = append(children, &atspiElement{backend: e.backend, ref: ref})
	}
	return children, nil
}

// IsAlive 检查句柄是否仍然有效
func (e *atspiElement) IsAlive() bool {
	var states []uint32
	if err := e.call(atspiAccessible, "GetState", []interface{}{&states}); err != nil {
		return false
	}
	return !hasState(states, stateDefunct)
}

// RuntimeID 返回 (busName, path) 组合标识
func (e *atspiElement) RuntimeID() string {
	return e.ref.Name + string(e.ref.Path)
}

// PID 返回元素所属进程 ID
func (e *atspiElement) PID() int {
	if e.pid == 0 {
		e.pid = e.backend.pidOf(e.ref.Name)
	}
	return e.pid
}

// Click 执行元素的首个无障碍动作（通常即 click/press）
func (e *atspiElement) Click() error {
	var n int32
	if err := e.getProperty(atspiAction, "NActions", &n); err != nil || n == 0 {
		return NewError(KindInvalidOperation, "元素不支持原生点击")
	}

	var ok bool
	if err := e.call(atspiAction, "DoAction", []interface{}{&ok}, int32(0)); err != nil {
		return err
	}
	if !ok {
		return WrapPlatform(0, nil, "原生动作执行被拒绝")
	}
	return nil
}

// Focus 将输入焦点设置到元素
func (e *atspiElement) Focus() error {
	var ok bool
	if err := e.call(atspiComponent, "GrabFocus", []interface{}{&ok}); err != nil {
		return err
	}
	if !ok {
		return WrapPlatform(0, nil, "设置焦点被拒绝")
	}
	return nil
}

// SetText 通过 EditableText 接口写入文本
func (e *atspiElement) SetText(text string) error {
	var ok bool
	err := e.call(atspiEditableText, "SetTextContents", []interface{}{&ok}, text)
	if err != nil {
		if IsStale(err) {
			return err
		}
		return NewError(KindInvalidOperation, "元素不支持文本写入")
	}
	if !ok {
		return WrapPlatform(0, nil, "文本写入被拒绝")
	}
	return nil
}

// Text 读取元素文本：优先 Text 接口，否则回退到 Name 属性
func (e *atspiElement) Text() (string, error) {
	var text string
	err := e.call(atspiText, "GetText", []interface{}{&text}, int32(0), int32(-1))
	if err == nil {
		return text, nil
	}
	if IsStale(err) {
		return "", err
	}

	var name string
	if err := e.getProperty(atspiAccessible, "Name", &name); err != nil {
		return "", err
	}
	return name, nil
}

// hasState 检查 AT-SPI 状态位
func hasState(states []uint32, bit int) bool {
	idx := bit / 32
	if idx >= len(states) {
		return false
	}
	return states[idx]&(1<<uint(bit%32)) != 0
}

// atspiRoleToRole AT-SPI 角色名到统一角色的映射
func atspiRoleToRole(roleName string) Role {
	switch strings.ToLower(roleName) {
	case "frame", "window", "dialog":
		return RoleWindow
	case "panel", "filler", "viewport", "scroll pane", "layered pane", "root pane":
		return RolePane
	case "page tab list":
		return RoleTab
	case "page tab":
		return RoleTabItem
	case "push button", "button", "toggle button":
		return RoleButton
	case "text", "entry", "password text":
		return RoleTextBox
	case "label", "static":
		return RoleText
	case "check box":
		return RoleCheckBox
	case "combo box":
		return RoleComboBox
	case "radio button":
		return RoleRadio
	case "list", "list box":
		return RoleList
	case "list item":
		return RoleListItem
	case "menu":
		return RoleMenu
	case "menu bar":
		return RoleMenuBar
	case "menu item", "check menu item", "radio menu item":
		return RoleMenuItem
	case "tree":
		return RoleTree
	case "tree item":
		return RoleTreeItem
	case "document frame", "document text", "document web":
		return RoleDocument
	case "grouping":
		return RoleGroup
	case "tool bar":
		return RoleToolBar
	case "status bar", "statusbar":
		return RoleStatusBar
	case "link":
		return RoleHyperlink
	case "image", "icon":
		return RoleImage
	case "slider":
		return RoleSlider
	default:
		return RoleUnknown
	}
}

// 便于调试时打印元素引用
func (e *atspiElement) String() string {
	return fmt.Sprintf("atspi(%s%s)", e.ref.Name, e.ref.Path)
}
