// Package simulate 提供内存模拟的无障碍树后端。
// 用于单元测试和离线演练：树可以在运行期间增删节点、延迟出现、
// 销毁子树，以复现真实 UI 树的持续变化。所有原生调用同样经由
// 连接 worker 串行执行，行为与平台后端一致。
package simulate

import (
	"fmt"
	"sync"
	"time"

	"github.com/zoeyai/uidriver/pkg/uia"
)

// Backend 模拟后端
type Backend struct {
	conn   *uia.Conn
	mu     sync.Mutex
	root   *Node
	nextID int
}

// Node 模拟树节点
// 通过 Backend 的构造方法创建，字段变更需持有后端锁
type Node struct {
	backend *Backend

	id        string
	pid       int
	attrs     uia.Attributes
	text      string
	children  []*Node
	destroyed bool
	appearAt  time.Time

	clicks  int
	focused bool
}

// New 创建模拟后端，根节点为桌面
func New() *Backend {
	b := &Backend{conn: uia.NewConn()}
	b.root = &Node{
		backend: b,
		id:      "root",
		attrs: uia.Attributes{
			Role:    uia.RolePane,
			Name:    "Desktop",
			Enabled: true,
			Visible: true,
		},
	}
	return b
}

func (b *Backend) Name() string    { return "simulate" }
func (b *Backend) Supported() bool { return true }

// Close 关闭后端连接
func (b *Backend) Close() error {
	b.conn.Close()
	return nil
}

// Conn 返回后端的连接 worker（供测试检查关闭行为）
func (b *Backend) Conn() *uia.Conn {
	return b.conn
}

// Root 返回桌面根元素
func (b *Backend) Root() (uia.Element, error) {
	return &simElement{backend: b, node: b.root}, nil
}

// Windows 返回指定进程的顶层窗口元素
func (b *Backend) Windows(pid int) ([]uia.Element, error) {
	var result []uia.Element
	err := b.conn.Do(func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, c := range b.root.visibleChildrenLocked() {
			if c.pid == pid {
				result = append(result, &simElement{backend: b, node: c})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ==================== 树构造 ====================

// NewWindow 在桌面下添加一个属于 pid 的顶层窗口
func (b *Backend) NewWindow(pid int, name string) *Node {
	w := b.root.Add(uia.RoleWindow, name, "")
	b.mu.Lock()
	w.pid = pid
	b.mu.Unlock()
	return w
}

// RootNode 返回桌面根节点（用于直接挂载子树）
func (b *Backend) RootNode() *Node {
	return b.root
}

// Add 添加子节点并返回它
func (n *Node) Add(role uia.Role, name, nativeID string) *Node {
	b := n.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	child := &Node{
		backend: b,
		id:      fmt.Sprintf("sim-%d", b.nextID),
		pid:     n.pid,
		attrs: uia.Attributes{
			Role:         role,
			Name:         name,
			AutomationID: nativeID,
			Enabled:      true,
			Visible:      true,
		},
	}
	n.children = append(n.children, child)
	return child
}

// SetRect 设置节点的屏幕几何
func (n *Node) SetRect(x, y, w, h int) *Node {
	n.backend.mu.Lock()
	defer n.backend.mu.Unlock()
	n.attrs.Rect = &uia.Rect{X: x, Y: y, Width: w, Height: h}
	return n
}

// SetEnabled 设置启用状态
func (n *Node) SetEnabled(enabled bool) *Node {
	n.backend.mu.Lock()
	defer n.backend.mu.Unlock()
	n.attrs.Enabled = enabled
	return n
}

// SetText 设置文本内容
func (n *Node) SetText(text string) *Node {
	n.backend.mu.Lock()
	defer n.backend.mu.Unlock()
	n.text = text
	return n
}

// AppearAfter 节点延迟 d 后才在树中出现（模拟异步渲染）
func (n *Node) AppearAfter(d time.Duration) *Node {
	n.backend.mu.Lock()
	defer n.backend.mu.Unlock()
	n.appearAt = time.Now().Add(d)
	return n
}

// Destroy 销毁节点及其整个子树，之后所有句柄操作返回失效错误
func (n *Node) Destroy() {
	n.backend.mu.Lock()
	defer n.backend.mu.Unlock()
	n.destroyLocked()
}

func (n *Node) destroyLocked() {
	n.destroyed = true
	for _, c := range n.children {
		c.destroyLocked()
	}
}

// Element 返回节点的元素句柄
func (n *Node) Element() uia.Element {
	return &simElement{backend: n.backend, node: n}
}

// Clicks 返回节点被原生点击的次数
func (n *Node) Clicks() int {
	n.backend.mu.Lock()
	defer n.backend.mu.Unlock()
	return n.clicks
}

// Focused 返回节点是否持有焦点
func (n *Node) Focused() bool {
	n.backend.mu.Lock()
	defer n.backend.mu.Unlock()
	return n.focused
}

// visibleChildrenLocked 过滤掉已销毁和尚未出现的子节点
func (n *Node) visibleChildrenLocked() []*Node {
	now := time.Now()
	var out []*Node
	for _, c := range n.children {
		if c.destroyed {
			continue
		}
		if !c.appearAt.IsZero() && now.Before(c.appearAt) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ==================== 元素句柄 ====================

type simElement struct {
	backend *Backend
	node    *Node
}

func (e *simElement) do(fn func() error) error {
	return e.backend.conn.Do(func() error {
		e.backend.mu.Lock()
		defer e.backend.mu.Unlock()
		if e.node.destroyed {
			return uia.NewError(uia.KindStale, "元素句柄已失效")
		}
		return fn()
	})
}

func (e *simElement) Attributes() (*uia.Attributes, error) {
	var attrs uia.Attributes
	err := e.do(func() error {
		attrs = e.node.attrs
		if e.node.attrs.Rect != nil {
			r := *e.node.attrs.Rect
			attrs.Rect = &r
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &attrs, nil
}

func (e *simElement) Children() ([]uia.Element, error) {
	var children []uia.Element
	err := e.do(func() error {
		for _, c := range e.node.visibleChildrenLocked() {
			children = append(children, &simElement{backend: e.backend, node: c})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return children, nil
}

func (e *simElement) IsAlive() bool {
	alive := false
	_ = e.backend.conn.Do(func() error {
		e.backend.mu.Lock()
		defer e.backend.mu.Unlock()
		alive = !e.node.destroyed
		return nil
	})
	return alive
}

func (e *simElement) RuntimeID() string {
	return e.node.id
}

func (e *simElement) PID() int {
	return e.node.pid
}

func (e *simElement) Click() error {
	return e.do(func() error {
		if !e.node.attrs.Enabled {
			return uia.NewError(uia.KindInvalidOperation, "元素已禁用")
		}
		e.node.clicks++
		return nil
	})
}

func (e *simElement) Focus() error {
	return e.do(func() error {
		e.node.focused = true
		return nil
	})
}

func (e *simElement) SetText(text string) error {
	return e.do(func() error {
		if !uia.IsEditable(e.node.attrs.Role) {
			return uia.NewError(uia.KindInvalidOperation, "元素不支持文本写入")
		}
		e.node.text = text
		return nil
	})
}

func (e *simElement) Text() (string, error) {
	var text string
	err := e.do(func() error {
		if e.node.text != "" {
			text = e.node.text
		} else {
			text = e.node.attrs.Name
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}
