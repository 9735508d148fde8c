package uia

// Element 无障碍树中单个节点的句柄
//
// 句柄由后端与目标进程的活动连接持有，底层 UI 元素被销毁或进程退出后
// 句柄即失效（stale），此后所有操作显式返回 KindStale 错误而不是静默忽略。
// 句柄本身是只读值引用，可跨 goroutine 共享；所有原生调用经由所属连接
// 的 worker 串行执行（见 Conn）。
type Element interface {
	// Attributes 读取元素属性快照
	Attributes() (*Attributes, error)

	// Children 按原生枚举顺序返回直接子元素（每次调用重新获取，不缓存）
	Children() ([]Element, error)

	// IsAlive 检查句柄是否仍然有效
	IsAlive() bool

	// RuntimeID 返回元素在本次连接内的稳定标识（用于去重，不跨进程持久）
	RuntimeID() string

	// PID 返回元素所属进程 ID，未知时返回 0
	PID() int

	// Click 调用元素的原生点击/默认动作
	Click() error

	// Focus 将输入焦点设置到元素
	Focus() error

	// SetText 通过原生文本接口写入文本（要求元素可编辑）
	SetText(text string) error

	// Text 读取元素的文本内容（值或标签）
	Text() (string, error)
}

// Backend 平台无障碍后端契约
// 每个平台适配器实现统一的根枚举和按进程取窗口能力，
// 元素级操作由该后端返回的 Element 句柄承载。
type Backend interface {
	// Name 后端名称（如 "uiautomation", "atspi", "simulate"）
	Name() string

	// Supported 当前平台是否支持本后端
	Supported() bool

	// Root 返回桌面根元素
	Root() (Element, error)

	// Windows 返回指定进程的顶层窗口元素，进程无窗口时返回空切片
	Windows(pid int) ([]Element, error)

	// Close 释放后端持有的平台资源
	Close() error
}

// NewBackend 创建当前平台的原生后端
// 平台实现见 backend_windows.go / backend_linux.go / backend_other.go
func NewBackend() (Backend, error) {
	return newPlatformBackend()
}
