//go:build windows

// Windows 平台后端：通过 UI Automation COM 接口访问无障碍树。
// COM 接口未包含在 go-ole 内置定义中，这里按 UIAutomationClient.h 的
// vtable 布局手工声明所需的方法槽位。
package uia

import (
	"fmt"
	"strings"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
)

var (
	clsidCUIAutomation = ole.NewGUID("{FF48DBA4-60EF-4201-AA87-54103EEF594E}")
	iidIUIAutomation   = ole.NewGUID("{30CBE57D-D9D0-452A-AB13-7AC5AC4825EE}")

	iidInvokePattern = ole.NewGUID("{FB377FBE-8EA6-46D5-9C73-6499642D3059}")
	iidValuePattern  = ole.NewGUID("{A94CD8B1-0844-4CD6-9D2D-640537AB39E9}")
)

// UIA 模式 ID
const (
	patternInvoke = 10000
	patternValue  = 10002
)

// hrElementNotAvailable 元素已不可用（被销毁）
const hrElementNotAvailable = 0x80040201

// ==================== COM vtable 声明 ====================

type iUIAutomation struct {
	ole.IUnknown
}

type iUIAutomationVtbl struct {
	ole.IUnknownVtbl
	CompareElements             uintptr
	CompareRuntimeIds           uintptr
	GetRootElement              uintptr
	ElementFromHandle           uintptr
	ElementFromPoint            uintptr
	GetFocusedElement           uintptr
	GetRootElementBuildCache    uintptr
	ElementFromHandleBuildCache uintptr
	ElementFromPointBuildCache  uintptr
	GetFocusedElementBuildCache uintptr
	CreateTreeWalker            uintptr
	GetControlViewWalker        uintptr
	GetContentViewWalker        uintptr
	GetRawViewWalker            uintptr
}

func (v *iUIAutomation) vtbl() *iUIAutomationVtbl {
	return (*iUIAutomationVtbl)(unsafe.Pointer(v.RawVTable))
}

type iUIAutomationElement struct {
	ole.IUnknown
}

type iUIAutomationElementVtbl struct {
	ole.IUnknownVtbl
	SetFocus                        uintptr
	GetRuntimeId                    uintptr
	FindFirst                       uintptr
	FindAll                         uintptr
	FindFirstBuildCache             uintptr
	FindAllBuildCache               uintptr
	BuildUpdatedCache               uintptr
	GetCurrentPropertyValue         uintptr
	GetCurrentPropertyValueEx       uintptr
	GetCachedPropertyValue          uintptr
	GetCachedPropertyValueEx        uintptr
	GetCurrentPatternAs             uintptr
	GetCachedPatternAs              uintptr
	GetCurrentPattern               uintptr
	GetCachedPattern                uintptr
	GetCachedParent                 uintptr
	GetCachedChildren               uintptr
	GetCurrentProcessId             uintptr
	GetCurrentControlType           uintptr
	GetCurrentLocalizedControlType  uintptr
	GetCurrentName                  uintptr
	GetCurrentAcceleratorKey        uintptr
	GetCurrentAccessKey             uintptr
	GetCurrentHasKeyboardFocus      uintptr
	GetCurrentIsKeyboardFocusable   uintptr
	GetCurrentIsEnabled             uintptr
	GetCurrentAutomationId          uintptr
	GetCurrentClassName             uintptr
	GetCurrentHelpText              uintptr
	GetCurrentCulture               uintptr
	GetCurrentIsControlElement      uintptr
	GetCurrentIsContentElement      uintptr
	GetCurrentIsPassword            uintptr
	GetCurrentNativeWindowHandle    uintptr
	GetCurrentItemType              uintptr
	GetCurrentIsOffscreen           uintptr
	GetCurrentOrientation           uintptr
	GetCurrentFrameworkId           uintptr
	GetCurrentIsRequiredForForm     uintptr
	GetCurrentItemStatus            uintptr
	GetCurrentBoundingRectangle     uintptr
	GetCurrentLabeledBy             uintptr
}

func (v *iUIAutomationElement) vtbl() *iUIAutomationElementVtbl {
	return (*iUIAutomationElementVtbl)(unsafe.Pointer(v.RawVTable))
}

type iUIAutomationTreeWalker struct {
	ole.IUnknown
}

type iUIAutomationTreeWalkerVtbl struct {
	ole.IUnknownVtbl
	GetParentElement          uintptr
	GetFirstChildElement      uintptr
	GetLastChildElement       uintptr
	GetNextSiblingElement     uintptr
	GetPreviousSiblingElement uintptr
	NormalizeElement          uintptr
}

func (v *iUIAutomationTreeWalker) vtbl() *iUIAutomationTreeWalkerVtbl {
	return (*iUIAutomationTreeWalkerVtbl)(unsafe.Pointer(v.RawVTable))
}

type iUIAutomationInvokePattern struct {
	ole.IUnknown
}

type iUIAutomationInvokePatternVtbl struct {
	ole.IUnknownVtbl
	Invoke uintptr
}

type iUIAutomationValuePattern struct {
	ole.IUnknown
}

type iUIAutomationValuePatternVtbl struct {
	ole.IUnknownVtbl
	SetValue             uintptr
	GetCurrentValue      uintptr
	GetCurrentIsReadOnly uintptr
}

// winRECT 对应 Win32 tagRECT
type winRECT struct {
	Left, Top, Right, Bottom int32
}

// ==================== 后端实现 ====================

// winBackend Windows UI Automation 后端
type winBackend struct {
	conn   *Conn
	auto   *iUIAutomation
	walker *iUIAutomationTreeWalker
}

// newPlatformBackend 创建 Windows 后端
// COM 对象在连接 worker 线程内创建，后续所有调用都经同一 worker 串行执行
func newPlatformBackend() (Backend, error) {
	b := &winBackend{conn: NewConn()}

	err := b.conn.Do(func() error {
		if err := ole.CoInitialize(0); err != nil {
			oleErr, ok := err.(*ole.OleError)
			// S_FALSE / RPC_E_CHANGED_MODE 表示线程已初始化，可继续
			if !ok || (oleErr.Code() != 1 && oleErr.Code() != 0x80010106) {
				return WrapPlatform(hresultOf(err), err, "初始化 COM 失败")
			}
		}

		unk, err := ole.CreateInstance(clsidCUIAutomation, iidIUIAutomation)
		if err != nil {
			return WrapPlatform(hresultOf(err), err, "创建 UIAutomation 实例失败")
		}
		b.auto = (*iUIAutomation)(unsafe.Pointer(unk))

		var walker *iUIAutomationTreeWalker
		hr, _, _ := syscall.SyscallN(
			b.auto.vtbl().GetControlViewWalker,
			uintptr(unsafe.Pointer(b.auto)),
			uintptr(unsafe.Pointer(&walker)),
		)
		if int32(hr) < 0 || walker == nil {
			return WrapPlatform(int64(hr), nil, "获取 ControlViewWalker 失败")
		}
		b.walker = walker
		return nil
	})
	if err != nil {
		b.conn.Close()
		return nil, err
	}

	return b, nil
}

func (b *winBackend) Name() string    { return "uiautomation" }
func (b *winBackend) Supported() bool { return true }

func (b *winBackend) Close() error {
	err := b.conn.Do(func() error {
		if b.walker != nil {
			b.walker.Release()
			b.walker = nil
		}
		if b.auto != nil {
			b.auto.Release()
			b.auto = nil
		}
		return nil
	})
	b.conn.Close()
	return err
}

// Root 返回桌面根元素
func (b *winBackend) Root() (Element, error) {
	var el *winElement
	err := b.conn.Do(func() error {
		var raw *iUIAutomationElement
		hr, _, _ := syscall.SyscallN(
			b.auto.vtbl().GetRootElement,
			uintptr(unsafe.Pointer(b.auto)),
			uintptr(unsafe.Pointer(&raw)),
		)
		if int32(hr) < 0 || raw == nil {
			return WrapPlatform(int64(hr), nil, "获取桌面根元素失败")
		}
		el = &winElement{backend: b, raw: raw}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return el, nil
}

// Windows 返回指定进程的顶层窗口元素
// 通过遍历桌面根元素的直接子元素并按进程 ID 过滤
func (b *winBackend) Windows(pid int) ([]Element, error) {
	root, err := b.Root()
	if err != nil {
		return nil, err
	}

	children, err := root.Children()
	if err != nil {
		return nil, err
	}

	var result []Element
	for _, c := range children {
		w := c.(*winElement)
		if w.processID() == pid {
			result = append(result, w)
		}
	}
	return result, nil
}

// ==================== 元素实现 ====================

// winElement UIA 元素句柄
type winElement struct {
	backend *winBackend
	raw     *iUIAutomationElement
}

// processID 读取元素所属进程 ID，失败返回 0
func (e *winElement) processID() int {
	var pid int32
	_ = e.backend.conn.Do(func() error {
		hr, _, _ := syscall.SyscallN(
			e.raw.vtbl().GetCurrentProcessId,
			uintptr(unsafe.Pointer(e.raw)),
			uintptr(unsafe.Pointer(&pid)),
		)
		if int32(hr) < 0 {
			pid = 0
		}
		return nil
	})
	return int(pid)
}

func (e *winElement) PID() int { return e.processID() }

// bstrToString 读取并释放 COM 返回的 BSTR
func bstrToString(bstr *uint16) string {
	if bstr == nil {
		return ""
	}
	defer ole.SysFreeString((*int16)(unsafe.Pointer(bstr)))
	return ole.BstrToString(bstr)
}

// getString 调用返回 BSTR 的属性 getter（须在 worker 内调用）
func (e *winElement) getString(slot uintptr) (string, error) {
	var bstr *uint16
	hr, _, _ := syscall.SyscallN(
		slot,
		uintptr(unsafe.Pointer(e.raw)),
		uintptr(unsafe.Pointer(&bstr)),
	)
	if int32(hr) < 0 {
		return "", platformOrStale(int64(hr), "读取元素字符串属性失败")
	}
	return bstrToString(bstr), nil
}

// platformOrStale 将元素不可用的 HRESULT 归类为 KindStale
func platformOrStale(hr int64, msg string) error {
	if uint32(hr) == hrElementNotAvailable {
		return NewError(KindStale, "元素句柄已失效")
	}
	return WrapPlatform(hr, nil, "%s", msg)
}

// Attributes 读取元素属性快照
func (e *winElement) Attributes() (*Attributes, error) {
	var attrs *Attributes
	err := e.backend.conn.Do(func() error {
		name, err := e.getString(e.raw.vtbl().GetCurrentName)
		if err != nil {
			return err
		}
		autoID, err := e.getString(e.raw.vtbl().GetCurrentAutomationId)
		if err != nil {
			return err
		}

		var controlType int32
		hr, _, _ := syscall.SyscallN(
			e.raw.vtbl().GetCurrentControlType,
			uintptr(unsafe.Pointer(e.raw)),
			uintptr(unsafe.Pointer(&controlType)),
		)
		if int32(hr) < 0 {
			return platformOrStale(int64(hr), "读取控件类型失败")
		}

		var enabled, offscreen int32
		hr, _, _ = syscall.SyscallN(
			e.raw.vtbl().GetCurrentIsEnabled,
			uintptr(unsafe.Pointer(e.raw)),
			uintptr(unsafe.Pointer(&enabled)),
		)
		if int32(hr) < 0 {
			return platformOrStale(int64(hr), "读取启用状态失败")
		}
		hr, _, _ = syscall.SyscallN(
			e.raw.vtbl().GetCurrentIsOffscreen,
			uintptr(unsafe.Pointer(e.raw)),
			uintptr(unsafe.Pointer(&offscreen)),
		)
		if int32(hr) < 0 {
			return platformOrStale(int64(hr), "读取可见状态失败")
		}

		var rect winRECT
		hr, _, _ = syscall.SyscallN(
			e.raw.vtbl().GetCurrentBoundingRectangle,
			uintptr(unsafe.Pointer(e.raw)),
			uintptr(unsafe.Pointer(&rect)),
		)
		if int32(hr) < 0 {
			return platformOrStale(int64(hr), "读取边界矩形失败")
		}

		attrs = &Attributes{
			Role:         controlTypeToRole(controlType),
			Name:         name,
			AutomationID: autoID,
			Enabled:      enabled != 0,
			Visible:      offscreen == 0,
		}
		w := int(rect.Right - rect.Left)
		h := int(rect.Bottom - rect.Top)
		if w > 0 && h > 0 {
			attrs.Rect = &Rect{X: int(rect.Left), Y: int(rect.Top), Width: w, Height: h}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attrs, nil
}

// Children 按 ControlView 遍历顺序返回直接子元素
func (e *winElement) Children() ([]Element, error) {
	var children []Element
	err := e.backend.conn.Do(func() error {
		walker := e.backend.walker

		var child *iUIAutomationElement
		hr, _, _ := syscall.SyscallN(
			walker.vtbl().GetFirstChildElement,
			uintptr(unsafe.Pointer(walker)),
			uintptr(unsafe.Pointer(e.raw)),
			uintptr(unsafe.Pointer(&child)),
		)
		if int32(hr) < 0 {
			return platformOrStale(int64(hr), "枚举子元素失败")
		}

		for child != nil {
			children = append(children, &winElement{backend: e.backend, raw: child})

			var next *iUIAutomationElement
			hr, _, _ = syscall.SyscallN(
				walker.vtbl().GetNextSiblingElement,
				uintptr(unsafe.Pointer(walker)),
				uintptr(unsafe.Pointer(child)),
				uintptr(unsafe.Pointer(&next)),
			)
			if int32(hr) < 0 {
				return platformOrStale(int64(hr), "枚举兄弟元素失败")
			}
			child = next
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return children, nil
}

// IsAlive 检查句柄是否仍然有效
func (e *winElement) IsAlive() bool {
	alive := false
	_ = e.backend.conn.Do(func() error {
		var pid int32
		hr, _, _ := syscall.SyscallN(
			e.raw.vtbl().GetCurrentProcessId,
			uintptr(unsafe.Pointer(e.raw)),
			uintptr(unsafe.Pointer(&pid)),
		)
		alive = int32(hr) >= 0
		return nil
	})
	return alive
}

// RuntimeID 返回 UIA 运行时 ID 的字符串形式
func (e *winElement) RuntimeID() string {
	var id string
	_ = e.backend.conn.Do(func() error {
		var sa *ole.SafeArray
		hr, _, _ := syscall.SyscallN(
			e.raw.vtbl().GetRuntimeId,
			uintptr(unsafe.Pointer(e.raw)),
			uintptr(unsafe.Pointer(&sa)),
		)
		if int32(hr) < 0 || sa == nil {
			return nil
		}
		conv := &ole.SafeArrayConversion{Array: sa}
		defer conv.Release()

		var parts []string
		for _, v := range conv.ToValueArray() {
			parts = append(parts, fmt.Sprint(v))
		}
		id = strings.Join(parts, ".")
		return nil
	})
	return id
}

// Click 优先调用 Invoke 模式，元素不支持时返回 KindInvalidOperation
// （上层 Action Dispatcher 会退回坐标点击）
func (e *winElement) Click() error {
	return e.backend.conn.Do(func() error {
		var unk *ole.IUnknown
		hr, _, _ := syscall.SyscallN(
			e.raw.vtbl().GetCurrentPattern,
			uintptr(unsafe.Pointer(e.raw)),
			uintptr(patternInvoke),
			uintptr(unsafe.Pointer(&unk)),
		)
		if int32(hr) < 0 {
			return platformOrStale(int64(hr), "获取 Invoke 模式失败")
		}
		if unk == nil {
			return NewError(KindInvalidOperation, "元素不支持原生点击")
		}

		disp, err := unk.QueryInterface(iidInvokePattern)
		unk.Release()
		if err != nil {
			return WrapPlatform(hresultOf(err), err, "查询 Invoke 接口失败")
		}
		pattern := (*iUIAutomationInvokePattern)(unsafe.Pointer(disp))
		defer pattern.Release()

		vtbl := (*iUIAutomationInvokePatternVtbl)(unsafe.Pointer(pattern.RawVTable))
		hr, _, _ = syscall.SyscallN(vtbl.Invoke, uintptr(unsafe.Pointer(pattern)))
		if int32(hr) < 0 {
			return platformOrStale(int64(hr), "调用 Invoke 失败")
		}
		return nil
	})
}

// Focus 设置输入焦点
func (e *winElement) Focus() error {
	return e.backend.conn.Do(func() error {
		hr, _, _ := syscall.SyscallN(
			e.raw.vtbl().SetFocus,
			uintptr(unsafe.Pointer(e.raw)),
		)
		if int32(hr) < 0 {
			return platformOrStale(int64(hr), "设置焦点失败")
		}
		return nil
	})
}

// valuePattern 获取 Value 模式接口，元素不支持时返回 nil
// 须在 worker 内调用
func (e *winElement) valuePattern() (*iUIAutomationValuePattern, error) {
	var unk *ole.IUnknown
	hr, _, _ := syscall.SyscallN(
		e.raw.vtbl().GetCurrentPattern,
		uintptr(unsafe.Pointer(e.raw)),
		uintptr(patternValue),
		uintptr(unsafe.Pointer(&unk)),
	)
	if int32(hr) < 0 {
		return nil, platformOrStale(int64(hr), "获取 Value 模式失败")
	}
	if unk == nil {
		return nil, nil
	}
	disp, err := unk.QueryInterface(iidValuePattern)
	unk.Release()
	if err != nil {
		return nil, WrapPlatform(hresultOf(err), err, "查询 Value 接口失败")
	}
	return (*iUIAutomationValuePattern)(unsafe.Pointer(disp)), nil
}

// SetText 通过 Value 模式写入文本
func (e *winElement) SetText(text string) error {
	return e.backend.conn.Do(func() error {
		pattern, err := e.valuePattern()
		if err != nil {
			return err
		}
		if pattern == nil {
			return NewError(KindInvalidOperation, "元素不支持文本写入")
		}
		defer pattern.Release()

		bstr := ole.SysAllocString(text)
		defer ole.SysFreeString(bstr)

		vtbl := (*iUIAutomationValuePatternVtbl)(unsafe.Pointer(pattern.RawVTable))
		hr, _, _ := syscall.SyscallN(
			vtbl.SetValue,
			uintptr(unsafe.Pointer(pattern)),
			uintptr(unsafe.Pointer(bstr)),
		)
		if int32(hr) < 0 {
			return platformOrStale(int64(hr), "写入文本失败")
		}
		return nil
	})
}

// Text 读取元素文本：优先 Value 模式，否则回退到 Name 属性
func (e *winElement) Text() (string, error) {
	var text string
	err := e.backend.conn.Do(func() error {
		pattern, err := e.valuePattern()
		if err != nil {
			return err
		}
		if pattern != nil {
			defer pattern.Release()
			var bstr *uint16
			vtbl := (*iUIAutomationValuePatternVtbl)(unsafe.Pointer(pattern.RawVTable))
			hr, _, _ := syscall.SyscallN(
				vtbl.GetCurrentValue,
				uintptr(unsafe.Pointer(pattern)),
				uintptr(unsafe.Pointer(&bstr)),
			)
			if int32(hr) < 0 {
				return platformOrStale(int64(hr), "读取文本值失败")
			}
			text = bstrToString(bstr)
			return nil
		}

		text, err = e.getString(e.raw.vtbl().GetCurrentName)
		return err
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// hresultOf 从 go-ole 错误中提取 HRESULT
func hresultOf(err error) int64 {
	if oleErr, ok := err.(*ole.OleError); ok {
		return int64(oleErr.Code())
	}
	return 0
}

// controlTypeToRole UIA ControlType 到统一角色的映射
func controlTypeToRole(ct int32) Role {
	switch ct {
	case 50000:
		return RoleButton
	case 50002:
		return RoleCheckBox
	case 50003:
		return RoleComboBox
	case 50004:
		return RoleTextBox
	case 50005:
		return RoleHyperlink
	case 50006:
		return RoleImage
	case 50007:
		return RoleListItem
	case 50008:
		return RoleList
	case 50009:
		return RoleMenu
	case 50010:
		return RoleMenuBar
	case 50011:
		return RoleMenuItem
	case 50013:
		return RoleRadio
	case 50015:
		return RoleSlider
	case 50017:
		return RoleStatusBar
	case 50018:
		return RoleTab
	case 50019:
		return RoleTabItem
	case 50020:
		return RoleText
	case 50021:
		return RoleToolBar
	case 50023:
		return RoleTree
	case 50024:
		return RoleTreeItem
	case 50025:
		return RoleCustom
	case 50026:
		return RoleGroup
	case 50030:
		return RoleDocument
	case 50032:
		return RoleWindow
	case 50033:
		return RolePane
	default:
		return RoleUnknown
	}
}
