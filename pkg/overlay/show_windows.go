//go:build windows

package overlay

import (
	"image"
	"runtime"
	"syscall"
	"time"
	"unsafe"
)

var (
	user32   = syscall.NewLazyDLL("user32.dll")
	gdi32    = syscall.NewLazyDLL("gdi32.dll")
	kernel32 = syscall.NewLazyDLL("kernel32.dll")

	procRegisterClassExW   = user32.NewProc("RegisterClassExW")
	procCreateWindowExW    = user32.NewProc("CreateWindowExW")
	procDestroyWindow      = user32.NewProc("DestroyWindow")
	procDefWindowProcW     = user32.NewProc("DefWindowProcW")
	procShowWindow         = user32.NewProc("ShowWindow")
	procUpdateLayeredWin   = user32.NewProc("UpdateLayeredWindow")
	procGetDC              = user32.NewProc("GetDC")
	procReleaseDC          = user32.NewProc("ReleaseDC")
	procPeekMessageW       = user32.NewProc("PeekMessageW")
	procTranslateMessage   = user32.NewProc("TranslateMessage")
	procDispatchMessageW   = user32.NewProc("DispatchMessageW")
	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
	procGetModuleHandleW   = kernel32.NewProc("GetModuleHandleW")
)

const (
	wsPopup         = 0x80000000
	wsExLayered     = 0x00080000
	wsExTransparent = 0x00000020
	wsExTopmost     = 0x00000008
	wsExToolWindow  = 0x00000080
	wsExNoActivate  = 0x08000000

	swShowNoActivate = 4
	ulwAlpha         = 0x00000002
	acSrcOver        = 0x00
	acSrcAlpha       = 0x01

	biRGB = 0
)

type wndClassEx struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   syscall.Handle
	Icon       syscall.Handle
	Cursor     syscall.Handle
	Background syscall.Handle
	MenuName   *uint16
	ClassName  *uint16
	IconSm     syscall.Handle
}

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type blendFunction struct {
	BlendOp             byte
	BlendFlags          byte
	SourceConstantAlpha byte
	AlphaFormat         byte
}

type winPoint struct{ X, Y int32 }
type winSize struct{ CX, CY int32 }

type msg struct {
	Hwnd    syscall.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      winPoint
}

var overlayClassRegistered bool

// showPlatform Windows 实现：分层置顶窗口 + 预乘 BGRA 位图
// 窗口不接收输入（WS_EX_TRANSPARENT|WS_EX_NOACTIVATE），持续期满后销毁
func showPlatform(f Frame) error {
	img := Render(f)

	// 分层窗口操作绑定在创建线程上
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	instance, _, _ := procGetModuleHandleW.Call(0)

	className, _ := syscall.UTF16PtrFromString("UIDriverHighlight")
	if !overlayClassRegistered {
		wc := wndClassEx{
			Size:      uint32(unsafe.Sizeof(wndClassEx{})),
			WndProc:   syscall.NewCallback(func(hwnd syscall.Handle, m uint32, wp, lp uintptr) uintptr {
				ret, _, _ := procDefWindowProcW.Call(uintptr(hwnd), uintptr(m), wp, lp)
				return ret
			}),
			Instance:  syscall.Handle(instance),
			ClassName: className,
		}
		procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc)))
		overlayClassRegistered = true
	}

	t := f.Thickness
	x := f.Rect.X - t
	y := f.Rect.Y - t
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	hwnd, _, _ := procCreateWindowExW.Call(
		wsExLayered|wsExTransparent|wsExTopmost|wsExToolWindow|wsExNoActivate,
		uintptr(unsafe.Pointer(className)),
		0,
		wsPopup,
		uintptr(x), uintptr(y), uintptr(w), uintptr(h),
		0, 0, instance, 0,
	)
	if hwnd == 0 {
		return syscall.GetLastError()
	}
	defer procDestroyWindow.Call(hwnd)

	if err := paintLayered(syscall.Handle(hwnd), img, x, y); err != nil {
		return err
	}
	procShowWindow.Call(hwnd, swShowNoActivate)

	// 简易消息泵直到持续期满
	deadline := time.Now().Add(f.Duration)
	var m msg
	for time.Now().Before(deadline) {
		for {
			ret, _, _ := procPeekMessageW.Call(
				uintptr(unsafe.Pointer(&m)), hwnd, 0, 0, 1, // PM_REMOVE
			)
			if ret == 0 {
				break
			}
			procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
			procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
		}
		time.Sleep(10 * time.Millisecond)
	}

	return nil
}

// paintLayered 用预乘 BGRA DIB 更新分层窗口内容
func paintLayered(hwnd syscall.Handle, img *image.RGBA, x, y int) error {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	screenDC, _, _ := procGetDC.Call(0)
	defer procReleaseDC.Call(0, screenDC)

	memDC, _, _ := procCreateCompatibleDC.Call(screenDC)
	defer procDeleteDC.Call(memDC)

	// 负高度：自上而下的 DIB
	hdr := bitmapInfoHeader{
		Size:     uint32(unsafe.Sizeof(bitmapInfoHeader{})),
		Width:    int32(w),
		Height:   -int32(h),
		Planes:   1,
		BitCount: 32,
	}

	var bits unsafe.Pointer
	bitmap, _, _ := procCreateDIBSection.Call(
		memDC,
		uintptr(unsafe.Pointer(&hdr)),
		0, // DIB_RGB_COLORS
		uintptr(unsafe.Pointer(&bits)),
		0, 0,
	)
	if bitmap == 0 || bits == nil {
		return syscall.GetLastError()
	}
	defer procDeleteObject.Call(bitmap)

	old, _, _ := procSelectObject.Call(memDC, bitmap)
	defer procSelectObject.Call(memDC, old)

	// RGBA → 预乘 BGRA
	dst := unsafe.Slice((*byte)(bits), w*h*4)
	src := img.Pix
	for i := 0; i < w*h; i++ {
		r := uint32(src[i*4])
		g := uint32(src[i*4+1])
		b := uint32(src[i*4+2])
		a := uint32(src[i*4+3])
		dst[i*4] = byte(b * a / 255)
		dst[i*4+1] = byte(g * a / 255)
		dst[i*4+2] = byte(r * a / 255)
		dst[i*4+3] = byte(a)
	}

	pos := winPoint{X: int32(x), Y: int32(y)}
	size := winSize{CX: int32(w), CY: int32(h)}
	srcPos := winPoint{}
	blend := blendFunction{
		BlendOp:             acSrcOver,
		SourceConstantAlpha: 255,
		AlphaFormat:         acSrcAlpha,
	}

	ret, _, _ := procUpdateLayeredWin.Call(
		uintptr(hwnd),
		screenDC,
		uintptr(unsafe.Pointer(&pos)),
		uintptr(unsafe.Pointer(&size)),
		memDC,
		uintptr(unsafe.Pointer(&srcPos)),
		0,
		uintptr(unsafe.Pointer(&blend)),
		ulwAlpha,
	)
	if ret == 0 {
		return syscall.GetLastError()
	}
	return nil
}
