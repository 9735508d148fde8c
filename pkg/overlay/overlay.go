// Package overlay 提供元素高亮的视觉反馈：在元素边界矩形外绘制
// 短暂的描边框，可附带角色/名称标签。渲染（纯函数）与显示（平台
// 副作用）分离，测试只断言渲染和调用，不依赖真实屏幕输出。
package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"sync"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/zoeyai/uidriver/pkg/uia"
)

// DefaultDuration 默认高亮持续时间
const DefaultDuration = 800 * time.Millisecond

// DefaultThickness 默认描边宽度（像素）
const DefaultThickness = 3

// DefaultColor 默认描边颜色（红色）
var DefaultColor = color.RGBA{R: 0xE5, G: 0x1C, B: 0x23, A: 0xFF}

// Frame 一次高亮请求
type Frame struct {
	Rect      uia.Rect
	Label     string // 可为空；通常为 Role "Name"
	Color     color.RGBA
	Thickness int
	Duration  time.Duration
}

// normalize 填充零值字段
func (f Frame) normalize() Frame {
	if f.Color == (color.RGBA{}) {
		f.Color = DefaultColor
	}
	if f.Thickness <= 0 {
		f.Thickness = DefaultThickness
	}
	if f.Duration <= 0 {
		f.Duration = DefaultDuration
	}
	return f
}

// labelHeight 标签条高度（像素）
const labelHeight = 18

// Render 渲染高亮帧为 RGBA 图像（纯函数，不触屏幕）
// 图像尺寸为元素矩形外扩描边宽度，内部透明；标签绘制在左上角描边内侧
func Render(f Frame) *image.RGBA {
	f = f.normalize()
	t := f.Thickness

	w := f.Rect.Width + 2*t
	h := f.Rect.Height + 2*t
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	// 四条描边
	fill := image.NewUniform(f.Color)
	draw.Draw(img, image.Rect(0, 0, w, t), fill, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, h-t, w, h), fill, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, t, h), fill, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(w-t, 0, w, h), fill, image.Point{}, draw.Src)

	if f.Label != "" && h > labelHeight*2 {
		drawLabel(img, f.Label, t, f.Color)
	}

	return img
}

// drawLabel 在描边内侧绘制标签条
func drawLabel(img *image.RGBA, label string, thickness int, c color.RGBA) {
	labelW := measureLabel(label) + 8
	bounds := img.Bounds()
	if labelW > bounds.Dx()-2*thickness {
		labelW = bounds.Dx() - 2*thickness
	}
	if labelW <= 0 {
		return
	}

	tag := image.Rect(thickness, thickness, thickness+labelW, thickness+labelHeight)
	draw.Draw(img, tag, image.NewUniform(c), image.Point{}, draw.Src)

	white := color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	if ft := loadFont(); ft != nil {
		ctx := freetype.NewContext()
		ctx.SetDPI(72)
		ctx.SetFont(ft)
		ctx.SetFontSize(12)
		ctx.SetClip(tag)
		ctx.SetDst(img)
		ctx.SetSrc(image.NewUniform(white))
		pt := freetype.Pt(tag.Min.X+4, tag.Min.Y+13)
		_, _ = ctx.DrawString(label, pt)
		return
	}

	// 找不到系统字体时用内置位图字体
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(white),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(tag.Min.X+4, tag.Min.Y+13),
	}
	d.DrawString(label)
}

// measureLabel 估算标签宽度
func measureLabel(label string) int {
	if ft := loadFont(); ft != nil {
		// truetype 精确测量开销不值得，按平均字宽估算
		return len(label) * 7
	}
	return font.MeasureString(basicfont.Face7x13, label).Ceil()
}

// ==================== 字体加载 ====================

var (
	fontOnce sync.Once
	sysFont  *truetype.Font
)

// fontCandidates 各平台常见 TTF 路径
var fontCandidates = []string{
	`C:\Windows\Fonts\arial.ttf`,
	`C:\Windows\Fonts\segoeui.ttf`,
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
}

// loadFont 惰性加载系统字体，失败返回 nil（回退位图字体）
func loadFont() *truetype.Font {
	fontOnce.Do(func() {
		for _, path := range fontCandidates {
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			ft, err := freetype.ParseFont(data)
			if err != nil {
				continue
			}
			sysFont = ft
			return
		}
	})
	return sysFont
}

// Show 在屏幕上显示高亮帧，持续 f.Duration 后自动移除
// 对应用状态永远无破坏性；平台实现见 show_windows.go / show_other.go
func Show(f Frame) error {
	f = f.normalize()
	if f.Rect.Empty() {
		return uia.NewError(uia.KindInvalidOperation, "元素没有屏幕几何，无法高亮")
	}
	return showPlatform(f)
}
