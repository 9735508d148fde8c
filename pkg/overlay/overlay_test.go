package overlay

import (
	"image/color"
	"testing"
	"time"

	"github.com/zoeyai/uidriver/pkg/uia"
)

func TestNormalizeDefaults(t *testing.T) {
	f := Frame{Rect: uia.Rect{Width: 100, Height: 60}}.normalize()

	if f.Color != DefaultColor {
		t.Errorf("颜色应回退默认值, 实际为 %+v", f.Color)
	}
	if f.Thickness != DefaultThickness {
		t.Errorf("描边宽度应回退默认值, 实际为 %d", f.Thickness)
	}
	if f.Duration != DefaultDuration {
		t.Errorf("持续时间应回退默认值, 实际为 %v", f.Duration)
	}
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	blue := color.RGBA{B: 0xFF, A: 0xFF}
	f := Frame{
		Rect:      uia.Rect{Width: 10, Height: 10},
		Color:     blue,
		Thickness: 5,
		Duration:  2 * time.Second,
	}.normalize()

	if f.Color != blue || f.Thickness != 5 || f.Duration != 2*time.Second {
		t.Errorf("显式配置不应被覆盖: %+v", f)
	}
}

func TestRenderBorder(t *testing.T) {
	f := Frame{
		Rect:      uia.Rect{X: 500, Y: 300, Width: 100, Height: 60},
		Thickness: 3,
	}
	img := Render(f)

	// 图像坐标与屏幕位置无关，尺寸为矩形外扩描边宽度
	b := img.Bounds()
	if b.Dx() != 106 || b.Dy() != 66 {
		t.Fatalf("图像尺寸应为 106x66, 实际为 %dx%d", b.Dx(), b.Dy())
	}

	// 四角落在描边内
	corners := [][2]int{{0, 0}, {105, 0}, {0, 65}, {105, 65}}
	for _, c := range corners {
		got := img.RGBAAt(c[0], c[1])
		if got != DefaultColor {
			t.Errorf("角点 (%d,%d) 应为描边色, 实际为 %+v", c[0], c[1], got)
		}
	}

	// 几何中心透明，不遮挡元素内容
	center := img.RGBAAt(53, 33)
	if center.A != 0 {
		t.Errorf("中心应透明, 实际 alpha=%d", center.A)
	}

	// 描边内侧第一像素透明（无标签时）
	inner := img.RGBAAt(50, 3)
	if inner.A != 0 {
		t.Errorf("描边内侧应透明, 实际为 %+v", inner)
	}
}

func TestRenderLabel(t *testing.T) {
	f := Frame{
		Rect:      uia.Rect{Width: 200, Height: 100},
		Label:     `Button "OK"`,
		Thickness: 3,
	}
	img := Render(f)

	// 标签条紧贴左上描边内侧
	tag := img.RGBAAt(5, 3+labelHeight/2)
	if tag.A == 0 {
		t.Error("标签条区域不应透明")
	}

	// 右下区域仍透明
	b := img.Bounds()
	if img.RGBAAt(b.Dx()-10, b.Dy()-10).A != 0 {
		t.Error("标签外的内部区域应保持透明")
	}
}

func TestRenderLabelSkippedOnSmallRect(t *testing.T) {
	f := Frame{
		Rect:      uia.Rect{Width: 60, Height: 20},
		Label:     "Button",
		Thickness: 3,
	}
	img := Render(f)

	// 矩形太矮时不绘制标签，内部保持透明
	if img.RGBAAt(10, 10).A != 0 {
		t.Error("小矩形不应绘制标签")
	}
}

func TestShowRejectsEmptyRect(t *testing.T) {
	err := Show(Frame{Rect: uia.Rect{X: 10, Y: 10}})
	if !uia.IsKind(err, uia.KindInvalidOperation) {
		t.Errorf("空矩形高亮应返回 InvalidOperation, 实际为 %v", err)
	}
}
