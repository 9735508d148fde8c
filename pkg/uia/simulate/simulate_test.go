package simulate

import (
	"testing"
	"time"

	"github.com/zoeyai/uidriver/pkg/uia"
)

func TestRootAndWindows(t *testing.T) {
	b := New()
	defer b.Close()

	b.NewWindow(1, "甲")
	b.NewWindow(2, "乙")
	b.NewWindow(1, "丙")

	root, err := b.Root()
	if err != nil {
		t.Fatalf("获取根失败: %v", err)
	}
	attrs, _ := root.Attributes()
	if attrs.Role != uia.RolePane || attrs.Name != "Desktop" {
		t.Errorf("根应为 Pane Desktop, 实际为 %s %q", attrs.Role, attrs.Name)
	}

	wins, err := b.Windows(1)
	if err != nil {
		t.Fatalf("按 PID 取窗口失败: %v", err)
	}
	if len(wins) != 2 {
		t.Fatalf("PID 1 窗口数应为 2, 实际为 %d", len(wins))
	}
	for _, w := range wins {
		if w.PID() != 1 {
			t.Errorf("窗口 PID 应为 1, 实际为 %d", w.PID())
		}
	}
}

func TestDestroyedHandleIsStale(t *testing.T) {
	b := New()
	defer b.Close()

	win := b.NewWindow(1, "应用")
	node := win.Add(uia.RoleButton, "确定", "ok")
	el := node.Element()

	if !el.IsAlive() {
		t.Fatal("销毁前句柄应存活")
	}

	node.Destroy()

	if el.IsAlive() {
		t.Error("销毁后句柄不应存活")
	}
	if _, err := el.Attributes(); !uia.IsStale(err) {
		t.Errorf("销毁后读属性应返回 StaleElementError, 实际为 %v", err)
	}
	if err := el.Click(); !uia.IsStale(err) {
		t.Errorf("销毁后点击应返回 StaleElementError, 实际为 %v", err)
	}
}

func TestDestroySubtree(t *testing.T) {
	b := New()
	defer b.Close()

	win := b.NewWindow(1, "应用")
	pane := win.Add(uia.RolePane, "面板", "")
	child := pane.Add(uia.RoleButton, "确定", "ok")

	// 销毁父节点连带整个子树
	pane.Destroy()
	if child.Element().IsAlive() {
		t.Error("子树应随父节点一起失效")
	}

	children, err := win.Element().Children()
	if err != nil {
		t.Fatalf("取子节点失败: %v", err)
	}
	if len(children) != 0 {
		t.Errorf("已销毁子树不应再被枚举, 实际 %d 个", len(children))
	}
}

func TestAppearAfter(t *testing.T) {
	b := New()
	defer b.Close()

	win := b.NewWindow(1, "应用")
	win.Add(uia.RoleButton, "延迟", "late").AppearAfter(120 * time.Millisecond)

	children, _ := win.Element().Children()
	if len(children) != 0 {
		t.Fatalf("延迟节点不应立即可见, 实际 %d 个", len(children))
	}

	time.Sleep(150 * time.Millisecond)

	children, _ = win.Element().Children()
	if len(children) != 1 {
		t.Errorf("到时后节点应可见, 实际 %d 个", len(children))
	}
}

func TestEditableText(t *testing.T) {
	b := New()
	defer b.Close()

	win := b.NewWindow(1, "应用")
	box := win.Add(uia.RoleTextBox, "输入框", "input")
	btn := win.Add(uia.RoleButton, "按钮", "btn")

	if err := box.Element().SetText("你好"); err != nil {
		t.Fatalf("文本框写入失败: %v", err)
	}
	text, _ := box.Element().Text()
	if text != "你好" {
		t.Errorf("文本应为 你好, 实际为 %q", text)
	}

	// 不可编辑角色拒绝写入
	err := btn.Element().SetText("x")
	if !uia.IsKind(err, uia.KindInvalidOperation) {
		t.Errorf("按钮写入应返回 InvalidOperation, 实际为 %v", err)
	}

	// 无文本内容回退名称
	text, _ = btn.Element().Text()
	if text != "按钮" {
		t.Errorf("无内容时应回退名称, 实际为 %q", text)
	}
}

func TestClosedBackendRejectsCalls(t *testing.T) {
	b := New()
	win := b.NewWindow(1, "应用")
	el := win.Element()

	b.Close()

	_, err := el.Attributes()
	if !uia.IsKind(err, uia.KindAppNotRunning) {
		t.Errorf("关闭后端后调用应返回 ApplicationNotRunning, 实际为 %v", err)
	}
}
