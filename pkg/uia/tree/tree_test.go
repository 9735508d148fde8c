package tree

import (
	"strings"
	"testing"

	"github.com/zoeyai/uidriver/pkg/uia"
	"github.com/zoeyai/uidriver/pkg/uia/simulate"
)

// buildTree 构造测试树:
//
//	Desktop
//	└── Window "主窗口"
//	    ├── Pane "A"
//	    │   └── Button "深层按钮"
//	    └── Button "浅层按钮"
func buildTree(t *testing.T) (*simulate.Backend, uia.Element) {
	t.Helper()

	backend := simulate.New()
	t.Cleanup(func() { backend.Close() })

	win := backend.NewWindow(1, "主窗口")
	pane := win.Add(uia.RolePane, "A", "")
	pane.Add(uia.RoleButton, "深层按钮", "deep")
	win.Add(uia.RoleButton, "浅层按钮", "shallow")

	root, err := backend.Root()
	if err != nil {
		t.Fatalf("获取根元素失败: %v", err)
	}
	return backend, root
}

func TestDescendantsMatchingBreadthFirst(t *testing.T) {
	_, root := buildTree(t)

	// 广度优先: 浅层按钮虽然在树中靠后，但深度更小，应排在前面
	matches, err := DescendantsMatching(root, func(a *uia.Attributes) bool {
		return a.Role == uia.RoleButton
	}, 0)
	if err != nil {
		t.Fatalf("遍历失败: %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("匹配数应为 2, 实际为 %d", len(matches))
	}

	first, _ := matches[0].Attributes()
	second, _ := matches[1].Attributes()
	if first.Name != "浅层按钮" || second.Name != "深层按钮" {
		t.Errorf("广度优先顺序错误: [%s, %s]", first.Name, second.Name)
	}
}

func TestDescendantsMatchingExcludesRoot(t *testing.T) {
	_, root := buildTree(t)

	// 谓词恒真时也不应包含 root 自身
	matches, err := DescendantsMatching(root, func(a *uia.Attributes) bool {
		return true
	}, 0)
	if err != nil {
		t.Fatalf("遍历失败: %v", err)
	}

	for _, m := range matches {
		attrs, _ := m.Attributes()
		if attrs.Name == "Desktop" {
			t.Error("结果不应包含 root 自身")
		}
	}
	if len(matches) != 4 {
		t.Errorf("匹配数应为 4, 实际为 %d", len(matches))
	}
}

func TestDescendantsMatchingDepthLimit(t *testing.T) {
	_, root := buildTree(t)

	pred := func(a *uia.Attributes) bool { return a.Role == uia.RoleButton }

	// 深度 2 只覆盖 Window 和它的直接子节点
	matches, err := DescendantsMatching(root, pred, 2)
	if err != nil {
		t.Fatalf("遍历失败: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("限深 2 匹配数应为 1, 实际为 %d", len(matches))
	}
	attrs, _ := matches[0].Attributes()
	if attrs.Name != "浅层按钮" {
		t.Errorf("限深命中应为 浅层按钮, 实际为 %s", attrs.Name)
	}
}

func TestDescendantsMatchingSkipsDestroyed(t *testing.T) {
	backend := simulate.New()
	defer backend.Close()

	win := backend.NewWindow(1, "主窗口")
	gone := win.Add(uia.RolePane, "将销毁", "")
	gone.Add(uia.RoleButton, "里面的按钮", "")
	win.Add(uia.RoleButton, "幸存按钮", "")

	gone.Destroy()

	root, _ := backend.Root()
	matches, err := DescendantsMatching(root, func(a *uia.Attributes) bool {
		return a.Role == uia.RoleButton
	}, 0)
	if err != nil {
		t.Fatalf("遍历失败: %v", err)
	}

	if len(matches) != 1 {
		t.Fatalf("已销毁子树应被跳过, 实际匹配 %d 个", len(matches))
	}
	attrs, _ := matches[0].Attributes()
	if attrs.Name != "幸存按钮" {
		t.Errorf("命中应为 幸存按钮, 实际为 %s", attrs.Name)
	}
}

func TestChildrenOf(t *testing.T) {
	_, root := buildTree(t)

	children, err := ChildrenOf(root)
	if err != nil {
		t.Fatalf("获取子节点失败: %v", err)
	}
	if len(children) != 1 {
		t.Fatalf("桌面下应有 1 个窗口, 实际为 %d", len(children))
	}

	attrs, _ := children[0].Attributes()
	if attrs.Role != uia.RoleWindow || attrs.Name != "主窗口" {
		t.Errorf("子节点应为 Window 主窗口, 实际为 %s %q", attrs.Role, attrs.Name)
	}
}

func TestDump(t *testing.T) {
	backend := simulate.New()
	defer backend.Close()

	win := backend.NewWindow(1, "设置")
	win.Add(uia.RoleButton, "确定", "okButton").SetRect(10, 20, 80, 30)
	win.Add(uia.RoleButton, "取消", "").SetEnabled(false)

	root, _ := backend.Root()

	var buf strings.Builder
	if err := Dump(&buf, root, 0); err != nil {
		t.Fatalf("输出失败: %v", err)
	}

	out := buf.String()
	t.Logf("树输出:\n%s", out)

	wantLines := []string{
		`Pane "Desktop"`,
		`  Window "设置"`,
		`    Button "确定" [okButton] (10,20 80x30)`,
		`    Button "取消" [disabled]`,
	}
	gotLines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(gotLines) != len(wantLines) {
		t.Fatalf("行数应为 %d, 实际为 %d", len(wantLines), len(gotLines))
	}
	for i, want := range wantLines {
		if gotLines[i] != want {
			t.Errorf("第 %d 行不匹配:\n期望 %q\n实际 %q", i, want, gotLines[i])
		}
	}
}

func TestFormatAttributes(t *testing.T) {
	tests := []struct {
		name  string
		attrs uia.Attributes
		want  string
	}{
		{
			"完整属性",
			uia.Attributes{Role: uia.RoleButton, Name: "确定", AutomationID: "ok",
				Rect: &uia.Rect{X: 1, Y: 2, Width: 3, Height: 4}, Enabled: true, Visible: true},
			`Button "确定" [ok] (1,2 3x4)`,
		},
		{
			"仅角色",
			uia.Attributes{Role: uia.RoleGroup, Enabled: true, Visible: true},
			"Group",
		},
		{
			"禁用且隐藏",
			uia.Attributes{Role: uia.RoleButton, Name: "x"},
			`Button "x" [disabled] [hidden]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatAttributes(&tt.attrs)
			if got != tt.want {
				t.Errorf("期望 %q, 实际 %q", tt.want, got)
			}
		})
	}
}
