package locator

import (
	"testing"
	"time"

	"github.com/zoeyai/uidriver/pkg/uia"
	"github.com/zoeyai/uidriver/pkg/uia/simulate"
)

// backendScope 以模拟后端的桌面根为作用域
type backendScope struct {
	backend *simulate.Backend
}

func (s backendScope) Roots() ([]uia.Element, error) {
	root, err := s.backend.Root()
	if err != nil {
		return nil, err
	}
	return []uia.Element{root}, nil
}

func newBackend(t *testing.T) (*simulate.Backend, Scope) {
	t.Helper()
	backend := simulate.New()
	t.Cleanup(func() { backend.Close() })
	return backend, backendScope{backend: backend}
}

func TestFirstImmediateHit(t *testing.T) {
	backend, scope := newBackend(t)
	win := backend.NewWindow(1, "应用")
	win.Add(uia.RoleButton, "确定", "ok")

	loc, err := Parse(scope, "Button:确定")
	if err != nil {
		t.Fatalf("创建定位器失败: %v", err)
	}

	start := time.Now()
	el, err := loc.First()
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("定位失败: %v", err)
	}

	attrs, _ := el.Attributes()
	if attrs.AutomationID != "ok" {
		t.Errorf("命中元素应为 ok, 实际为 %s", attrs.AutomationID)
	}
	// 立即命中不应进入睡眠路径
	if elapsed >= DefaultPollInterval {
		t.Errorf("立即命中耗时 %v, 不应达到轮询间隔", elapsed)
	}
}

func TestFirstZeroTimeoutSingleAttempt(t *testing.T) {
	_, scope := newBackend(t)

	loc, err := Parse(scope, "Button:不存在", WithTimeout(0))
	if err != nil {
		t.Fatalf("创建定位器失败: %v", err)
	}

	start := time.Now()
	_, err = loc.First()
	elapsed := time.Since(start)

	if !uia.IsNoMatch(err) {
		t.Fatalf("应返回 ElementNotFound, 实际为 %v", err)
	}
	// 超时 0 表示单次尝试，不睡眠
	if elapsed >= DefaultPollInterval {
		t.Errorf("单次尝试耗时 %v, 不应进入轮询", elapsed)
	}
	t.Logf("单次尝试错误: %v", err)
}

func TestFirstWaitsForDelayedElement(t *testing.T) {
	backend, scope := newBackend(t)
	win := backend.NewWindow(1, "应用")
	win.Add(uia.RoleButton, "稍后出现", "late").AppearAfter(150 * time.Millisecond)

	loc, err := Parse(scope, "Button:稍后出现",
		WithTimeout(2*time.Second), WithPollInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("创建定位器失败: %v", err)
	}

	start := time.Now()
	el, err := loc.First()
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("延迟元素定位失败: %v", err)
	}

	attrs, _ := el.Attributes()
	if attrs.AutomationID != "late" {
		t.Errorf("命中元素应为 late, 实际为 %s", attrs.AutomationID)
	}
	if elapsed < 100*time.Millisecond {
		t.Errorf("元素 150ms 后才出现, 定位耗时 %v 过短", elapsed)
	}
	t.Logf("延迟定位耗时: %v", elapsed)
}

func TestFirstTimeoutBudget(t *testing.T) {
	_, scope := newBackend(t)

	timeout := 200 * time.Millisecond
	loc, err := Parse(scope, "Button:永不出现",
		WithTimeout(timeout), WithPollInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("创建定位器失败: %v", err)
	}

	start := time.Now()
	_, err = loc.First()
	elapsed := time.Since(start)

	if !uia.IsNoMatch(err) {
		t.Fatalf("应返回 ElementNotFound, 实际为 %v", err)
	}
	if elapsed < timeout {
		t.Errorf("应至少重试到超时 %v, 实际 %v", timeout, elapsed)
	}
	if elapsed > timeout+500*time.Millisecond {
		t.Errorf("超时后应尽快返回, 实际 %v", elapsed)
	}

	e := err.(*uia.Error)
	if e.Selector != "Button:永不出现" {
		t.Errorf("错误应携带选择器文本, 实际为 %q", e.Selector)
	}
}

func TestAllStableOrder(t *testing.T) {
	backend, scope := newBackend(t)
	win := backend.NewWindow(1, "应用")
	win.Add(uia.RoleButton, "项", "b1")
	win.Add(uia.RoleButton, "项", "b2")
	win.Add(uia.RoleButton, "项", "b3")

	loc, err := Parse(scope, "Button:项")
	if err != nil {
		t.Fatalf("创建定位器失败: %v", err)
	}

	// 同一树快照下多次求值结果顺序应一致
	var prev []string
	for i := 0; i < 3; i++ {
		els, err := loc.All()
		if err != nil {
			t.Fatalf("第 %d 次求值失败: %v", i, err)
		}
		ids := make([]string, len(els))
		for j, el := range els {
			attrs, _ := el.Attributes()
			ids[j] = attrs.AutomationID
		}
		if prev != nil {
			for j := range ids {
				if ids[j] != prev[j] {
					t.Errorf("第 %d 次顺序漂移: %v vs %v", i, ids, prev)
					break
				}
			}
		}
		prev = ids
	}

	if len(prev) != 3 || prev[0] != "b1" || prev[1] != "b2" || prev[2] != "b3" {
		t.Errorf("顺序应为 [b1 b2 b3], 实际为 %v", prev)
	}
}

func TestLocatorChaining(t *testing.T) {
	backend, scope := newBackend(t)
	win := backend.NewWindow(1, "设置")
	pane := win.Add(uia.RolePane, "常规", "")
	pane.Add(uia.RoleButton, "确定", "ok")
	other := win.Add(uia.RolePane, "高级", "")
	other.Add(uia.RoleButton, "确定", "okAdvanced")

	parent, err := Parse(scope, "Pane:常规")
	if err != nil {
		t.Fatalf("创建父定位器失败: %v", err)
	}
	child, err := parent.Locator("Button:确定")
	if err != nil {
		t.Fatalf("创建子定位器失败: %v", err)
	}

	el, err := child.First()
	if err != nil {
		t.Fatalf("链式定位失败: %v", err)
	}
	attrs, _ := el.Attributes()
	if attrs.AutomationID != "ok" {
		t.Errorf("子定位器应只在父匹配子树内搜索, 实际命中 %s", attrs.AutomationID)
	}
}

func TestLocatorChainReResolvesParent(t *testing.T) {
	backend, scope := newBackend(t)
	win := backend.NewWindow(1, "设置")
	stale := win.Add(uia.RolePane, "常规", "")
	stale.Add(uia.RoleButton, "确定", "oldOK")

	parent, err := Parse(scope, "Pane:常规",
		WithTimeout(2*time.Second), WithPollInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("创建父定位器失败: %v", err)
	}
	child, err := parent.Locator("Button:确定")
	if err != nil {
		t.Fatalf("创建子定位器失败: %v", err)
	}

	// 首次解析
	if _, err := child.First(); err != nil {
		t.Fatalf("首次定位失败: %v", err)
	}

	// 旧 Pane 被销毁重建: 定位器不持有旧句柄，应命中新子树
	stale.Destroy()
	rebuilt := win.Add(uia.RolePane, "常规", "")
	rebuilt.Add(uia.RoleButton, "确定", "newOK")

	el, err := child.First()
	if err != nil {
		t.Fatalf("重建后定位失败: %v", err)
	}
	attrs, _ := el.Attributes()
	if attrs.AutomationID != "newOK" {
		t.Errorf("应命中重建后的按钮 newOK, 实际为 %s", attrs.AutomationID)
	}
}

func TestElementScopeStale(t *testing.T) {
	backend, _ := newBackend(t)
	win := backend.NewWindow(1, "应用")
	pane := win.Add(uia.RolePane, "面板", "")
	pane.Add(uia.RoleButton, "确定", "ok")

	scope := ElementScope(pane.Element())
	loc, err := Parse(scope, "Button:确定", WithTimeout(0))
	if err != nil {
		t.Fatalf("创建定位器失败: %v", err)
	}

	if _, err := loc.First(); err != nil {
		t.Fatalf("销毁前定位失败: %v", err)
	}

	// 作用域元素失效后，单次尝试应以 ElementNotFound 收场而不是卡死
	pane.Destroy()
	_, err = loc.First()
	if !uia.IsNoMatch(err) {
		t.Errorf("失效作用域下应返回 ElementNotFound, 实际为 %v", err)
	}
}

func TestOptionsInheritance(t *testing.T) {
	_, scope := newBackend(t)

	parent, err := Parse(scope, "Pane:面板", WithTimeout(0), WithMaxDepth(7))
	if err != nil {
		t.Fatalf("创建父定位器失败: %v", err)
	}

	// 未显式指定配置的子定位器继承父配置
	child, err := parent.Locator("Button:确定")
	if err != nil {
		t.Fatalf("创建子定位器失败: %v", err)
	}
	if child.opts.Timeout != 0 || child.opts.MaxDepth != 7 {
		t.Errorf("子定位器应继承父配置, 实际为 %+v", child.opts)
	}

	// 显式配置覆盖继承
	override, err := parent.Locator("Button:确定", WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("创建子定位器失败: %v", err)
	}
	if override.opts.Timeout != time.Second {
		t.Errorf("显式配置应覆盖继承, 实际为 %v", override.opts.Timeout)
	}
}

func TestApplyOptions(t *testing.T) {
	base := DefaultOptions()
	o := ApplyOptions(base, WithTimeout(time.Second), WithPollInterval(-1))

	if o.Timeout != time.Second {
		t.Errorf("Timeout 应为 1s, 实际为 %v", o.Timeout)
	}
	// 非法轮询间隔回退默认值
	if o.PollInterval != DefaultPollInterval {
		t.Errorf("非法轮询间隔应回退默认值, 实际为 %v", o.PollInterval)
	}
	// 原配置不被修改
	if base.Timeout != DefaultTimeout {
		t.Errorf("基础配置不应被修改, 实际为 %v", base.Timeout)
	}
}
