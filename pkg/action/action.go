// Package action 实现对已解析元素的高级动作分发：点击、输入文本、
// 高亮、读取文本/属性。每个动作先做存活与能力前置检查，再翻译为
// 后端原生调用。动作只尝试一次，永不隐式重试（重试只属于解析层），
// 避免 type_text 之类的变更操作被重复提交。
package action

import (
	"fmt"
	"strconv"
	"time"

	"github.com/zoeyai/uidriver/internal/logger"
	"github.com/zoeyai/uidriver/pkg/input"
	"github.com/zoeyai/uidriver/pkg/overlay"
	"github.com/zoeyai/uidriver/pkg/uia"
)

// Input 坐标级输入合成接口（测试中可注入假实现）
type Input interface {
	ClickAt(x, y int) error
	TypeText(text string)
	KeyTap(key string, modifiers ...string)
}

// robotInput 默认实现：robotgo 合成输入
type robotInput struct{}

func (robotInput) ClickAt(x, y int) error { return input.ClickAt(x, y) }
func (robotInput) TypeText(text string)   { input.TypeText(text) }
func (robotInput) KeyTap(key string, modifiers ...string) {
	input.KeyTap(key, modifiers...)
}

// Highlighter 高亮显示函数（测试中可注入以断言调用而不触屏幕）
type Highlighter func(overlay.Frame) error

// Option 配置选项函数类型
type Option func(*Dispatcher)

// WithInput 注入输入合成实现
func WithInput(in Input) Option {
	return func(d *Dispatcher) { d.input = in }
}

// WithHighlighter 注入高亮显示实现
func WithHighlighter(h Highlighter) Option {
	return func(d *Dispatcher) { d.highlight = h }
}

// WithLogger 注入日志记录器
func WithLogger(l *logger.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// Dispatcher 动作分发器
type Dispatcher struct {
	input     Input
	highlight Highlighter
	log       *logger.Logger
}

// New 创建动作分发器
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		input:     robotInput{},
		highlight: overlay.Show,
		log:       logger.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ensureAlive 存活前置检查
// 失效句柄立即返回 KindStale，而不是发起原生调用得到含糊的平台错误
func ensureAlive(el uia.Element) error {
	if !el.IsAlive() {
		return uia.NewError(uia.KindStale, "元素句柄已失效")
	}
	return nil
}

// describe 格式化元素描述用于日志
func describe(attrs *uia.Attributes) string {
	if attrs == nil {
		return "<unknown>"
	}
	if attrs.Name != "" {
		return fmt.Sprintf("%s %q", attrs.Role, attrs.Name)
	}
	if attrs.AutomationID != "" {
		return fmt.Sprintf("%s [%s]", attrs.Role, attrs.AutomationID)
	}
	return string(attrs.Role)
}

// Click 点击元素
// 优先调用原生点击动作；元素不支持时退回到矩形中心的坐标点击
func (d *Dispatcher) Click(el uia.Element) error {
	start := time.Now()

	if err := ensureAlive(el); err != nil {
		d.log.LogAction("click", false, time.Since(start), err.Error())
		return err
	}

	attrs, err := el.Attributes()
	if err != nil {
		d.log.LogAction("click", false, time.Since(start), err.Error())
		return err
	}
	if !attrs.Enabled {
		err := &uia.Error{
			Kind:  uia.KindInvalidOperation,
			Stage: -1,
			Role:  attrs.Role,
			Name:  attrs.Name,
			Msg:   "元素已禁用，无法点击",
		}
		d.log.LogAction("click", false, time.Since(start), err.Error())
		return err
	}

	err = el.Click()
	if uia.IsKind(err, uia.KindInvalidOperation) {
		// 无原生点击能力，退回坐标合成点击
		if attrs.Rect == nil || attrs.Rect.Empty() {
			err := &uia.Error{
				Kind:  uia.KindInvalidOperation,
				Stage: -1,
				Role:  attrs.Role,
				Name:  attrs.Name,
				Msg:   "元素既不支持原生点击也没有屏幕几何",
			}
			d.log.LogAction("click", false, time.Since(start), err.Error())
			return err
		}
		x, y := attrs.Rect.Center()
		err = d.input.ClickAt(x, y)
	}

	d.log.LogAction("click", err == nil, time.Since(start), describe(attrs))
	return err
}

// TypeText 向元素输入文本
// 要求元素角色可接受文本输入；先设置焦点，优先用原生文本接口写入，
// 后端不支持时退回键盘合成输入
func (d *Dispatcher) TypeText(el uia.Element, text string) error {
	start := time.Now()

	if err := ensureAlive(el); err != nil {
		d.log.LogAction("type", false, time.Since(start), err.Error())
		return err
	}

	attrs, err := el.Attributes()
	if err != nil {
		d.log.LogAction("type", false, time.Since(start), err.Error())
		return err
	}
	if !uia.IsEditable(attrs.Role) {
		err := &uia.Error{
			Kind:  uia.KindInvalidOperation,
			Stage: -1,
			Role:  attrs.Role,
			Name:  attrs.Name,
			Msg:   fmt.Sprintf("角色 %s 不接受文本输入", attrs.Role),
		}
		d.log.LogAction("type", false, time.Since(start), err.Error())
		return err
	}

	if err := el.Focus(); err != nil {
		d.log.LogAction("type", false, time.Since(start), err.Error())
		return err
	}

	err = el.SetText(text)
	if uia.IsKind(err, uia.KindInvalidOperation) {
		// 原生文本接口缺失，焦点已就位，合成键盘输入
		d.input.TypeText(text)
		err = nil
	}

	d.log.LogAction("type", err == nil, time.Since(start), describe(attrs))
	return err
}

// PressKey 向元素发送按键（先聚焦再合成按键）
func (d *Dispatcher) PressKey(el uia.Element, key string, modifiers ...string) error {
	start := time.Now()

	if err := ensureAlive(el); err != nil {
		d.log.LogAction("key", false, time.Since(start), err.Error())
		return err
	}
	if err := el.Focus(); err != nil {
		d.log.LogAction("key", false, time.Since(start), err.Error())
		return err
	}

	d.input.KeyTap(key, modifiers...)
	d.log.LogAction("key", true, time.Since(start), key)
	return nil
}

// GetText 读取元素文本
func (d *Dispatcher) GetText(el uia.Element) (string, error) {
	start := time.Now()

	if err := ensureAlive(el); err != nil {
		d.log.LogAction("text", false, time.Since(start), err.Error())
		return "", err
	}

	text, err := el.Text()
	d.log.LogAction("text", err == nil, time.Since(start), text)
	return text, err
}

// GetAttribute 按名称读取元素属性
// 支持: role, name, nativeid, enabled, visible, rect
func (d *Dispatcher) GetAttribute(el uia.Element, name string) (string, error) {
	if err := ensureAlive(el); err != nil {
		return "", err
	}

	attrs, err := el.Attributes()
	if err != nil {
		return "", err
	}

	switch name {
	case "role":
		return string(attrs.Role), nil
	case "name":
		return attrs.Name, nil
	case "nativeid", "automation_id":
		return attrs.AutomationID, nil
	case "enabled":
		return strconv.FormatBool(attrs.Enabled), nil
	case "visible":
		return strconv.FormatBool(attrs.Visible), nil
	case "rect":
		if attrs.Rect == nil {
			return "", nil
		}
		return fmt.Sprintf("%d,%d,%d,%d",
			attrs.Rect.X, attrs.Rect.Y, attrs.Rect.Width, attrs.Rect.Height), nil
	default:
		return "", uia.NewError(uia.KindInvalidOperation, "未知属性: %s", name)
	}
}

// Highlight 高亮元素边界矩形，持续 duration 后移除
// 元素没有屏幕几何时记录警告并跳过（不算错误）；对应用状态无破坏性
func (d *Dispatcher) Highlight(el uia.Element, duration time.Duration) error {
	start := time.Now()

	if err := ensureAlive(el); err != nil {
		d.log.LogAction("highlight", false, time.Since(start), err.Error())
		return err
	}

	attrs, err := el.Attributes()
	if err != nil {
		d.log.LogAction("highlight", false, time.Since(start), err.Error())
		return err
	}

	if attrs.Rect == nil || attrs.Rect.Empty() {
		d.log.Warn("高亮跳过: 元素没有屏幕几何 (%s)", describe(attrs))
		return nil
	}

	frame := overlay.Frame{
		Rect:     *attrs.Rect,
		Label:    describe(attrs),
		Duration: duration,
	}
	err = d.highlight(frame)
	d.log.LogAction("highlight", err == nil, time.Since(start), describe(attrs))
	return err
}
