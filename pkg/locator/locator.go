package locator

import (
	"time"

	"github.com/zoeyai/uidriver/internal/logger"
	"github.com/zoeyai/uidriver/pkg/uia"
	"github.com/zoeyai/uidriver/pkg/uia/selector"
)

// Scope 定位的根作用域
// 每次轮询都重新取根元素，以保证作用域自身（应用窗口、父定位器的
// 匹配结果）也是实时解析的。
type Scope interface {
	// Roots 返回作用域当前的根元素集合
	Roots() ([]uia.Element, error)
}

// elementScope 以单个已解析元素为作用域
type elementScope struct {
	el uia.Element
}

func (s elementScope) Roots() ([]uia.Element, error) {
	if !s.el.IsAlive() {
		return nil, uia.NewError(uia.KindStale, "作用域元素已失效")
	}
	return []uia.Element{s.el}, nil
}

// ElementScope 将单个元素包装为作用域
func ElementScope(el uia.Element) Scope {
	return elementScope{el: el}
}

// Locator 延迟解析的元素定位句柄
//
// 不绑定具体的已解析元素：每次动作都重新运行选择器求值，因为两次
// 调用之间引擎的其他动作可能已经改变了树。空匹配集是合法的值，
// 直到对其发起动作（First/All 超时后无匹配）才构成错误。
type Locator struct {
	scope Scope
	sel   *selector.Selector
	opts  *Options
}

// New 创建定位器
func New(scope Scope, sel *selector.Selector, opts ...Option) *Locator {
	return &Locator{
		scope: scope,
		sel:   sel,
		opts:  ApplyOptions(DefaultOptions(), opts...),
	}
}

// Parse 解析选择器字符串并创建定位器
func Parse(scope Scope, sel string, opts ...Option) (*Locator, error) {
	parsed, err := selector.Parse(sel)
	if err != nil {
		return nil, err
	}
	return New(scope, parsed, opts...), nil
}

// Selector 返回定位器的选择器
func (l *Locator) Selector() *selector.Selector {
	return l.sel
}

// Locator 创建以本定位器匹配结果为作用域的子定位器（链式定位）
// 子定位器每次解析时会先重新解析父链
func (l *Locator) Locator(sub string, opts ...Option) (*Locator, error) {
	parsed, err := selector.Parse(sub)
	if err != nil {
		return nil, err
	}
	child := New(l, parsed, opts...)
	if len(opts) == 0 {
		child.opts = l.opts
	}
	return child, nil
}

// Roots 实现 Scope：单次解析本定位器的全部匹配，作为子定位器的根集合
func (l *Locator) Roots() ([]uia.Element, error) {
	roots, err := l.scope.Roots()
	if err != nil {
		return nil, err
	}
	return selector.Resolve(roots, l.sel, l.opts.MaxDepth)
}

// resolveOnce 单次求值
func (l *Locator) resolveOnce(o *Options) ([]uia.Element, error) {
	roots, err := l.scope.Roots()
	if err != nil {
		return nil, err
	}
	return selector.Resolve(roots, l.sel, o.MaxDepth)
}

// resolve 带重试预算的求值循环
//
// 按固定短间隔轮询选择器求值，直到出现至少一个匹配或超时。重试只
// 作用于解析（树在变化），动作永不重试。Timeout 为 0 时只尝试一次，
// 立即命中的调用不进入睡眠路径。平台/权限错误立即上抛，不会被
// 当作"暂未匹配"继续轮询。
func (l *Locator) resolve(o *Options) ([]uia.Element, error) {
	start := time.Now()
	for {
		matches, err := l.resolveOnce(o)
		if err != nil {
			switch uia.ErrorKind(err) {
			case uia.KindStale, uia.KindNoMatch:
				// 作用域或中间元素暂时失效：树可能正在重建，留给重试
			default:
				return nil, err
			}
		}
		if len(matches) > 0 {
			logger.Debug("定位命中: %q -> %d 个匹配 (%.1fms)",
				l.sel.Raw(), len(matches), float64(time.Since(start).Microseconds())/1000)
			return matches, nil
		}

		if o.Timeout == 0 || time.Since(start) >= o.Timeout {
			return nil, &uia.Error{
				Kind:     uia.KindNoMatch,
				Selector: l.sel.Raw(),
				Stage:    len(l.sel.Stages()) - 1,
				Msg:      "重试预算耗尽后仍无匹配元素",
			}
		}

		time.Sleep(o.PollInterval)
	}
}

// First 解析并返回确定顺序下的首个匹配元素
// 超时后没有任何匹配时返回 KindNoMatch (ElementNotFound)
func (l *Locator) First(opts ...Option) (uia.Element, error) {
	o := ApplyOptions(l.opts, opts...)
	matches, err := l.resolve(o)
	if err != nil {
		return nil, err
	}
	return matches[0], nil
}

// All 解析并返回全部匹配元素（自上而下、从左到右的稳定顺序）
// 超时后没有任何匹配时返回 KindNoMatch
func (l *Locator) All(opts ...Option) ([]uia.Element, error) {
	o := ApplyOptions(l.opts, opts...)
	return l.resolve(o)
}
