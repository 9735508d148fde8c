package selector

import (
	"github.com/zoeyai/uidriver/pkg/uia"
	"github.com/zoeyai/uidriver/pkg/uia/tree"
)

// Resolve 将选择器逐阶段求值，返回叶子阶段的全部匹配元素
//
// 实现为对"前沿集合"的迭代式逐阶段过滤，不做递归回溯：每个阶段在
// 上一阶段全部匹配元素的子树内按任意后代语义搜索（而不是仅直接
// 子节点），多个匹配各自独立展开后续链。结果保持树的自上而下、
// 从左到右确定顺序，并按 RuntimeID 去重（嵌套前沿可能重复命中
// 同一元素）。
//
// 零匹配返回空切片而非错误；调用方（Locator）在重试预算耗尽后
// 负责产生 ElementNotFound。平台错误原样上抛。
func Resolve(roots []uia.Element, sel *Selector, maxDepth int) ([]uia.Element, error) {
	frontier := roots

	for _, stage := range sel.Stages() {
		if len(frontier) == 0 {
			return nil, nil
		}

		st := stage
		pred := func(attrs *uia.Attributes) bool { return st.Matches(attrs) }

		var next []uia.Element
		seen := make(map[string]bool)

		for _, scope := range frontier {
			matches, err := tree.DescendantsMatching(scope, pred, maxDepth)
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				id := m.RuntimeID()
				if id != "" {
					if seen[id] {
						continue
					}
					seen[id] = true
				}
				next = append(next, m)
			}
		}
		frontier = next
	}

	return frontier, nil
}

// ResolveOne 求值并返回首个匹配（确定顺序下的第一个）
// 无匹配时返回 KindNoMatch 错误
func ResolveOne(roots []uia.Element, sel *Selector, maxDepth int) (uia.Element, error) {
	matches, err := Resolve(roots, sel, maxDepth)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, &uia.Error{
			Kind:     uia.KindNoMatch,
			Selector: sel.Raw(),
			Stage:    len(sel.Stages()) - 1,
			Msg:      "选择器无匹配元素",
		}
	}
	return matches[0], nil
}
