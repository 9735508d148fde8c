// Package tree 提供无障碍树的惰性遍历视图。
// UI 树持续变化，因此每次查询都重新向后端取子节点，不做跨调用缓存。
package tree

import (
	"github.com/zoeyai/uidriver/pkg/uia"
)

// DefaultMaxDepth 默认遍历深度上限
// 限深用于约束深层嵌套树的最坏遍历开销，到达上限只是停止展开，不是错误
const DefaultMaxDepth = 50

// Predicate 元素匹配谓词
type Predicate func(*uia.Attributes) bool

// ChildrenOf 返回元素的直接子节点（原生枚举顺序）
func ChildrenOf(el uia.Element) ([]uia.Element, error) {
	return el.Children()
}

// DescendantsMatching 广度优先搜索 root 子树中满足谓词的元素
//
// 广度优先保证浅层常见匹配的延迟有界，且多个同名元素的结果顺序
// 确定：自上而下、从左到右（后端枚举顺序即原生 z/遍历顺序）。
// root 自身不参与匹配。maxDepth <= 0 时使用 DefaultMaxDepth。
//
// 遍历期间失效的中间节点（树在变化）会被跳过；平台级错误原样上抛，
// 不会被掩盖成"未找到"。
func DescendantsMatching(root uia.Element, pred Predicate, maxDepth int) ([]uia.Element, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	type entry struct {
		el    uia.Element
		depth int
	}

	var matches []uia.Element
	queue := []entry{{el: root, depth: 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= maxDepth {
			continue
		}

		children, err := cur.el.Children()
		if err != nil {
			if uia.IsStale(err) {
				// 节点在遍历期间被销毁，子树按不存在处理
				continue
			}
			return nil, err
		}

		for _, c := range children {
			attrs, err := c.Attributes()
			if err != nil {
				if uia.IsStale(err) {
					continue
				}
				return nil, err
			}
			if pred(attrs) {
				matches = append(matches, c)
			}
			queue = append(queue, entry{el: c, depth: cur.depth + 1})
		}
	}

	return matches, nil
}
