package tree

import (
	"fmt"
	"io"
	"strings"

	"github.com/zoeyai/uidriver/pkg/uia"
)

// Dump 将元素子树按缩进文本写入 w（深度优先，便于人工查看结构）
// 每行格式: Role "Name" [nativeid] (x,y wxh) [disabled] [hidden]
func Dump(w io.Writer, root uia.Element, maxDepth int) error {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return dumpNode(w, root, 0, maxDepth)
}

func dumpNode(w io.Writer, el uia.Element, depth, maxDepth int) error {
	attrs, err := el.Attributes()
	if err != nil {
		if uia.IsStale(err) {
			return nil
		}
		return err
	}

	if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), FormatAttributes(attrs)); err != nil {
		return err
	}

	if depth+1 > maxDepth {
		return nil
	}

	children, err := el.Children()
	if err != nil {
		if uia.IsStale(err) {
			return nil
		}
		return err
	}
	for _, c := range children {
		if err := dumpNode(w, c, depth+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}

// FormatAttributes 格式化单个元素属性为一行文本
func FormatAttributes(attrs *uia.Attributes) string {
	var b strings.Builder
	b.WriteString(string(attrs.Role))
	if attrs.Name != "" {
		fmt.Fprintf(&b, " %q", attrs.Name)
	}
	if attrs.AutomationID != "" {
		fmt.Fprintf(&b, " [%s]", attrs.AutomationID)
	}
	if attrs.Rect != nil {
		fmt.Fprintf(&b, " (%d,%d %dx%d)", attrs.Rect.X, attrs.Rect.Y, attrs.Rect.Width, attrs.Rect.Height)
	}
	if !attrs.Enabled {
		b.WriteString(" [disabled]")
	}
	if !attrs.Visible {
		b.WriteString(" [hidden]")
	}
	return b.String()
}
