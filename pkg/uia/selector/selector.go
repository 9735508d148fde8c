// Package selector 实现选择器 DSL 的解析与求值。
//
// 语法: Stage[/Stage]*，Stage := Prefix:Value | Value
//   - 前缀为已知角色标签（Pane, TabItem, Button, ...）时按角色过滤，
//     冒号后的值（可为空）要求名称精确匹配
//   - 前缀 nativeid 按平台自动化 ID 精确匹配
//   - 无可识别前缀的裸值在任意角色上按可见名称精确匹配
//
// 匹配区分大小写，不支持通配/正则。阶段按严格的祖先→后代路径组合：
// 第 i+1 阶段只在第 i 阶段匹配元素的子树内搜索。
package selector

import (
	"strings"

	"github.com/zoeyai/uidriver/pkg/uia"
)

// 路径分隔符与前缀分隔符
const (
	stageSeparator  = "/"
	prefixSeparator = ":"
)

// nativeIDPrefix 自动化 ID 过滤前缀
const nativeIDPrefix = "nativeid"

// StageKind 阶段类别
type StageKind int

const (
	// StageRole 角色过滤（可附带名称精确匹配）
	StageRole StageKind = iota + 1
	// StageNativeID 平台自动化 ID 精确匹配
	StageNativeID
	// StageName 任意角色下的名称精确匹配
	StageName
)

// Stage 单个选择器阶段
type Stage struct {
	Kind  StageKind
	Role  uia.Role // 仅 StageRole
	Value string   // 名称或自动化 ID；StageRole 下为空表示仅按角色过滤
	Raw   string   // 原始阶段文本
}

// Matches 判断属性快照是否满足本阶段
func (s Stage) Matches(attrs *uia.Attributes) bool {
	switch s.Kind {
	case StageRole:
		if attrs.Role != s.Role {
			return false
		}
		return s.Value == "" || attrs.Name == s.Value
	case StageNativeID:
		return attrs.AutomationID == s.Value
	case StageName:
		return attrs.Name == s.Value
	default:
		return false
	}
}

// String 重新序列化阶段文本
func (s Stage) String() string {
	switch s.Kind {
	case StageRole:
		if s.Value == "" {
			return string(s.Role) + prefixSeparator
		}
		return string(s.Role) + prefixSeparator + s.Value
	case StageNativeID:
		return nativeIDPrefix + prefixSeparator + s.Value
	default:
		return s.Value
	}
}

// Selector 解析后的选择器（不可变）
// 同一树快照下匹配结果是纯函数：相同输入必然产生相同结果集
type Selector struct {
	stages []Stage
	raw    string
}

// Parse 解析选择器字符串
// 语法错误返回 KindParse 错误，携带阶段序号和原始阶段文本
func Parse(s string) (*Selector, error) {
	if strings.TrimSpace(s) == "" {
		return nil, &uia.Error{
			Kind:     uia.KindParse,
			Selector: s,
			Stage:    0,
			Msg:      "选择器为空",
		}
	}

	parts := strings.Split(s, stageSeparator)
	stages := make([]Stage, 0, len(parts))

	for i, part := range parts {
		if part == "" {
			return nil, &uia.Error{
				Kind:     uia.KindParse,
				Selector: s,
				Stage:    i,
				Msg:      "阶段为空（连续或首尾的路径分隔符）",
			}
		}

		stages = append(stages, parseStage(part))
	}

	return &Selector{stages: stages, raw: s}, nil
}

// parseStage 解析单个阶段
// 含未识别前缀的文本整体按名称匹配处理（"裸值"语义）
func parseStage(part string) Stage {
	idx := strings.Index(part, prefixSeparator)
	if idx < 0 {
		return Stage{Kind: StageName, Value: part, Raw: part}
	}

	prefix := part[:idx]
	value := part[idx+1:]

	if prefix == nativeIDPrefix {
		return Stage{Kind: StageNativeID, Value: value, Raw: part}
	}
	if role, ok := uia.ParseRole(prefix); ok {
		return Stage{Kind: StageRole, Role: role, Value: value, Raw: part}
	}
	return Stage{Kind: StageName, Value: part, Raw: part}
}

// Stages 返回阶段列表（调用方不得修改）
func (s *Selector) Stages() []Stage {
	return s.stages
}

// Raw 返回原始选择器文本
func (s *Selector) Raw() string {
	return s.raw
}

// String 重新序列化选择器
// 满足 Parse(sel.String()) 与 sel 等价（阶段前缀规整化后幂等）
func (s *Selector) String() string {
	parts := make([]string, len(s.stages))
	for i, st := range s.stages {
		parts[i] = st.String()
	}
	return strings.Join(parts, stageSeparator)
}
