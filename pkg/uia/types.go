// Package uia 提供跨平台的无障碍树（Accessibility Tree）元素模型和后端契约。
// 平台适配器分布在 backend_windows.go / backend_linux.go / backend_other.go，
// 树遍历、选择器和模拟后端位于子包中：tree, selector, simulate。
package uia

// Role 元素角色标签
type Role string

// 常用角色（与各平台控件类型的统一映射）
const (
	RoleWindow    Role = "Window"
	RolePane      Role = "Pane"
	RoleTab       Role = "Tab"
	RoleTabItem   Role = "TabItem"
	RoleButton    Role = "Button"
	RoleTextBox   Role = "TextBox"
	RoleText      Role = "Text"
	RoleCheckBox  Role = "CheckBox"
	RoleComboBox  Role = "ComboBox"
	RoleRadio     Role = "RadioButton"
	RoleList      Role = "List"
	RoleListItem  Role = "ListItem"
	RoleMenu      Role = "Menu"
	RoleMenuBar   Role = "MenuBar"
	RoleMenuItem  Role = "MenuItem"
	RoleTree      Role = "Tree"
	RoleTreeItem  Role = "TreeItem"
	RoleDocument  Role = "Document"
	RoleGroup     Role = "Group"
	RoleToolBar   Role = "ToolBar"
	RoleStatusBar Role = "StatusBar"
	RoleHyperlink Role = "Hyperlink"
	RoleImage     Role = "Image"
	RoleSlider    Role = "Slider"
	RoleCustom    Role = "Custom"
	RoleUnknown   Role = "Unknown"
)

// knownRoles 选择器前缀识别表
var knownRoles = map[string]Role{
	"Window":      RoleWindow,
	"Pane":        RolePane,
	"Tab":         RoleTab,
	"TabItem":     RoleTabItem,
	"Button":      RoleButton,
	"TextBox":     RoleTextBox,
	"Text":        RoleText,
	"CheckBox":    RoleCheckBox,
	"ComboBox":    RoleComboBox,
	"RadioButton": RoleRadio,
	"List":        RoleList,
	"ListItem":    RoleListItem,
	"Menu":        RoleMenu,
	"MenuBar":     RoleMenuBar,
	"MenuItem":    RoleMenuItem,
	"Tree":        RoleTree,
	"TreeItem":    RoleTreeItem,
	"Document":    RoleDocument,
	"Group":       RoleGroup,
	"ToolBar":     RoleToolBar,
	"StatusBar":   RoleStatusBar,
	"Hyperlink":   RoleHyperlink,
	"Image":       RoleImage,
	"Slider":      RoleSlider,
	"Custom":      RoleCustom,
}

// ParseRole 将选择器前缀解析为角色标签
// 未识别的前缀返回 (RoleUnknown, false)
func ParseRole(s string) (Role, bool) {
	r, ok := knownRoles[s]
	if !ok {
		return RoleUnknown, false
	}
	return r, true
}

// editableRoles 可接受文本输入的角色
var editableRoles = map[Role]bool{
	RoleTextBox:  true,
	RoleComboBox: true,
	RoleDocument: true,
}

// IsEditable 判断角色是否可接受文本输入
func IsEditable(r Role) bool {
	return editableRoles[r]
}

// Rect 屏幕坐标系下的矩形区域
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty 判断矩形是否为空（零尺寸）
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Center 返回矩形中心点坐标
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Attributes 元素属性快照
// Rect 为 nil 表示元素没有屏幕几何信息（不可见或未渲染）
type Attributes struct {
	Role         Role   `json:"role"`
	Name         string `json:"name"`
	AutomationID string `json:"automation_id"`
	Rect         *Rect  `json:"rect,omitempty"`
	Enabled      bool   `json:"enabled"`
	Visible      bool   `json:"visible"`
}
