// Package window 提供顶层窗口的查找与激活（robotgo 封装）
// 无障碍树的元素枚举在 uia 包；这里只处理窗口级的前台切换和
// 标题到进程的映射，供 desktop 按标题附加使用。
package window

import (
	"fmt"
	"strings"

	"github.com/go-vgo/robotgo"
)

// Info 窗口信息
type Info struct {
	PID   int    `json:"pid"`
	Title string `json:"title"`
	Owner string `json:"owner"`
}

// List 获取窗口列表，filter 按标题/应用名部分匹配（不区分大小写）
func List(filter ...string) ([]Info, error) {
	pids, err := robotgo.Pids()
	if err != nil {
		return nil, fmt.Errorf("获取进程列表失败: %w", err)
	}

	filterStr := ""
	if len(filter) > 0 {
		filterStr = strings.ToLower(filter[0])
	}

	var windows []Info
	for _, pid := range pids {
		title := robotgo.GetTitle(pid)
		if title == "" {
			continue
		}

		name, _ := robotgo.FindName(pid)
		if filterStr != "" {
			if !strings.Contains(strings.ToLower(title), filterStr) &&
				!strings.Contains(strings.ToLower(name), filterStr) {
				continue
			}
		}

		windows = append(windows, Info{
			PID:   pid,
			Title: title,
			Owner: name,
		})
	}

	return windows, nil
}

// ByTitle 按标题查找窗口 (部分匹配)
func ByTitle(title string) (*Info, error) {
	windows, err := List(title)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("未找到标题包含 %q 的窗口", title)
	}
	return &windows[0], nil
}

// ActivateByPID 将指定进程的窗口置于前台
func ActivateByPID(pid int) error {
	if err := robotgo.ActivePid(pid); err != nil {
		return fmt.Errorf("激活窗口失败: %w", err)
	}
	return nil
}

// ActiveTitle 获取当前活动窗口标题
func ActiveTitle() string {
	return robotgo.GetTitle()
}
