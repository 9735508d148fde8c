// Package input 提供鼠标键盘合成输入（robotgo 封装）
// 当元素不提供原生动作接口时，动作分发器退回到坐标级输入合成。
package input

import (
	"time"

	"github.com/go-vgo/robotgo"
)

// MoveTo 移动鼠标到指定位置
func MoveTo(x, y int) {
	robotgo.Move(x, y)
}

// ClickAt 在指定位置单击左键
func ClickAt(x, y int) error {
	MoveTo(x, y)
	time.Sleep(50 * time.Millisecond) // 短暂延迟确保鼠标到位
	robotgo.Click("left", false)
	return nil
}

// DoubleClickAt 在指定位置双击左键
func DoubleClickAt(x, y int) error {
	MoveTo(x, y)
	time.Sleep(50 * time.Millisecond)
	robotgo.Click("left", true)
	return nil
}

// TypeText 输入文字（向当前焦点元素）
func TypeText(text string) {
	robotgo.TypeStr(text)
}

// KeyTap 按键，可选修饰键
func KeyTap(key string, modifiers ...string) {
	if len(modifiers) > 0 {
		robotgo.KeyTap(key, modifiers)
	} else {
		robotgo.KeyTap(key)
	}
}

// HotKey 组合键（最后一个为主键，前面为修饰键）
func HotKey(keys ...string) {
	if len(keys) == 0 {
		return
	}
	if len(keys) == 1 {
		robotgo.KeyTap(keys[0])
		return
	}
	robotgo.KeyTap(keys[len(keys)-1], keys[:len(keys)-1])
}

// GetMousePosition 获取当前鼠标位置
func GetMousePosition() (int, int) {
	return robotgo.Location()
}
