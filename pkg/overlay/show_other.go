//go:build !windows

package overlay

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/zoeyai/uidriver/internal/logger"
)

// showPlatform 非 Windows 平台暂无屏幕叠加层实现：记录日志，
// 设置 UIDRIVER_HIGHLIGHT_DIR 时把渲染结果落盘 PNG 供人工核对
func showPlatform(f Frame) error {
	logger.Info("高亮: (%d,%d %dx%d) %s",
		f.Rect.X, f.Rect.Y, f.Rect.Width, f.Rect.Height, f.Label)

	if dir := os.Getenv("UIDRIVER_HIGHLIGHT_DIR"); dir != "" {
		if err := saveFrame(dir, f); err != nil {
			logger.Warn("保存高亮图像失败: %v", err)
		}
	}

	time.Sleep(f.Duration)
	return nil
}

func saveFrame(dir string, f Frame) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	name := fmt.Sprintf("highlight_%s.png", time.Now().Format("20060102_150405.000"))
	file, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("创建文件失败: %w", err)
	}
	defer file.Close()

	return png.Encode(file, Render(f))
}
