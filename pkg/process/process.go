// Package process 提供目标应用的进程管理：启动、查找、存活检查、终止
package process

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-vgo/robotgo"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/zoeyai/uidriver/pkg/cmdutil"
)

// Info 进程信息
type Info struct {
	PID  int    `json:"pid"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// Launch 启动目标应用，返回其进程 ID
// 只负责拉起进程；等待主窗口就绪由 desktop 包的轮询完成
func Launch(path string, args ...string) (int, error) {
	cmd := exec.Command(path, args...)
	cmdutil.HideWindow(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("启动应用失败: %w", err)
	}

	pid := cmd.Process.Pid

	// 释放子进程，目标应用独立于本进程运行
	go func() { _ = cmd.Wait() }()

	return pid, nil
}

// Find 按名称查找进程 (不区分大小写，支持部分匹配)
func Find(name string) ([]Info, error) {
	pids, err := process.Pids()
	if err != nil {
		return nil, fmt.Errorf("获取进程列表失败: %w", err)
	}

	name = strings.ToLower(name)
	var matches []Info

	for _, pid := range pids {
		proc, err := process.NewProcess(pid)
		if err != nil {
			continue
		}

		procName, err := proc.Name()
		if err != nil {
			continue
		}

		if strings.Contains(strings.ToLower(procName), name) {
			exe, _ := proc.Exe()
			matches = append(matches, Info{
				PID:  int(pid),
				Name: procName,
				Path: exe,
			})
		}
	}

	return matches, nil
}

// ByPID 按 PID 获取进程信息
func ByPID(pid int) (*Info, error) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("进程不存在: PID=%d", pid)
	}

	name, _ := proc.Name()
	exe, _ := proc.Exe()

	return &Info{
		PID:  pid,
		Name: name,
		Path: exe,
	}, nil
}

// IsRunning 检查进程是否正在运行
func IsRunning(pid int) bool {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	running, err := proc.IsRunning()
	if err != nil {
		return false
	}
	return running
}

// Kill 终止进程
func Kill(pid int) error {
	return robotgo.Kill(pid)
}

// FindPIDsByName 按名称查找进程 PID
func FindPIDsByName(name string) ([]int, error) {
	pids, err := robotgo.FindIds(name)
	if err != nil {
		return nil, fmt.Errorf("查找进程失败: %w", err)
	}
	return pids, nil
}
