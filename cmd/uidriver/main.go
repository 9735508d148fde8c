package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/zoeyai/uidriver/internal/logger"
	"github.com/zoeyai/uidriver/pkg/action"
	"github.com/zoeyai/uidriver/pkg/config"
	"github.com/zoeyai/uidriver/pkg/desktop"
	"github.com/zoeyai/uidriver/pkg/locator"
	"github.com/zoeyai/uidriver/pkg/permissions"
	"github.com/zoeyai/uidriver/pkg/uia"
	"github.com/zoeyai/uidriver/pkg/uia/simulate"
	"github.com/zoeyai/uidriver/pkg/uia/tree"
)

// 版本信息 (可通过 ldflags 注入)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// 命令行参数
	var (
		appPath     = flag.String("app", "", "启动应用的可执行文件路径")
		attachPID   = flag.Int("attach", 0, "附加到指定 PID 的已运行应用")
		attachTitle = flag.String("attach-title", "", "按窗口标题附加 (部分匹配)")
		selStr      = flag.String("selector", "", "元素选择器 (例: Pane:设置/Button:确定)")
		actionName  = flag.String("action", "", "操作: click | type | text | attr | highlight | dump")
		text        = flag.String("text", "", "type 操作的输入文本")
		attrName    = flag.String("attr", "name", "attr 操作读取的属性名")
		timeoutMs   = flag.Int("timeout", 0, "定位超时 (毫秒, 0=使用配置值)")
		depth       = flag.Int("depth", 0, "树遍历最大深度 (0=使用配置值)")
		logLevel    = flag.String("log-level", "", "日志级别: trace/debug/info/warn/error")
		checkPerms  = flag.Bool("check-permissions", false, "检查系统权限后退出")
		demo        = flag.Bool("demo", false, "在内置模拟树上演示定位与操作")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	// 显示版本
	if *showVersion {
		printVersion()
		return
	}

	// 显示帮助
	if *showHelp {
		printHelp()
		return
	}

	// 权限检查
	if *checkPerms {
		checkSystemPermissions()
		return
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("[WARN] 加载配置失败: %v\n", err)
	}

	// 命令行参数优先级高于配置文件
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *timeoutMs > 0 {
		cfg.TimeoutMs = *timeoutMs
	}
	if *depth > 0 {
		cfg.MaxDepth = *depth
	}
	logger.Default().SetLevel(logger.ParseLevel(cfg.LogLevel))

	// 演示模式走内置模拟树，不触碰真实桌面
	if *demo {
		runDemo(cfg)
		return
	}

	if *selStr == "" {
		fmt.Println("[ERROR] 缺少选择器，请使用 -selector 参数指定")
		printHelp()
		os.Exit(1)
	}

	// 初始化桌面句柄
	d, err := desktop.New()
	if err != nil {
		fmt.Printf("[ERROR] 初始化后端失败: %v\n", err)
		os.Exit(1)
	}
	defer d.Close()

	// 确定作用域: 启动 / 附加 / 整个桌面
	scope, cleanup, err := resolveScope(d, *appPath, *attachPID, *attachTitle, flag.Args())
	if err != nil {
		fmt.Printf("[ERROR] %v\n", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	if err := runAction(cfg, scope, *selStr, *actionName, *text, *attrName); err != nil {
		fmt.Printf("[ERROR] 执行失败: %v\n", err)
		if e, ok := err.(*uia.Error); ok {
			fmt.Printf("[ERROR] 错误类别: %s\n", e.Kind)
		}
		os.Exit(1)
	}
}

// resolveScope 按参数确定定位作用域
func resolveScope(d *desktop.Desktop, appPath string, pid int, title string, extraArgs []string) (locator.Scope, func(), error) {
	switch {
	case appPath != "":
		fmt.Printf("[INFO] 正在启动应用: %s\n", appPath)
		app, err := d.OpenApplication(appPath, extraArgs...)
		if err != nil {
			return nil, nil, fmt.Errorf("启动应用失败: %w", err)
		}
		fmt.Printf("[INFO] 应用就绪: pid=%d\n", app.PID())
		return app, func() { app.Close() }, nil

	case pid > 0:
		app, err := d.Attach(pid)
		if err != nil {
			return nil, nil, fmt.Errorf("附加进程失败: %w", err)
		}
		fmt.Printf("[INFO] 已附加: pid=%d\n", app.PID())
		return app, nil, nil

	case title != "":
		app, err := d.AttachByTitle(title)
		if err != nil {
			return nil, nil, fmt.Errorf("按标题附加失败: %w", err)
		}
		fmt.Printf("[INFO] 已附加: pid=%d\n", app.PID())
		return app, nil, nil

	default:
		return d, nil, nil
	}
}

// runAction 定位元素并执行指定操作
func runAction(cfg *config.EngineConfig, scope locator.Scope, selStr, actionName, text, attrName string) error {
	loc, err := locator.Parse(scope, selStr,
		locator.WithTimeout(cfg.Timeout()),
		locator.WithPollInterval(cfg.PollInterval()),
		locator.WithMaxDepth(cfg.MaxDepth))
	if err != nil {
		return err
	}

	// dump 不需要唯一匹配，对所有命中元素打印子树
	if actionName == "dump" {
		els, err := loc.All()
		if err != nil {
			return err
		}
		for _, el := range els {
			if err := tree.Dump(os.Stdout, el, cfg.MaxDepth); err != nil {
				return err
			}
		}
		return nil
	}

	el, err := loc.First()
	if err != nil {
		return err
	}

	dispatcher := action.New()
	switch actionName {
	case "click", "":
		return dispatcher.Click(el)
	case "type":
		if text == "" {
			return fmt.Errorf("type 操作需要 -text 参数")
		}
		return dispatcher.TypeText(el, text)
	case "text":
		value, err := dispatcher.GetText(el)
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	case "attr":
		value, err := dispatcher.GetAttribute(el, attrName)
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	case "highlight":
		return dispatcher.Highlight(el, cfg.HighlightDuration())
	default:
		return fmt.Errorf("未知操作: %s", actionName)
	}
}

// runDemo 在模拟树上演示: 建树 -> dump -> 定位 -> 点击 -> 输入
func runDemo(cfg *config.EngineConfig) {
	fmt.Println("========================================")
	fmt.Printf("  uidriver v%s 演示模式\n", Version)
	fmt.Println("========================================")

	backend := simulate.New()
	defer backend.Close()

	win := backend.NewWindow(1234, "示例设置")
	pane := win.Add(uia.RolePane, "常规", "generalPane")
	pane.Add(uia.RoleButton, "确定", "okButton").SetRect(100, 200, 80, 30)
	pane.Add(uia.RoleButton, "取消", "cancelButton").SetRect(200, 200, 80, 30)
	pane.Add(uia.RoleTextBox, "用户名", "userName").SetRect(100, 100, 180, 24)

	d := desktop.NewWithBackend(backend)
	defer d.Close()

	fmt.Println()
	fmt.Println("模拟元素树:")
	root, _ := backend.Root()
	tree.Dump(os.Stdout, root, cfg.MaxDepth)

	loc, err := d.Locator("Window:示例设置/Pane:常规/Button:确定")
	if err != nil {
		fmt.Printf("[ERROR] 解析选择器失败: %v\n", err)
		return
	}
	el, err := loc.First()
	if err != nil {
		fmt.Printf("[ERROR] 定位失败: %v\n", err)
		return
	}

	attrs, _ := el.Attributes()
	fmt.Printf("\n定位命中: %s %q [%s]\n", attrs.Role, attrs.Name, attrs.AutomationID)

	if err := el.Click(); err != nil {
		fmt.Printf("[ERROR] 点击失败: %v\n", err)
		return
	}
	fmt.Println("点击成功")

	// 输入演示
	input, err := d.Locator("nativeid:userName")
	if err == nil {
		if tb, err := input.First(); err == nil {
			tb.SetText("demo")
			value, _ := tb.Text()
			fmt.Printf("输入框内容: %q\n", value)
		}
	}

	fmt.Println()
	fmt.Println("演示结束")
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("uidriver v%s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("uidriver - 桌面 UI 自动化引擎")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  uidriver [选项] [-- 应用参数...]")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  -app string           启动应用的可执行文件路径")
	fmt.Println("  -attach int           附加到指定 PID 的已运行应用")
	fmt.Println("  -attach-title string  按窗口标题附加 (部分匹配)")
	fmt.Println("  -selector string      元素选择器 (例: Pane:设置/Button:确定)")
	fmt.Println("  -action string        操作: click | type | text | attr | highlight | dump")
	fmt.Println("  -text string          type 操作的输入文本")
	fmt.Println("  -attr string          attr 操作读取的属性名 (默认 name)")
	fmt.Println("  -timeout int          定位超时 (毫秒)")
	fmt.Println("  -depth int            树遍历最大深度")
	fmt.Println("  -log-level string     日志级别: trace/debug/info/warn/error")
	fmt.Println("  -check-permissions    检查系统权限后退出")
	fmt.Println("  -demo                 在内置模拟树上演示定位与操作")
	fmt.Println("  -version              显示版本信息")
	fmt.Println("  -help                 显示帮助信息")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  # 启动记事本并点击按钮")
	fmt.Println("  uidriver -app notepad.exe -selector \"Window:无标题/Button:关闭\" -action click")
	fmt.Println()
	fmt.Println("  # 附加到已运行的应用并输入文本")
	fmt.Println("  uidriver -attach 1234 -selector \"nativeid:userName\" -action type -text hello")
	fmt.Println()
	fmt.Println("  # 打印设置窗口的元素树")
	fmt.Println("  uidriver -attach-title 设置 -selector \"Window:设置\" -action dump")
	fmt.Println()
	fmt.Printf("配置文件位置: %s\n", config.GetDefaultManager().GetConfigFile())
}

// checkSystemPermissions 检查系统权限
func checkSystemPermissions() {
	fmt.Println("[INFO] 正在检查系统权限...")
	if runtime.GOOS != "darwin" {
		fmt.Println("[INFO] 当前平台不需要预先授权")
		return
	}

	status := permissions.CheckPermissions()
	fmt.Printf("[INFO] 辅助功能权限: %v\n", status.Accessibility)

	if status.AllGranted {
		fmt.Println("[INFO] ✓ 所有权限已授予")
		return
	}

	fmt.Println()
	fmt.Println("[WARN] ========== 缺少权限 ==========")
	fmt.Println(permissions.GetPermissionInstructions(status))
	fmt.Println("[WARN] ==============================")
	os.Exit(1)
}
