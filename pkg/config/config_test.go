package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultEngineConfig(t *testing.T) {
	config := DefaultEngineConfig()

	if config.TimeoutMs != 10000 {
		t.Errorf("默认 TimeoutMs 应为 10000, 实际为 %d", config.TimeoutMs)
	}
	if config.PollIntervalMs != 50 {
		t.Errorf("默认 PollIntervalMs 应为 50, 实际为 %d", config.PollIntervalMs)
	}
	if config.MaxDepth != 50 {
		t.Errorf("默认 MaxDepth 应为 50, 实际为 %d", config.MaxDepth)
	}
	if config.LogLevel != "info" {
		t.Errorf("默认 LogLevel 应为 info, 实际为 %s", config.LogLevel)
	}

	if config.Timeout() != 10*time.Second {
		t.Errorf("Timeout() 应为 10s, 实际为 %v", config.Timeout())
	}
	if config.PollInterval() != 50*time.Millisecond {
		t.Errorf("PollInterval() 应为 50ms, 实际为 %v", config.PollInterval())
	}

	t.Logf("默认配置: %+v", config)
}

func TestManagerSaveAndLoad(t *testing.T) {
	// 使用临时目录
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	// 检查初始状态
	if manager.Exists() {
		t.Error("初始时配置文件不应存在")
	}

	// 保存配置
	config := &EngineConfig{
		TimeoutMs:      5000,
		PollIntervalMs: 100,
		MaxDepth:       20,
		HighlightMs:    500,
		LogLevel:       "debug",
	}

	err := manager.Save(config)
	if err != nil {
		t.Fatalf("保存配置失败: %v", err)
	}

	// 检查文件是否存在
	if !manager.Exists() {
		t.Error("保存后配置文件应存在")
	}

	// 加载配置
	loaded, err := manager.Load()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	// 验证内容
	if loaded.TimeoutMs != config.TimeoutMs {
		t.Errorf("TimeoutMs 不匹配: 期望 %d, 实际 %d", config.TimeoutMs, loaded.TimeoutMs)
	}
	if loaded.PollIntervalMs != config.PollIntervalMs {
		t.Errorf("PollIntervalMs 不匹配: 期望 %d, 实际 %d", config.PollIntervalMs, loaded.PollIntervalMs)
	}
	if loaded.MaxDepth != config.MaxDepth {
		t.Errorf("MaxDepth 不匹配: 期望 %d, 实际 %d", config.MaxDepth, loaded.MaxDepth)
	}
	if loaded.LogLevel != config.LogLevel {
		t.Errorf("LogLevel 不匹配: 期望 %s, 实际 %s", config.LogLevel, loaded.LogLevel)
	}

	t.Logf("加载的配置: %+v", loaded)
}

func TestManagerLoadPartialConfig(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	// 只写入部分字段，其余应回填默认值
	configFile := filepath.Join(tempDir, "config.json")
	err := os.WriteFile(configFile, []byte(`{"timeout_ms": 3000}`), 0600)
	if err != nil {
		t.Fatalf("创建测试文件失败: %v", err)
	}

	loaded, err := manager.Load()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if loaded.TimeoutMs != 3000 {
		t.Errorf("TimeoutMs 应保留写入值 3000, 实际为 %d", loaded.TimeoutMs)
	}
	if loaded.PollIntervalMs != 50 {
		t.Errorf("缺失的 PollIntervalMs 应回填默认值 50, 实际为 %d", loaded.PollIntervalMs)
	}
	if loaded.MaxDepth != 50 {
		t.Errorf("缺失的 MaxDepth 应回填默认值 50, 实际为 %d", loaded.MaxDepth)
	}
	if loaded.LogLevel != "info" {
		t.Errorf("缺失的 LogLevel 应回填默认值 info, 实际为 %s", loaded.LogLevel)
	}

	t.Logf("部分配置加载结果: %+v", loaded)
}

func TestManagerClear(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	// 先保存一个配置
	config := DefaultEngineConfig()
	err := manager.Save(config)
	if err != nil {
		t.Fatalf("保存配置失败: %v", err)
	}

	if !manager.Exists() {
		t.Fatal("保存后配置文件应存在")
	}

	// 清除配置
	err = manager.Clear()
	if err != nil {
		t.Fatalf("清除配置失败: %v", err)
	}

	if manager.Exists() {
		t.Error("清除后配置文件不应存在")
	}

	// 清除不存在的文件不应报错
	err = manager.Clear()
	if err != nil {
		t.Errorf("清除不存在的配置不应报错: %v", err)
	}
}

func TestManagerLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	// 加载不存在的配置应返回默认值
	config, err := manager.Load()
	if err != nil {
		t.Fatalf("加载不存在的配置不应报错: %v", err)
	}

	defaultConfig := DefaultEngineConfig()
	if config.TimeoutMs != defaultConfig.TimeoutMs {
		t.Errorf("应返回默认 TimeoutMs")
	}

	t.Log("加载不存在的配置返回默认值: OK")
}

func TestManagerLoadCorruptedFile(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	// 创建一个损坏的配置文件
	configFile := filepath.Join(tempDir, "config.json")
	os.MkdirAll(tempDir, 0755)
	err := os.WriteFile(configFile, []byte("not valid json"), 0600)
	if err != nil {
		t.Fatalf("创建测试文件失败: %v", err)
	}

	// 加载损坏的配置应返回默认值和错误
	config, err := manager.Load()
	if err == nil {
		t.Error("加载损坏的配置应返回错误")
	}

	// 但仍应返回默认配置
	if config == nil {
		t.Error("即使出错也应返回默认配置")
	}

	t.Logf("加载损坏配置的错误: %v", err)
}

func TestManagerPaths(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	if manager.GetConfigDir() != tempDir {
		t.Errorf("GetConfigDir 应为 %s", tempDir)
	}

	expectedFile := filepath.Join(tempDir, "config.json")
	if manager.GetConfigFile() != expectedFile {
		t.Errorf("GetConfigFile 应为 %s", expectedFile)
	}

	t.Logf("配置目录: %s", manager.GetConfigDir())
	t.Logf("配置文件: %s", manager.GetConfigFile())
}

func TestDefaultManager(t *testing.T) {
	manager := GetDefaultManager()
	if manager == nil {
		t.Fatal("GetDefaultManager 返回 nil")
	}

	// 检查默认路径是否在用户目录下
	homeDir, _ := os.UserHomeDir()
	expectedDir := filepath.Join(homeDir, ".uidriver")

	if manager.GetConfigDir() != expectedDir {
		t.Errorf("默认配置目录应为 %s, 实际为 %s", expectedDir, manager.GetConfigDir())
	}

	t.Logf("默认配置目录: %s", manager.GetConfigDir())
}

func TestGlobalFunctions(t *testing.T) {
	// 测试全局函数不会 panic
	_, err := Load()
	if err != nil {
		t.Logf("Load 错误 (可能正常): %v", err)
	}

	// 不实际保存，避免污染用户配置
	t.Log("全局函数测试通过")
}

// BenchmarkSaveLoad 基准测试
func BenchmarkSaveLoad(b *testing.B) {
	tempDir := b.TempDir()
	manager := NewManagerWithDir(tempDir)
	config := DefaultEngineConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		manager.Save(config)
		manager.Load()
	}
}
