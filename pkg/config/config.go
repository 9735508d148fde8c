// Package config 引擎配置的加载与保存 (~/.uidriver/config.json)
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EngineConfig 引擎配置
type EngineConfig struct {
	// TimeoutMs 定位器默认超时 (毫秒)
	TimeoutMs int `json:"timeout_ms"`
	// PollIntervalMs 定位重试轮询间隔 (毫秒)
	PollIntervalMs int `json:"poll_interval_ms"`
	// MaxDepth 元素树遍历最大深度
	MaxDepth int `json:"max_depth"`
	// HighlightMs 高亮显示时长 (毫秒)
	HighlightMs int `json:"highlight_ms"`
	// LogLevel 日志级别: trace/debug/info/warn/error
	LogLevel string `json:"log_level"`
}

// DefaultEngineConfig 默认引擎配置
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		TimeoutMs:      10000,
		PollIntervalMs: 50,
		MaxDepth:       50,
		HighlightMs:    800,
		LogLevel:       "info",
	}
}

// Timeout 定位器超时
func (c *EngineConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// PollInterval 轮询间隔
func (c *EngineConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// HighlightDuration 高亮时长
func (c *EngineConfig) HighlightDuration() time.Duration {
	return time.Duration(c.HighlightMs) * time.Millisecond
}

// Manager 配置管理器
type Manager struct {
	configDir  string
	configFile string
	mu         sync.RWMutex
}

// NewManager 创建配置管理器
func NewManager() *Manager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	configDir := filepath.Join(homeDir, ".uidriver")
	return &Manager{
		configDir:  configDir,
		configFile: filepath.Join(configDir, "config.json"),
	}
}

// NewManagerWithDir 使用指定目录创建配置管理器
func NewManagerWithDir(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configFile: filepath.Join(configDir, "config.json"),
	}
}

// ensureDir 确保配置目录存在
func (m *Manager) ensureDir() error {
	return os.MkdirAll(m.configDir, 0755)
}

// Load 加载配置，文件不存在时返回默认值
func (m *Manager) Load() (*EngineConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return DefaultEngineConfig(), nil
	}

	data, err := os.ReadFile(m.configFile)
	if err != nil {
		return DefaultEngineConfig(), fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config EngineConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return DefaultEngineConfig(), fmt.Errorf("解析配置文件失败: %w", err)
	}

	applyDefaults(&config)
	return &config, nil
}

// applyDefaults 为缺失字段填充默认值
func applyDefaults(c *EngineConfig) {
	def := DefaultEngineConfig()
	if c.TimeoutMs <= 0 {
		c.TimeoutMs = def.TimeoutMs
	}
	if c.PollIntervalMs <= 0 {
		c.PollIntervalMs = def.PollIntervalMs
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = def.MaxDepth
	}
	if c.HighlightMs <= 0 {
		c.HighlightMs = def.HighlightMs
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// Save 保存配置
func (m *Manager) Save(config *EngineConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureDir(); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(m.configFile, data, 0600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}

// Clear 清除配置
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return nil
	}

	return os.Remove(m.configFile)
}

// GetConfigDir 获取配置目录
func (m *Manager) GetConfigDir() string {
	return m.configDir
}

// GetConfigFile 获取配置文件路径
func (m *Manager) GetConfigFile() string {
	return m.configFile
}

// Exists 检查配置文件是否存在
func (m *Manager) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.configFile)
	return err == nil
}

// 全局配置管理器
var defaultManager = NewManager()

// GetDefaultManager 获取默认配置管理器
func GetDefaultManager() *Manager {
	return defaultManager
}

// Load 使用默认管理器加载配置
func Load() (*EngineConfig, error) {
	return defaultManager.Load()
}

// Save 使用默认管理器保存配置
func Save(config *EngineConfig) error {
	return defaultManager.Save(config)
}

// Clear 使用默认管理器清除配置
func Clear() error {
	return defaultManager.Clear()
}
