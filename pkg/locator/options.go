// Package locator 提供延迟解析、可重解析的元素定位句柄。
package locator

import "time"

// DefaultPollInterval 默认轮询间隔
const DefaultPollInterval = 50 * time.Millisecond

// DefaultTimeout 默认解析超时时间
const DefaultTimeout = 10 * time.Second

// Option 配置选项函数类型
type Option func(*Options)

// Options 定位解析配置
type Options struct {
	// Timeout 解析超时；0 表示只尝试一次，不进入轮询
	Timeout time.Duration
	// PollInterval 轮询间隔
	PollInterval time.Duration
	// MaxDepth 单阶段子树搜索深度上限（0 使用 tree.DefaultMaxDepth）
	MaxDepth int
}

// DefaultOptions 默认配置
func DefaultOptions() *Options {
	return &Options{
		Timeout:      DefaultTimeout,
		PollInterval: DefaultPollInterval,
	}
}

// ApplyOptions 应用配置选项
func ApplyOptions(base *Options, opts ...Option) *Options {
	o := *base
	for _, opt := range opts {
		opt(&o)
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	return &o
}

// WithTimeout 设置解析超时时间（0 表示单次尝试）
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithPollInterval 设置轮询间隔
func WithPollInterval(d time.Duration) Option {
	return func(o *Options) {
		o.PollInterval = d
	}
}

// WithMaxDepth 设置子树搜索深度上限
func WithMaxDepth(depth int) Option {
	return func(o *Options) {
		o.MaxDepth = depth
	}
}
