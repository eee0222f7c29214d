package xconf

import (
	"fmt"

	"github.com/omeyang/xtsdict/pkg/collections/xtsmap"
	"github.com/omeyang/xtsdict/pkg/observability/xlog"
)

// StoreConfig 是 xtsctl 使用的配置。
type StoreConfig struct {
	// Capacity 存储容量，0 表示无界，负数非法。
	Capacity int `koanf:"capacity"`

	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// LogConfig 是日志配置。
type LogConfig struct {
	// Level 日志级别：debug/info/warn/error，默认 info。
	Level string `koanf:"level"`
	// Format 输出格式：text/json，默认 text。
	Format string `koanf:"format"`
	// File 日志文件路径，非空时启用滚动写入。
	File string `koanf:"file"`
}

// MetricsConfig 是指标配置。
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// DefaultStoreConfig 返回默认配置：无界、info 级别、text 格式、启用指标。
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Log:     LogConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load 从 Source 解析 StoreConfig，缺省字段取 [DefaultStoreConfig] 的值。
func Load(src *Source) (StoreConfig, error) {
	cfg := DefaultStoreConfig()
	if err := src.Unmarshal("", &cfg); err != nil {
		return StoreConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return StoreConfig{}, err
	}
	return cfg, nil
}

// LoadFile 打开 path 并解析 StoreConfig，同时返回 Source 以便 Reload 或监视。
func LoadFile(path string) (StoreConfig, *Source, error) {
	src, err := Open(path)
	if err != nil {
		return StoreConfig{}, nil, err
	}
	cfg, err := Load(src)
	if err != nil {
		return StoreConfig{}, nil, err
	}
	return cfg, src, nil
}

// Validate 校验配置值。
func (c StoreConfig) Validate() error {
	if c.Capacity < 0 {
		return fmt.Errorf("%w: capacity must be >= 0, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.Log.Level != "" {
		if _, err := xlog.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: %w %q", ErrInvalidConfig, xlog.ErrUnknownFormat, c.Log.Format)
	}
	return nil
}

// StoreCapacity 把 Capacity 字段转换为 xtsmap.Capacity。
func (c StoreConfig) StoreCapacity() (xtsmap.Capacity, error) {
	switch {
	case c.Capacity < 0:
		return xtsmap.Capacity{}, fmt.Errorf("%w: capacity must be >= 0, got %d", ErrInvalidConfig, c.Capacity)
	case c.Capacity == 0:
		return xtsmap.Unbounded(), nil
	default:
		return xtsmap.Bounded(c.Capacity), nil
	}
}
