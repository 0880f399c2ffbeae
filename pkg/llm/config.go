package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"
)

// ═══════════════════════════════════════════════════════════════════════════
// Provider 配置
// ═══════════════════════════════════════════════════════════════════════════

// Config Provider 创建配置
//
// 用于通过统一工厂函数创建 Provider。
//
// 基本用法：
//
//	cfg := &llm.Config{
//	    Type:   llm.ProviderTypeXAI,
//	    APIKey: "xai-xxx",
//	    Model:  "grok-4",
//	}
//
// 生产环境配置：
//
//	cfg := &llm.Config{
//	    Type:       llm.ProviderTypeXAI,
//	    APIKey:     "xai-xxx",
//	    Model:      "grok-4",
//	    EndUserID:  "tenant-42",
//	    Timeout:    2 * time.Minute,
//	    MaxRetries: 3,
//	}
//
// 从文件加载：
//
//	cfg, err := llm.LoadConfigFile("xai.yaml")
type Config struct {
	// Provider 类型（默认 xAI）
	Type ProviderType `koanf:"type" yaml:"type" json:"type"`

	// APIKey（Mock 除外必需）
	APIKey string `koanf:"api-key" yaml:"api_key" json:"api_key"`

	// 可选字段（有默认值）
	Model   string `koanf:"model" yaml:"model" json:"model"`
	BaseURL string `koanf:"base-url" yaml:"base_url" json:"base_url"`

	// EndUserID 默认终端用户标识，请求未指定时使用
	EndUserID string `koanf:"end-user-id" yaml:"end_user_id" json:"end_user_id"`

	// 网络配置
	Timeout    time.Duration     `koanf:"timeout" yaml:"timeout" json:"timeout"`
	MaxRetries int               `koanf:"max-retries" yaml:"max_retries" json:"max_retries"`
	Headers    map[string]string `koanf:"headers" yaml:"headers" json:"headers"`

	// 扩展配置
	Extra map[string]any `koanf:"extra" yaml:"extra" json:"extra"`
}

// DefaultConfig 返回默认的 Provider 配置
// 不指定类型时默认使用 xAI，APIKey、BaseURL、Model 优先读取环境变量
func DefaultConfig(types ...ProviderType) Config {
	t := ProviderTypeXAI
	if len(types) > 0 {
		t = types[0]
	}

	baseURL := t.DefaultBaseURL()
	model := t.DefaultModel()
	if t == ProviderTypeXAI {
		if v := firstEnv(EnvBaseURLs...); v != "" {
			baseURL = v
		}
		if v := firstEnv(EnvModels...); v != "" {
			model = v
		}
	}

	return Config{
		Type:       t,
		APIKey:     t.GetEnvAPIKey(),
		BaseURL:    baseURL,
		Model:      model,
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	t := c.Type
	if t == "" {
		t = ProviderTypeXAI
	}
	switch t {
	case ProviderTypeXAI, ProviderTypeMock:
	default:
		return NewConfigError(fmt.Sprintf("unsupported provider type: %s", t), nil)
	}
	if t.RequiresAPIKey() && c.APIKey == "" {
		return NewConfigError("API key is required", nil)
	}
	if c.Timeout < 0 {
		return NewConfigError("timeout must not be negative", nil)
	}
	if c.MaxRetries < 0 {
		return NewConfigError("max retries must not be negative", nil)
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// 配置加载
// ═══════════════════════════════════════════════════════════════════════════

// LoadConfigFile 从文件加载配置
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError("read config file", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	return LoadConfigFromBytes(data, ext)
}

// LoadConfigFromBytes 从字节数据加载配置
//
// 未设置的字段保持零值，调用方可与 [DefaultConfig] 合并。
// 时长字段使用 Go duration 字符串（如 "30s"）。
func LoadConfigFromBytes(data []byte, format string) (*Config, error) {
	cfg := &Config{}

	// 规范化格式字符串（支持 ".yaml" 或 "yaml"）
	format = strings.TrimPrefix(strings.ToLower(format), ".")

	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, NewConfigError("parse YAML", err)
		}
	case "json":
		// 经由 YAML 解码，以复用 time.Duration 的字符串解析
		var raw map[string]any
		if err := sonic.Unmarshal(data, &raw); err != nil {
			return nil, NewConfigError("parse JSON", err)
		}
		doc, err := yaml.Marshal(raw)
		if err != nil {
			return nil, NewConfigError("parse JSON", err)
		}
		if err := yaml.Unmarshal(doc, cfg); err != nil {
			return nil, NewConfigError("parse JSON", err)
		}
	default:
		return nil, NewConfigError(fmt.Sprintf("unsupported format: %s (expected yaml, yml, or json)", format), nil)
	}

	return cfg, nil
}

// Merge 用 other 中的非零字段覆盖当前配置，返回新配置
func (c Config) Merge(other *Config) Config {
	if other == nil {
		return c
	}
	if other.Type != "" {
		c.Type = other.Type
	}
	if other.APIKey != "" {
		c.APIKey = other.APIKey
	}
	if other.Model != "" {
		c.Model = other.Model
	}
	if other.BaseURL != "" {
		c.BaseURL = other.BaseURL
	}
	if other.EndUserID != "" {
		c.EndUserID = other.EndUserID
	}
	if other.Timeout != 0 {
		c.Timeout = other.Timeout
	}
	if other.MaxRetries != 0 {
		c.MaxRetries = other.MaxRetries
	}
	if len(other.Headers) > 0 {
		c.Headers = other.Headers
	}
	if len(other.Extra) > 0 {
		c.Extra = other.Extra
	}
	return c
}
