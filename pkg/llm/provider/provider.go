// Package provider 提供 LLM Provider 的统一工厂
//
// 使用方式：
//
//	p, err := provider.New(&llm.Config{
//	    Type:   llm.ProviderTypeXAI,
//	    APIKey: "xai-xxx",
//	    Model:  "grok-4",
//	})
//
//	// 本地 Mock（无需配置，无网络）
//	p := provider.Mock()
package provider

import (
	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm"
	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/provider/mock"
	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/provider/xai"
)

// Mock Provider 的 Extra 键
const (
	ExtraMockScenario   = "scenario"    // 初始场景名称
	ExtraMockConfigFile = "config_file" // 场景配置文件路径
)

// ═══════════════════════════════════════════════════════════════════════════
// 工厂函数
// ═══════════════════════════════════════════════════════════════════════════

// New 创建 Provider
//
// Type 为空时使用 xAI。Mock 类型使用同一个 xAI 客户端，
// 只是把传输替换为 [mock.Transport]，请求构建与响应映射完全一致。
func New(cfg *llm.Config) (llm.Provider, error) {
	if cfg == nil {
		return nil, llm.NewConfigError("config is required", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	providerType := cfg.Type
	if providerType == "" {
		providerType = llm.ProviderTypeXAI
	}

	switch providerType {
	case llm.ProviderTypeXAI:
		return newXAI(cfg)
	case llm.ProviderTypeMock:
		return newMock(cfg)
	default:
		return nil, llm.NewConfigError("unsupported provider type: "+providerType.String(), nil)
	}
}

// xaiConfig 转换为客户端配置，空字段回退到类型默认值
func xaiConfig(cfg *llm.Config, ptype llm.ProviderType) *xai.Config {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = ptype.DefaultBaseURL()
	}

	model := cfg.Model
	if model == "" {
		model = ptype.DefaultModel()
	}

	return &xai.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    baseURL,
		Model:      model,
		EndUserID:  cfg.EndUserID,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		Headers:    cfg.Headers,
	}
}

// newXAI 创建 xAI Provider
func newXAI(cfg *llm.Config) (llm.Provider, error) {
	return xai.New(xaiConfig(cfg, llm.ProviderTypeXAI))
}

// newMock 创建基于 Mock 传输的 Provider
func newMock(cfg *llm.Config) (llm.Provider, error) {
	var opts []mock.Option
	if path, ok := cfg.Extra[ExtraMockConfigFile].(string); ok && path != "" {
		opts = append(opts, mock.WithConfigFile(path))
	}

	transport := mock.New(opts...)
	if name, ok := cfg.Extra[ExtraMockScenario].(string); ok && name != "" {
		transport.UseScenario(name)
	}
	return xai.New(xaiConfig(cfg, llm.ProviderTypeMock), xai.WithTransport(transport))
}

// ═══════════════════════════════════════════════════════════════════════════
// 便捷函数
// ═══════════════════════════════════════════════════════════════════════════

// Mock 创建使用内嵌示例场景的 Mock Provider（用于测试）
func Mock() llm.Provider {
	return Must(&llm.Config{Type: llm.ProviderTypeMock})
}

// Must 创建 Provider，失败时 panic
func Must(cfg *llm.Config) llm.Provider {
	p, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

// Default 使用默认配置创建 Provider
// 不指定类型时默认使用 xAI，从 XAI_API_KEY 等环境变量读取 APIKey
func Default(types ...llm.ProviderType) (llm.Provider, error) {
	cfg := llm.DefaultConfig(types...)
	return New(&cfg)
}

// MustDefault 使用默认配置创建 Provider，失败时 panic
func MustDefault(types ...llm.ProviderType) llm.Provider {
	p, err := Default(types...)
	if err != nil {
		panic(err)
	}
	return p
}
