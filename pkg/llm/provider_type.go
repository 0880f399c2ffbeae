package llm

// ProviderType LLM Provider 类型
type ProviderType string

const (
	// ProviderTypeXAI xAI Grok API（Connect 协议）
	ProviderTypeXAI ProviderType = "xai"

	// ProviderTypeMock 本地 Mock（测试用，无网络）
	ProviderTypeMock ProviderType = "mock"
)

// String 返回字符串表示
func (t ProviderType) String() string {
	return string(t)
}

// RequiresAPIKey 判断是否需要 API Key
func (t ProviderType) RequiresAPIKey() bool {
	return t != ProviderTypeMock
}

// DefaultBaseURL 返回默认 Base URL
func (t ProviderType) DefaultBaseURL() string {
	switch t {
	case ProviderTypeXAI:
		return "https://api.x.ai"
	default:
		return ""
	}
}

// DefaultModel 返回默认模型
func (t ProviderType) DefaultModel() string {
	switch t {
	case ProviderTypeXAI, ProviderTypeMock:
		return "grok-4-fast"
	default:
		return ""
	}
}

// GetEnvAPIKey 从环境变量读取 API Key
func (t ProviderType) GetEnvAPIKey() string {
	switch t {
	case ProviderTypeXAI:
		return firstEnv(EnvAPIKeys...)
	default:
		return ""
	}
}
