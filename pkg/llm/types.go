package llm

import (
	"context"
	"iter"
	"time"

	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/wire"
)

// ═══════════════════════════════════════════════════════════════════════════
// Provider 接口
// ═══════════════════════════════════════════════════════════════════════════

// Provider LLM 提供者接口
type Provider interface {
	// Complete 同步完成
	Complete(ctx context.Context, messages []Message, opts *Options) (*Response, error)

	// Stream 流式完成
	//
	// 请求构建失败时直接返回错误，不会发起网络调用。
	// 返回的序列只能遍历一次。
	Stream(ctx context.Context, messages []Message, opts *Options) (iter.Seq2[*Update, error], error)

	// Close 关闭连接
	Close() error
}

// ═══════════════════════════════════════════════════════════════════════════
// Provider 选项
// ═══════════════════════════════════════════════════════════════════════════

// Options Provider 选项
//
// 标量选项只在非 nil 时生效。
type Options struct {
	// 模型与用户
	ModelID   string `json:"model_id,omitempty"`
	EndUserID string `json:"end_user_id,omitempty"`

	// 采样参数
	MaxOutputTokens  *int32   `json:"max_output_tokens,omitempty"`
	Temperature      *float32 `json:"temperature,omitempty"`
	TopP             *float32 `json:"top_p,omitempty"`
	FrequencyPenalty *float32 `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float32 `json:"presence_penalty,omitempty"`
	Seed             *int32   `json:"seed,omitempty"`
	StopSequences    []string `json:"stop_sequences,omitempty"`

	// 推理参数
	ReasoningEffort     string `json:"reasoning_effort,omitempty"` // "low", "high"
	UseEncryptedContent bool   `json:"use_encrypted_content,omitempty"`

	// 结构化输出
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	// 工具
	Tools             []Tool     `json:"-"`
	ParallelToolCalls *bool      `json:"parallel_tool_calls,omitempty"`
	Search            SearchMode `json:"search,omitempty"`

	// Include 非 nil 时替换默认的包含项（默认只含内联引用）
	Include []IncludeOption `json:"include,omitempty"`

	// RawRequest 调用方预先构造的请求，作为构建起点，不会被修改
	RawRequest *wire.GetCompletionsRequest `json:"-"`

	// 扩展
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ResponseFormat 响应格式配置 (Structured Output)
type ResponseFormat struct {
	Type   string         `json:"type"`             // "json_schema", "json_object", "text"
	Name   string         `json:"name,omitempty"`   // Schema 名称
	Schema map[string]any `json:"schema,omitempty"` // JSON Schema 定义
}

// 响应格式类型
const (
	ResponseFormatText       = "text"
	ResponseFormatJSONObject = "json_object"
	ResponseFormatJSONSchema = "json_schema"
)

// IncludeOption 响应中额外包含的输出
type IncludeOption string

const (
	IncludeWebSearchCallOutput         IncludeOption = "web_search_call_output"
	IncludeXSearchCallOutput           IncludeOption = "x_search_call_output"
	IncludeCodeExecutionCallOutput     IncludeOption = "code_execution_call_output"
	IncludeCollectionsSearchCallOutput IncludeOption = "collections_search_call_output"
	IncludeAttachmentSearchCallOutput  IncludeOption = "attachment_search_call_output"
	IncludeMCPCallOutput               IncludeOption = "mcp_call_output"
	IncludeInlineCitations             IncludeOption = "inline_citations"
	IncludeVerboseStreaming            IncludeOption = "verbose_streaming"
)

// Ptr 返回值的指针，便于设置可选标量
func Ptr[T any](v T) *T {
	return &v
}

// ═══════════════════════════════════════════════════════════════════════════
// Provider 响应
// ═══════════════════════════════════════════════════════════════════════════

// FinishReason 完成原因
type FinishReason string

const (
	FinishReasonStop      FinishReason = "stop"
	FinishReasonLength    FinishReason = "length"
	FinishReasonToolCalls FinishReason = "tool_calls"
)

// Response Provider 响应
type Response struct {
	ID           string         `json:"id,omitempty"`
	Message      Message        `json:"message"`
	FinishReason FinishReason   `json:"finish_reason,omitempty"`
	Model        string         `json:"model,omitempty"` // 实际使用的模型
	CreatedAt    *time.Time     `json:"created_at,omitempty"`
	Usage        *TokenUsage    `json:"usage,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// TokenUsage Token 使用量
type TokenUsage struct {
	InputTokens     int64 `json:"input_tokens"`
	OutputTokens    int64 `json:"output_tokens"`
	TotalTokens     int64 `json:"total_tokens"`
	ReasoningTokens int64 `json:"reasoning_tokens,omitempty"`
	CachedTokens    int64 `json:"cached_tokens,omitempty"` // Prompt Caching tokens
}
