package wire

import "time"

// ═══════════════════════════════════════════════════════════════════════════
// 请求
// ═══════════════════════════════════════════════════════════════════════════

// GetCompletionsRequest 对应 xai_api.GetCompletionsRequest
type GetCompletionsRequest struct {
	Messages            []*Message      `json:"messages,omitempty"`
	Model               string          `json:"model,omitempty"`
	User                string          `json:"user,omitempty"`
	N                   *int32          `json:"n,omitempty"`
	MaxTokens           *int32          `json:"maxTokens,omitempty"`
	Seed                *int32          `json:"seed,omitempty"`
	Stop                []string        `json:"stop,omitempty"`
	Temperature         *float32        `json:"temperature,omitempty"`
	TopP                *float32        `json:"topP,omitempty"`
	Logprobs            bool            `json:"logprobs,omitempty"`
	TopLogprobs         *int32          `json:"topLogprobs,omitempty"`
	Tools               []*Tool         `json:"tools,omitempty"`
	ToolChoice          *ToolChoice     `json:"toolChoice,omitempty"`
	ResponseFormat      *ResponseFormat `json:"responseFormat,omitempty"`
	FrequencyPenalty    *float32        `json:"frequencyPenalty,omitempty"`
	PresencePenalty     *float32        `json:"presencePenalty,omitempty"`
	ReasoningEffort     ReasoningEffort `json:"reasoningEffort,omitempty"`
	ParallelToolCalls   *bool           `json:"parallelToolCalls,omitempty"`
	PreviousResponseID  string          `json:"previousResponseId,omitempty"`
	StoreMessages       bool            `json:"storeMessages,omitempty"`
	UseEncryptedContent bool            `json:"useEncryptedContent,omitempty"`
	Include             []IncludeOption `json:"include,omitempty"`
}

// Message 对应 xai_api.Message
type Message struct {
	Content          []*Content  `json:"content,omitempty"`
	ReasoningContent string      `json:"reasoningContent,omitempty"`
	Role             MessageRole `json:"role,omitempty"`
	Name             string      `json:"name,omitempty"`
	ToolCalls        []*ToolCall `json:"toolCalls,omitempty"`
	EncryptedContent string      `json:"encryptedContent,omitempty"`
	ToolCallID       string      `json:"toolCallId,omitempty"`
}

// Content 消息内容片段（oneof 仅支持文本）
type Content struct {
	Text string `json:"text"`
}

// ═══════════════════════════════════════════════════════════════════════════
// 工具调用
// ═══════════════════════════════════════════════════════════════════════════

// ToolCall 对应 xai_api.ToolCall
type ToolCall struct {
	ID           string         `json:"id,omitempty"`
	Type         ToolCallType   `json:"type,omitempty"`
	Status       ToolCallStatus `json:"status,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	Function     *FunctionCall  `json:"function,omitempty"`
}

// FunctionCall 工具调用的函数部分
//
// Arguments 为 JSON 编码的参数对象。
type FunctionCall struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// ═══════════════════════════════════════════════════════════════════════════
// 工具定义（oneof）
// ═══════════════════════════════════════════════════════════════════════════

// Tool 对应 xai_api.Tool，以下指针字段互斥
type Tool struct {
	Function          *Function          `json:"function,omitempty"`
	WebSearch         *WebSearch         `json:"webSearch,omitempty"`
	XSearch           *XSearch           `json:"xSearch,omitempty"`
	CodeExecution     *CodeExecution     `json:"codeExecution,omitempty"`
	CollectionsSearch *CollectionsSearch `json:"collectionsSearch,omitempty"`
	MCP               *MCP               `json:"mcp,omitempty"`
}

// Function 客户端函数声明，Parameters 为 JSON Schema 字符串
type Function struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Strict      bool   `json:"strict,omitempty"`
	Parameters  string `json:"parameters,omitempty"`
}

// WebSearch 托管网页搜索
type WebSearch struct {
	AllowedDomains           []string               `json:"allowedDomains,omitempty"`
	ExcludedDomains          []string               `json:"excludedDomains,omitempty"`
	EnableImageUnderstanding *bool                  `json:"enableImageUnderstanding,omitempty"`
	UserLocation             *WebSearchUserLocation `json:"userLocation,omitempty"`
}

// WebSearchUserLocation 搜索时使用的近似用户位置
type WebSearchUserLocation struct {
	Country  string `json:"country,omitempty"`
	Region   string `json:"region,omitempty"`
	City     string `json:"city,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// XSearch 托管 X（社交平台）搜索
type XSearch struct {
	FromDate                 *time.Time `json:"fromDate,omitempty"`
	ToDate                   *time.Time `json:"toDate,omitempty"`
	AllowedXHandles          []string   `json:"allowedXHandles,omitempty"`
	ExcludedXHandles         []string   `json:"excludedXHandles,omitempty"`
	EnableImageUnderstanding *bool      `json:"enableImageUnderstanding,omitempty"`
	EnableVideoUnderstanding *bool      `json:"enableVideoUnderstanding,omitempty"`
}

// CodeExecution 托管代码执行（无配置项）
type CodeExecution struct{}

// CollectionsSearch 托管文档集合搜索
type CollectionsSearch struct {
	CollectionIDs []string `json:"collectionIds,omitempty"`
	Limit         *int32   `json:"limit,omitempty"`
	Instructions  string   `json:"instructions,omitempty"`
}

// MCP 托管 MCP 服务器
type MCP struct {
	ServerLabel       string            `json:"serverLabel,omitempty"`
	ServerDescription string            `json:"serverDescription,omitempty"`
	ServerURL         string            `json:"serverUrl,omitempty"`
	AllowedToolNames  []string          `json:"allowedToolNames,omitempty"`
	Authorization     string            `json:"authorization,omitempty"`
	ExtraHeaders      map[string]string `json:"extraHeaders,omitempty"`
}

// ToolChoice 工具选择策略
type ToolChoice struct {
	Mode         string `json:"mode,omitempty"`
	FunctionName string `json:"functionName,omitempty"`
}

// ResponseFormat 结构化输出格式，Schema 为 JSON Schema 字符串
type ResponseFormat struct {
	FormatType FormatType `json:"formatType,omitempty"`
	Schema     string     `json:"schema,omitempty"`
}
