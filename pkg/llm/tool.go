package llm

import "time"

// ═══════════════════════════════════════════════════════════════════════════
// 工具描述
// ═══════════════════════════════════════════════════════════════════════════

// Tool 工具描述接口
//
// 接口是开放的：调用方可以在多个后端之间共享同一个工具列表，
// 本协议不认识的工具类型会被忽略。
type Tool interface {
	ToolName() string
}

// FunctionTool 客户端函数，由调用方执行
type FunctionTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"` // JSON Schema
	Strict      bool           `json:"strict,omitempty"`
}

// WebSearchTool 托管网页搜索
//
// AllowedDomains 与 ExcludedDomains 互斥。
type WebSearchTool struct {
	AllowedDomains           []string      `json:"allowed_domains,omitempty"`
	ExcludedDomains          []string      `json:"excluded_domains,omitempty"`
	EnableImageUnderstanding bool          `json:"enable_image_understanding,omitempty"`
	UserLocation             *UserLocation `json:"user_location,omitempty"`
}

// UserLocation 近似用户位置
type UserLocation struct {
	Country  string `json:"country,omitempty"`
	Region   string `json:"region,omitempty"`
	City     string `json:"city,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// IsZero 所有字段为空
func (l *UserLocation) IsZero() bool {
	return l == nil || l.Country == "" && l.Region == "" && l.City == "" && l.Timezone == ""
}

// XSearchTool 托管 X（社交平台）搜索
//
// AllowedHandles 与 ExcludedHandles 互斥。日期只取日历日，
// 发送时转换为该日的 UTC 零点。
type XSearchTool struct {
	AllowedHandles           []string   `json:"allowed_handles,omitempty"`
	ExcludedHandles          []string   `json:"excluded_handles,omitempty"`
	EnableImageUnderstanding bool       `json:"enable_image_understanding,omitempty"`
	EnableVideoUnderstanding bool       `json:"enable_video_understanding,omitempty"`
	FromDate                 *time.Time `json:"from_date,omitempty"`
	ToDate                   *time.Time `json:"to_date,omitempty"`
}

// CodeInterpreterTool 托管代码执行
type CodeInterpreterTool struct{}

// CollectionSearchTool 托管文档集合搜索
type CollectionSearchTool struct {
	CollectionIDs []string `json:"collection_ids"`
	MaxResults    *int32   `json:"max_results,omitempty"`
	Instructions  string   `json:"instructions,omitempty"`

	// Extra 扩展属性，Instructions 为空时读取其中的 "instructions"
	Extra map[string]any `json:"extra,omitempty"`
}

// McpServerTool 托管 MCP 服务器
type McpServerTool struct {
	Label              string            `json:"label"`
	Description        string            `json:"description,omitempty"`
	URL                string            `json:"url"`
	AuthorizationToken string            `json:"authorization_token,omitempty"`
	AllowedToolNames   []string          `json:"allowed_tool_names,omitempty"`
	ExtraHeaders       map[string]string `json:"extra_headers,omitempty"`

	// Extra 扩展属性，其中的字符串值作为额外请求头，
	// 与 ExtraHeaders 同名时以 ExtraHeaders 为准
	Extra map[string]any `json:"extra,omitempty"`
}

func (t *FunctionTool) ToolName() string { return t.Name }
func (*WebSearchTool) ToolName() string { return "web_search" }
func (*XSearchTool) ToolName() string { return "x_search" }
func (*CodeInterpreterTool) ToolName() string { return "code_execution" }
func (*CollectionSearchTool) ToolName() string { return ToolNameCollectionsSearch }
func (t *McpServerTool) ToolName() string { return t.Label }

// ═══════════════════════════════════════════════════════════════════════════
// 搜索模式
// ═══════════════════════════════════════════════════════════════════════════

// SearchMode 高层搜索开关（位标志）
type SearchMode uint8

const (
	SearchNone SearchMode = 0
	SearchWeb  SearchMode = 1 << 0
	SearchX    SearchMode = 1 << 1
	SearchAll  SearchMode = SearchWeb | SearchX
)

// Has 判断是否包含指定标志
func (m SearchMode) Has(flag SearchMode) bool {
	return m&flag != 0
}
