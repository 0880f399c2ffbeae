package llm

import (
	"strings"

	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/wire"
)

// ═══════════════════════════════════════════════════════════════════════════
// 角色定义
// ═══════════════════════════════════════════════════════════════════════════

// Role 消息角色
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ═══════════════════════════════════════════════════════════════════════════
// 消息结构
// ═══════════════════════════════════════════════════════════════════════════

// Message 对话消息
//
// 消息由调用方持有，本层只读取或新建消息，从不原地修改调用方的历史。
type Message struct {
	Role          Role           `json:"role"`
	ContentBlocks []ContentBlock `json:"content_blocks,omitempty"`
}

// NewTextMessage 创建纯文本消息
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, ContentBlocks: []ContentBlock{&TextBlock{Text: text}}}
}

// Text 按顺序拼接所有文本块
func (m *Message) Text() string {
	var sb strings.Builder
	for _, block := range m.ContentBlocks {
		if tb, ok := block.(*TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	return sb.String()
}

// Annotations 收集所有文本块上的引用
func (m *Message) Annotations() []*CitationAnnotation {
	var out []*CitationAnnotation
	for _, block := range m.ContentBlocks {
		if tb, ok := block.(*TextBlock); ok {
			out = append(out, tb.Annotations...)
		}
	}
	return out
}

// FunctionCalls 获取消息中的客户端函数调用
func (m *Message) FunctionCalls() []*FunctionCallBlock {
	var calls []*FunctionCallBlock
	for _, block := range m.ContentBlocks {
		if fc, ok := block.(*FunctionCallBlock); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

// HasToolCalls 检查消息是否包含任意类型的工具调用
func (m *Message) HasToolCalls() bool {
	for _, block := range m.ContentBlocks {
		if IsToolCall(block) {
			return true
		}
	}
	return false
}

// ═══════════════════════════════════════════════════════════════════════════
// 内容块类型
// ═══════════════════════════════════════════════════════════════════════════

// BlockType 内容块类型标识
type BlockType string

const (
	BlockTypeText                   BlockType = "text"
	BlockTypeReasoning              BlockType = "reasoning"
	BlockTypeFunctionCall           BlockType = "function_call"
	BlockTypeFunctionResult         BlockType = "function_result"
	BlockTypeHostedToolCall         BlockType = "hosted_tool_call"
	BlockTypeHostedToolResult       BlockType = "hosted_tool_result"
	BlockTypeCodeInterpreterCall    BlockType = "code_interpreter_call"
	BlockTypeCodeInterpreterResult  BlockType = "code_interpreter_result"
	BlockTypeMcpCall                BlockType = "mcp_call"
	BlockTypeMcpResult              BlockType = "mcp_result"
	BlockTypeCollectionSearchCall   BlockType = "collection_search_call"
	BlockTypeCollectionSearchResult BlockType = "collection_search_result"
)

// ContentBlock 内容块接口
//
// 封闭的和类型：只有本包内的类型可以实现。对其做 type switch 时，
// 新增变体会在所有 switch 处显式体现。
type ContentBlock interface {
	BlockType() BlockType
	contentBlock()
}

// TextBlock 文本块，可携带引用
type TextBlock struct {
	Text        string                `json:"text"`
	Annotations []*CitationAnnotation `json:"annotations,omitempty"`
}

// ReasoningBlock 推理内容
//
// ProtectedData 为服务端返回的加密推理内容，原样回传以延续推理上下文。
type ReasoningBlock struct {
	Text          string `json:"text,omitempty"`
	ProtectedData string `json:"protected_data,omitempty"`
}

// FunctionCallBlock 客户端函数调用
type FunctionCallBlock struct {
	CallID    string         `json:"call_id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`

	// Raw 原始工具调用记录，重发时原样附加
	Raw *wire.ToolCall `json:"-"`
}

// FunctionResultBlock 客户端函数执行结果
//
// Result 为字符串时原样发送，其他值按 JSON 编码。
type FunctionResultBlock struct {
	CallID string `json:"call_id"`
	Result any    `json:"result"`
}

// HostedToolCallBlock 通用托管工具调用（网页搜索、X 搜索等）
type HostedToolCallBlock struct {
	CallID string         `json:"call_id"`
	Raw    *wire.ToolCall `json:"-"`
}

// HostedToolResultBlock 通用托管工具结果
type HostedToolResultBlock struct {
	CallID  string         `json:"call_id"`
	Outputs []ContentBlock `json:"outputs,omitempty"`
}

// CodeInterpreterCallBlock 代码执行调用
type CodeInterpreterCallBlock struct {
	CallID string         `json:"call_id"`
	Raw    *wire.ToolCall `json:"-"`
}

// CodeInterpreterResultBlock 代码执行结果
type CodeInterpreterResultBlock struct {
	CallID  string         `json:"call_id"`
	Outputs []ContentBlock `json:"outputs,omitempty"`
	Raw     *wire.ToolCall `json:"-"`
}

// McpCallBlock MCP 服务器工具调用
type McpCallBlock struct {
	CallID     string         `json:"call_id"`
	ToolName   string         `json:"tool_name"`
	ServerName string         `json:"server_name,omitempty"`
	Raw        *wire.ToolCall `json:"-"`
}

// McpResultBlock MCP 服务器工具结果
type McpResultBlock struct {
	CallID  string         `json:"call_id"`
	Outputs []ContentBlock `json:"outputs,omitempty"`
	Raw     *wire.ToolCall `json:"-"`
}

// CollectionSearchCallBlock 文档集合搜索调用
type CollectionSearchCallBlock struct {
	CallID string         `json:"call_id"`
	Raw    *wire.ToolCall `json:"-"`
}

// CollectionSearchResultBlock 文档集合搜索结果，每个命中文件一项
type CollectionSearchResultBlock struct {
	CallID  string         `json:"call_id"`
	Outputs []*HostedFile  `json:"outputs,omitempty"`
	Raw     *wire.ToolCall `json:"-"`
}

// HostedFile 服务端托管的文件引用
type HostedFile struct {
	FileID      string                `json:"file_id"`
	Name        string                `json:"name,omitempty"`
	Annotations []*CitationAnnotation `json:"annotations,omitempty"`
}

func (*TextBlock) BlockType() BlockType { return BlockTypeText }
func (*ReasoningBlock) BlockType() BlockType { return BlockTypeReasoning }
func (*FunctionCallBlock) BlockType() BlockType { return BlockTypeFunctionCall }
func (*FunctionResultBlock) BlockType() BlockType { return BlockTypeFunctionResult }
func (*HostedToolCallBlock) BlockType() BlockType { return BlockTypeHostedToolCall }
func (*HostedToolResultBlock) BlockType() BlockType { return BlockTypeHostedToolResult }
func (*CodeInterpreterCallBlock) BlockType() BlockType { return BlockTypeCodeInterpreterCall }
func (*CodeInterpreterResultBlock) BlockType() BlockType { return BlockTypeCodeInterpreterResult }
func (*McpCallBlock) BlockType() BlockType { return BlockTypeMcpCall }
func (*McpResultBlock) BlockType() BlockType { return BlockTypeMcpResult }
func (*CollectionSearchCallBlock) BlockType() BlockType { return BlockTypeCollectionSearchCall }
func (*CollectionSearchResultBlock) BlockType() BlockType { return BlockTypeCollectionSearchResult }

func (*TextBlock) contentBlock() {}
func (*ReasoningBlock) contentBlock() {}
func (*FunctionCallBlock) contentBlock() {}
func (*FunctionResultBlock) contentBlock() {}
func (*HostedToolCallBlock) contentBlock() {}
func (*HostedToolResultBlock) contentBlock() {}
func (*CodeInterpreterCallBlock) contentBlock() {}
func (*CodeInterpreterResultBlock) contentBlock() {}
func (*McpCallBlock) contentBlock() {}
func (*McpResultBlock) contentBlock() {}
func (*CollectionSearchCallBlock) contentBlock() {}
func (*CollectionSearchResultBlock) contentBlock() {}

// ═══════════════════════════════════════════════════════════════════════════
// 辅助函数
// ═══════════════════════════════════════════════════════════════════════════

// IsToolCall 判断内容块是否为某种工具调用
func IsToolCall(block ContentBlock) bool {
	switch block.(type) {
	case *FunctionCallBlock, *HostedToolCallBlock, *CodeInterpreterCallBlock,
		*McpCallBlock, *CollectionSearchCallBlock:
		return true
	default:
		return false
	}
}

// CallID 返回调用或结果块的调用 ID，文本与推理块返回空串
func CallID(block ContentBlock) string {
	switch b := block.(type) {
	case *FunctionCallBlock:
		return b.CallID
	case *FunctionResultBlock:
		return b.CallID
	case *HostedToolCallBlock:
		return b.CallID
	case *HostedToolResultBlock:
		return b.CallID
	case *CodeInterpreterCallBlock:
		return b.CallID
	case *CodeInterpreterResultBlock:
		return b.CallID
	case *McpCallBlock:
		return b.CallID
	case *McpResultBlock:
		return b.CallID
	case *CollectionSearchCallBlock:
		return b.CallID
	case *CollectionSearchResultBlock:
		return b.CallID
	default:
		return ""
	}
}

// RawToolCall 返回内容块携带的原始线上工具调用记录
func RawToolCall(block ContentBlock) *wire.ToolCall {
	switch b := block.(type) {
	case *FunctionCallBlock:
		return b.Raw
	case *HostedToolCallBlock:
		return b.Raw
	case *CodeInterpreterCallBlock:
		return b.Raw
	case *CodeInterpreterResultBlock:
		return b.Raw
	case *McpCallBlock:
		return b.Raw
	case *McpResultBlock:
		return b.Raw
	case *CollectionSearchCallBlock:
		return b.Raw
	case *CollectionSearchResultBlock:
		return b.Raw
	default:
		return nil
	}
}
