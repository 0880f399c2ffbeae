package xai

import (
	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm"
	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/wire"
)

// ═══════════════════════════════════════════════════════════════════════════
// 枚举映射
// ═══════════════════════════════════════════════════════════════════════════

// roleToWire 未知角色按用户消息发送
func roleToWire(r llm.Role) wire.MessageRole {
	switch r {
	case llm.RoleSystem:
		return wire.RoleSystem
	case llm.RoleAssistant:
		return wire.RoleAssistant
	case llm.RoleTool:
		return wire.RoleTool
	default:
		return wire.RoleUser
	}
}

// roleFromWire 未设置的角色视为助手
func roleFromWire(r wire.MessageRole) llm.Role {
	switch r {
	case wire.RoleSystem:
		return llm.RoleSystem
	case wire.RoleUser:
		return llm.RoleUser
	case wire.RoleTool:
		return llm.RoleTool
	default:
		return llm.RoleAssistant
	}
}

func finishReasonFromWire(f wire.FinishReason) llm.FinishReason {
	switch f {
	case wire.ReasonStop:
		return llm.FinishReasonStop
	case wire.ReasonMaxLen, wire.ReasonMaxContext, wire.ReasonTimeLimit:
		return llm.FinishReasonLength
	case wire.ReasonToolCalls:
		return llm.FinishReasonToolCalls
	default:
		return ""
	}
}

var includeToWire = map[llm.IncludeOption]wire.IncludeOption{
	llm.IncludeWebSearchCallOutput:         wire.IncludeWebSearchCallOutput,
	llm.IncludeXSearchCallOutput:           wire.IncludeXSearchCallOutput,
	llm.IncludeCodeExecutionCallOutput:     wire.IncludeCodeExecutionCallOutput,
	llm.IncludeCollectionsSearchCallOutput: wire.IncludeCollectionsSearchCallOutput,
	llm.IncludeAttachmentSearchCallOutput:  wire.IncludeAttachmentSearchCallOutput,
	llm.IncludeMCPCallOutput:               wire.IncludeMCPCallOutput,
	llm.IncludeInlineCitations:             wire.IncludeInlineCitations,
	llm.IncludeVerboseStreaming:            wire.IncludeVerboseStreaming,
}

var reasoningEffortToWire = map[string]wire.ReasoningEffort{
	"low":    wire.ReasoningEffortLow,
	"medium": wire.ReasoningEffortMedium,
	"high":   wire.ReasoningEffortHigh,
}

// ═══════════════════════════════════════════════════════════════════════════
// 值映射
// ═══════════════════════════════════════════════════════════════════════════

func usageFromWire(u *wire.SamplingUsage) *llm.TokenUsage {
	if u == nil {
		return nil
	}
	return &llm.TokenUsage{
		InputTokens:     int64(u.PromptTokens),
		OutputTokens:    int64(u.CompletionTokens),
		TotalTokens:     int64(u.TotalTokens),
		ReasoningTokens: int64(u.ReasoningTokens),
		CachedTokens:    int64(u.CachedPromptTextTokens),
	}
}

// cloneToolCall 复制线上记录，避免与传输层持有的对象共享
func cloneToolCall(tc *wire.ToolCall) *wire.ToolCall {
	if tc == nil {
		return nil
	}
	out := *tc
	if tc.Function != nil {
		fn := *tc.Function
		out.Function = &fn
	}
	return &out
}

func toolCallName(tc *wire.ToolCall) string {
	if tc.Function == nil {
		return ""
	}
	return tc.Function.Name
}

func toolCallArguments(tc *wire.ToolCall) string {
	if tc.Function == nil {
		return ""
	}
	return tc.Function.Arguments
}
