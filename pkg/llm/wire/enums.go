package wire

import "fmt"

// ═══════════════════════════════════════════════════════════════════════════
// 枚举类型
//
// 与 protobuf 枚举一致：零值为 *_INVALID 哨兵，JSON 编码使用枚举名称。
// ═══════════════════════════════════════════════════════════════════════════

// MessageRole 消息角色
type MessageRole int32

const (
	RoleInvalid   MessageRole = 0
	RoleUser      MessageRole = 1
	RoleAssistant MessageRole = 2
	RoleSystem    MessageRole = 3
	RoleFunction  MessageRole = 4 // 已废弃，保留编号
	RoleTool      MessageRole = 5
)

var messageRoleNames = map[MessageRole]string{
	RoleInvalid:   "INVALID_ROLE",
	RoleUser:      "ROLE_USER",
	RoleAssistant: "ROLE_ASSISTANT",
	RoleSystem:    "ROLE_SYSTEM",
	RoleFunction:  "ROLE_FUNCTION",
	RoleTool:      "ROLE_TOOL",
}

func (r MessageRole) String() string { return enumString(messageRoleNames, r) }

// MarshalText 实现 encoding.TextMarshaler
func (r MessageRole) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText 实现 encoding.TextUnmarshaler
func (r *MessageRole) UnmarshalText(b []byte) error { return enumParse(messageRoleNames, b, r) }

// ToolCallType 工具调用类型
type ToolCallType int32

const (
	ToolCallTypeInvalid           ToolCallType = 0
	ToolCallTypeClientSide        ToolCallType = 1
	ToolCallTypeWebSearch         ToolCallType = 2
	ToolCallTypeXSearch           ToolCallType = 3
	ToolCallTypeCodeExecution     ToolCallType = 4
	ToolCallTypeCollectionsSearch ToolCallType = 5
	ToolCallTypeMCP               ToolCallType = 6
)

var toolCallTypeNames = map[ToolCallType]string{
	ToolCallTypeInvalid:           "TOOL_CALL_TYPE_INVALID",
	ToolCallTypeClientSide:        "TOOL_CALL_TYPE_CLIENT_SIDE_TOOL",
	ToolCallTypeWebSearch:         "TOOL_CALL_TYPE_WEB_SEARCH_TOOL",
	ToolCallTypeXSearch:           "TOOL_CALL_TYPE_X_SEARCH_TOOL",
	ToolCallTypeCodeExecution:     "TOOL_CALL_TYPE_CODE_EXECUTION_TOOL",
	ToolCallTypeCollectionsSearch: "TOOL_CALL_TYPE_COLLECTIONS_SEARCH_TOOL",
	ToolCallTypeMCP:               "TOOL_CALL_TYPE_MCP_TOOL",
}

func (t ToolCallType) String() string { return enumString(toolCallTypeNames, t) }

// MarshalText 实现 encoding.TextMarshaler
func (t ToolCallType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText 实现 encoding.TextUnmarshaler
func (t *ToolCallType) UnmarshalText(b []byte) error { return enumParse(toolCallTypeNames, b, t) }

// ToolCallStatus 服务端工具调用状态
type ToolCallStatus int32

const (
	ToolCallStatusInProgress ToolCallStatus = 0
	ToolCallStatusCompleted  ToolCallStatus = 1
	ToolCallStatusIncomplete ToolCallStatus = 2
	ToolCallStatusFailed     ToolCallStatus = 3
)

var toolCallStatusNames = map[ToolCallStatus]string{
	ToolCallStatusInProgress: "TOOL_CALL_STATUS_IN_PROGRESS",
	ToolCallStatusCompleted:  "TOOL_CALL_STATUS_COMPLETED",
	ToolCallStatusIncomplete: "TOOL_CALL_STATUS_INCOMPLETE",
	ToolCallStatusFailed:     "TOOL_CALL_STATUS_FAILED",
}

func (s ToolCallStatus) String() string { return enumString(toolCallStatusNames, s) }

// MarshalText 实现 encoding.TextMarshaler
func (s ToolCallStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText 实现 encoding.TextUnmarshaler
func (s *ToolCallStatus) UnmarshalText(b []byte) error { return enumParse(toolCallStatusNames, b, s) }

// FinishReason 完成原因
type FinishReason int32

const (
	// ReasonInvalid 流式分块中表示"尚未完成"
	ReasonInvalid    FinishReason = 0
	ReasonMaxLen     FinishReason = 1
	ReasonMaxContext FinishReason = 2
	ReasonStop       FinishReason = 3
	ReasonToolCalls  FinishReason = 4
	ReasonTimeLimit  FinishReason = 5
)

var finishReasonNames = map[FinishReason]string{
	ReasonInvalid:    "REASON_INVALID",
	ReasonMaxLen:     "REASON_MAX_LEN",
	ReasonMaxContext: "REASON_MAX_CONTEXT",
	ReasonStop:       "REASON_STOP",
	ReasonToolCalls:  "REASON_TOOL_CALLS",
	ReasonTimeLimit:  "REASON_TIME_LIMIT",
}

func (f FinishReason) String() string { return enumString(finishReasonNames, f) }

// MarshalText 实现 encoding.TextMarshaler
func (f FinishReason) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText 实现 encoding.TextUnmarshaler
func (f *FinishReason) UnmarshalText(b []byte) error { return enumParse(finishReasonNames, b, f) }

// FormatType 响应格式类型
type FormatType int32

const (
	FormatTypeInvalid    FormatType = 0
	FormatTypeText       FormatType = 1
	FormatTypeJSONObject FormatType = 2
	FormatTypeJSONSchema FormatType = 3
)

var formatTypeNames = map[FormatType]string{
	FormatTypeInvalid:    "FORMAT_TYPE_INVALID",
	FormatTypeText:       "FORMAT_TYPE_TEXT",
	FormatTypeJSONObject: "FORMAT_TYPE_JSON_OBJECT",
	FormatTypeJSONSchema: "FORMAT_TYPE_JSON_SCHEMA",
}

func (f FormatType) String() string { return enumString(formatTypeNames, f) }

// MarshalText 实现 encoding.TextMarshaler
func (f FormatType) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText 实现 encoding.TextUnmarshaler
func (f *FormatType) UnmarshalText(b []byte) error { return enumParse(formatTypeNames, b, f) }

// IncludeOption 响应中额外包含的输出
type IncludeOption int32

const (
	IncludeInvalid                     IncludeOption = 0
	IncludeWebSearchCallOutput         IncludeOption = 1
	IncludeXSearchCallOutput           IncludeOption = 2
	IncludeCodeExecutionCallOutput     IncludeOption = 3
	IncludeCollectionsSearchCallOutput IncludeOption = 4
	IncludeAttachmentSearchCallOutput  IncludeOption = 5
	IncludeMCPCallOutput               IncludeOption = 6
	IncludeInlineCitations             IncludeOption = 7
	IncludeVerboseStreaming            IncludeOption = 8
)

var includeOptionNames = map[IncludeOption]string{
	IncludeInvalid:                     "INCLUDE_OPTION_INVALID",
	IncludeWebSearchCallOutput:         "INCLUDE_OPTION_WEB_SEARCH_CALL_OUTPUT",
	IncludeXSearchCallOutput:           "INCLUDE_OPTION_X_SEARCH_CALL_OUTPUT",
	IncludeCodeExecutionCallOutput:     "INCLUDE_OPTION_CODE_EXECUTION_CALL_OUTPUT",
	IncludeCollectionsSearchCallOutput: "INCLUDE_OPTION_COLLECTIONS_SEARCH_CALL_OUTPUT",
	IncludeAttachmentSearchCallOutput:  "INCLUDE_OPTION_ATTACHMENT_SEARCH_CALL_OUTPUT",
	IncludeMCPCallOutput:               "INCLUDE_OPTION_MCP_CALL_OUTPUT",
	IncludeInlineCitations:             "INCLUDE_OPTION_INLINE_CITATIONS",
	IncludeVerboseStreaming:            "INCLUDE_OPTION_VERBOSE_STREAMING",
}

func (o IncludeOption) String() string { return enumString(includeOptionNames, o) }

// MarshalText 实现 encoding.TextMarshaler
func (o IncludeOption) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText 实现 encoding.TextUnmarshaler
func (o *IncludeOption) UnmarshalText(b []byte) error { return enumParse(includeOptionNames, b, o) }

// ReasoningEffort 推理力度
type ReasoningEffort int32

const (
	ReasoningEffortInvalid ReasoningEffort = 0
	ReasoningEffortLow     ReasoningEffort = 1
	ReasoningEffortMedium  ReasoningEffort = 2
	ReasoningEffortHigh    ReasoningEffort = 3
)

var reasoningEffortNames = map[ReasoningEffort]string{
	ReasoningEffortInvalid: "INVALID_EFFORT",
	ReasoningEffortLow:     "EFFORT_LOW",
	ReasoningEffortMedium:  "EFFORT_MEDIUM",
	ReasoningEffortHigh:    "EFFORT_HIGH",
}

func (e ReasoningEffort) String() string { return enumString(reasoningEffortNames, e) }

// MarshalText 实现 encoding.TextMarshaler
func (e ReasoningEffort) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// UnmarshalText 实现 encoding.TextUnmarshaler
func (e *ReasoningEffort) UnmarshalText(b []byte) error {
	return enumParse(reasoningEffortNames, b, e)
}

// ═══════════════════════════════════════════════════════════════════════════
// 辅助函数
// ═══════════════════════════════════════════════════════════════════════════

func enumString[E ~int32](names map[E]string, v E) string {
	if name, ok := names[v]; ok {
		return name
	}
	return fmt.Sprintf("%d", int32(v))
}

func enumParse[E ~int32](names map[E]string, b []byte, dst *E) error {
	s := string(b)
	for v, name := range names {
		if name == s {
			*dst = v
			return nil
		}
	}
	return fmt.Errorf("unknown enum value %q", s)
}
