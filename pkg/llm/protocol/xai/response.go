package xai

import (
	"errors"
	"slices"

	"github.com/bytedance/sonic"

	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm"
	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/wire"
)

// ═══════════════════════════════════════════════════════════════════════════
// 非流式响应映射
// ═══════════════════════════════════════════════════════════════════════════

// MapResponse 将完整的线上响应映射为一条消息
//
// 映射规则：
//   - 索引最大的输出决定消息角色和完成原因；没有输出时返回只带元数据的空助手消息
//   - 按索引顺序处理每个输出：推理内容、文本（附带去重后的引用）、工具调用
//   - 角色为 Tool 且只有一个 MCP/代码执行/文档搜索调用的输出，还原为调用+结果对
//
// 工具参数或结果无法解析时返回 [llm.MalformedToolPayloadError]，不返回部分结果。
func MapResponse(resp *wire.GetChatCompletionResponse) (*llm.Response, error) {
	if resp == nil {
		return nil, llm.NewResponseError("response", errors.New("nil response"))
	}

	out := &llm.Response{
		ID:        resp.ID,
		Model:     resp.Model,
		CreatedAt: cloneTime(resp.Created),
		Usage:     usageFromWire(resp.Usage),
		Message:   llm.Message{Role: llm.RoleAssistant},
	}

	outputs := sortedOutputs(resp.Outputs)
	if len(outputs) == 0 {
		return out, nil
	}

	last := outputs[len(outputs)-1]
	out.FinishReason = finishReasonFromWire(last.FinishReason)
	if last.Message != nil {
		out.Message.Role = roleFromWire(last.Message.Role)
	}

	citations := distinct(resp.Citations)
	for _, output := range outputs {
		blocks, err := mapCompletionMessage(output.Message, citations)
		if err != nil {
			return nil, err
		}
		out.Message.ContentBlocks = append(out.Message.ContentBlocks, blocks...)
	}
	return out, nil
}

// sortedOutputs 按索引稳定排序，忽略 nil
func sortedOutputs(outputs []*wire.CompletionOutput) []*wire.CompletionOutput {
	out := make([]*wire.CompletionOutput, 0, len(outputs))
	for _, o := range outputs {
		if o != nil {
			out = append(out, o)
		}
	}
	slices.SortStableFunc(out, func(a, b *wire.CompletionOutput) int {
		return int(a.Index) - int(b.Index)
	})
	return out
}

func mapCompletionMessage(msg *wire.CompletionMessage, citations []string) ([]llm.ContentBlock, error) {
	if msg == nil {
		return nil, nil
	}

	var blocks []llm.ContentBlock
	if msg.ReasoningContent != "" || msg.EncryptedContent != "" {
		blocks = append(blocks, &llm.ReasoningBlock{
			Text:          msg.ReasoningContent,
			ProtectedData: msg.EncryptedContent,
		})
	}

	if text := msg.Content; text != "" {
		if msg.Role == wire.RoleTool && len(msg.ToolCalls) == 1 && msg.ToolCalls[0] != nil {
			paired, ok, err := pairToolOutput(msg.ToolCalls[0], text)
			if err != nil {
				return nil, err
			}
			if ok {
				return append(blocks, paired...), nil
			}
		}
		blocks = append(blocks, &llm.TextBlock{
			Text:        text,
			Annotations: mapCitations(citations, msg.Citations),
		})
	}

	for _, tc := range msg.ToolCalls {
		block, err := mapToolCall(tc)
		if err != nil {
			return nil, err
		}
		if block != nil {
			blocks = append(blocks, block)
		}
	}
	return blocks, nil
}

// pairToolOutput 还原工具输出的调用+结果对
//
// 线上格式把工具结果放在角色为 Tool 的输出文本里，这里把它与唯一的
// 工具调用配对。文档搜索结果中没有 search_matches 时不配对，按普通文本处理。
func pairToolOutput(tc *wire.ToolCall, text string) ([]llm.ContentBlock, bool, error) {
	switch tc.Type {
	case wire.ToolCallTypeMCP:
		return []llm.ContentBlock{
			&llm.McpCallBlock{CallID: tc.ID, ToolName: toolCallName(tc), Raw: cloneToolCall(tc)},
			&llm.McpResultBlock{CallID: tc.ID, Outputs: []llm.ContentBlock{&llm.TextBlock{Text: text}}, Raw: cloneToolCall(tc)},
		}, true, nil

	case wire.ToolCallTypeCodeExecution:
		return []llm.ContentBlock{
			&llm.CodeInterpreterCallBlock{CallID: tc.ID, Raw: cloneToolCall(tc)},
			&llm.CodeInterpreterResultBlock{CallID: tc.ID, Outputs: []llm.ContentBlock{&llm.TextBlock{Text: text}}, Raw: cloneToolCall(tc)},
		}, true, nil

	case wire.ToolCallTypeCollectionsSearch:
		result, ok, err := ParseCollectionSearchResult(tc.ID, tc, text)
		if err != nil || !ok {
			return nil, false, err
		}
		return []llm.ContentBlock{
			&llm.CollectionSearchCallBlock{CallID: tc.ID, Raw: cloneToolCall(tc)},
			result,
		}, true, nil

	default:
		return nil, false, nil
	}
}

// mapCitations 合并消息级字符串引用与内联引用
//
// 去重在映射之前按线上值进行。
func mapCitations(uris []string, inline []*wire.InlineCitation) []*llm.CitationAnnotation {
	var out []*llm.CitationAnnotation
	for _, uri := range uris {
		out = append(out, CitationFromURI(uri))
	}
	seen := make(citationSet)
	for _, c := range inline {
		if c == nil || !seen.addInline(c) {
			continue
		}
		out = append(out, CitationsFromInline(c)...)
	}
	return out
}

// mapToolCall 按调用类型映射单个工具调用
func mapToolCall(tc *wire.ToolCall) (llm.ContentBlock, error) {
	if tc == nil {
		return nil, nil
	}
	raw := cloneToolCall(tc)

	switch tc.Type {
	case wire.ToolCallTypeClientSide:
		fc := &llm.FunctionCallBlock{CallID: tc.ID, Name: toolCallName(tc), Raw: raw}
		if args := toolCallArguments(tc); args != "" {
			if err := sonic.UnmarshalString(args, &fc.Arguments); err != nil {
				return nil, llm.NewMalformedToolPayloadError(tc.ID, "arguments", err)
			}
		}
		return fc, nil
	case wire.ToolCallTypeMCP:
		return &llm.McpCallBlock{CallID: tc.ID, ToolName: toolCallName(tc), Raw: raw}, nil
	case wire.ToolCallTypeCodeExecution:
		return &llm.CodeInterpreterCallBlock{CallID: tc.ID, Raw: raw}, nil
	case wire.ToolCallTypeCollectionsSearch:
		return &llm.CollectionSearchCallBlock{CallID: tc.ID, Raw: raw}, nil
	default:
		return &llm.HostedToolCallBlock{CallID: tc.ID, Raw: raw}, nil
	}
}
