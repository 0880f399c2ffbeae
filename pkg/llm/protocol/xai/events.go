package xai

import (
	"slices"

	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm"
	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/wire"
)

// ═══════════════════════════════════════════════════════════════════════════
// 流式聚合器
// ═══════════════════════════════════════════════════════════════════════════

// StreamAggregator 将流式分块转换为增量更新
//
// 每个流一个实例，不可跨流复用，也不能并发调用。引用去重状态只在
// 本实例内有效：已经在前面分块中出现过的引用不会再次发出。
//
// 角色通常只出现在每个输出的第一个增量中，聚合器按输出索引记住它，
// 后续更新沿用同一角色。
//
// 流中途不做工具调用与结果的配对；需要配对时，收集全部分块后用
// [AccumulateChunks] 重放，再交给 [MapResponse]。
type StreamAggregator struct {
	seen   citationSet
	roles  map[int32]llm.Role
	closed bool
}

// NewStreamAggregator 创建聚合器
func NewStreamAggregator() *StreamAggregator {
	return &StreamAggregator{
		seen:  make(citationSet),
		roles: make(map[int32]llm.Role),
	}
}

// Close 结束聚合并丢弃累积状态
func (a *StreamAggregator) Close() {
	a.closed = true
	a.seen = nil
	a.roles = nil
}

// HandleChunk 处理单个分块
//
// 每个输出生成一个更新（更新的 Index 即输出索引）。分块携带新引用时，
// 引用挂在第一个输出的文本块上，必要时补一个空文本块。
// 不含任何内容块的更新被丢弃。
func (a *StreamAggregator) HandleChunk(chunk *wire.GetChatCompletionChunk) ([]*llm.Update, error) {
	if a.closed {
		return nil, llm.NewStreamError("aggregator is closed", nil)
	}
	if chunk == nil {
		return nil, nil
	}

	var newURIs []string
	for _, uri := range chunk.Citations {
		if a.seen.addURI(uri) {
			newURIs = append(newURIs, uri)
		}
	}

	updates := make([]*llm.Update, 0, len(chunk.Outputs))
	for _, output := range chunk.Outputs {
		if output == nil {
			continue
		}
		update, err := a.outputUpdate(chunk, output)
		if err != nil {
			return nil, err
		}
		updates = append(updates, update)
	}

	if len(newURIs) > 0 {
		if len(updates) == 0 {
			updates = append(updates, &llm.Update{
				Role:       a.role(0),
				ResponseID: chunk.ID,
				Model:      chunk.Model,
				CreatedAt:  cloneTime(chunk.Created),
			})
		}
		text := ensureText(updates[0])
		annotations := make([]*llm.CitationAnnotation, 0, len(newURIs))
		for _, uri := range newURIs {
			annotations = append(annotations, CitationFromURI(uri))
		}
		text.Annotations = append(annotations, text.Annotations...)
	}

	return slices.DeleteFunc(updates, func(u *llm.Update) bool {
		return len(u.ContentBlocks) == 0
	}), nil
}

func (a *StreamAggregator) outputUpdate(chunk *wire.GetChatCompletionChunk, output *wire.CompletionOutputChunk) (*llm.Update, error) {
	if d := output.Delta; d != nil && d.Role != wire.RoleInvalid {
		if _, ok := a.roles[output.Index]; !ok {
			a.roles[output.Index] = roleFromWire(d.Role)
		}
	}

	update := &llm.Update{
		Role:         a.role(output.Index),
		Index:        int(output.Index),
		ResponseID:   chunk.ID,
		Model:        chunk.Model,
		CreatedAt:    cloneTime(chunk.Created),
		FinishReason: finishReasonFromWire(output.FinishReason),
	}

	delta := output.Delta
	if delta == nil {
		return update, nil
	}

	if delta.ReasoningContent != "" || delta.EncryptedContent != "" {
		update.ContentBlocks = append(update.ContentBlocks, &llm.ReasoningBlock{
			Text:          delta.ReasoningContent,
			ProtectedData: delta.EncryptedContent,
		})
	}

	if delta.Content != "" {
		update.ContentBlocks = append(update.ContentBlocks, &llm.TextBlock{Text: delta.Content})
	}

	var annotations []*llm.CitationAnnotation
	for _, c := range delta.Citations {
		if c != nil && a.seen.addInline(c) {
			annotations = append(annotations, CitationsFromInline(c)...)
		}
	}
	if len(annotations) > 0 {
		text := ensureText(update)
		text.Annotations = append(text.Annotations, annotations...)
	}

	for _, tc := range delta.ToolCalls {
		block, err := mapToolCall(tc)
		if err != nil {
			return nil, err
		}
		if block != nil {
			update.ContentBlocks = append(update.ContentBlocks, block)
		}
	}
	return update, nil
}

// role 输出索引上第一次出现的角色，未出现时为助手
func (a *StreamAggregator) role(index int32) llm.Role {
	if r, ok := a.roles[index]; ok {
		return r
	}
	return llm.RoleAssistant
}

// ensureText 返回更新中的第一个文本块，没有时在推理块之后插入一个空文本块
func ensureText(u *llm.Update) *llm.TextBlock {
	for _, block := range u.ContentBlocks {
		if tb, ok := block.(*llm.TextBlock); ok {
			return tb
		}
	}
	tb := &llm.TextBlock{}
	pos := 0
	if len(u.ContentBlocks) > 0 {
		if _, ok := u.ContentBlocks[0].(*llm.ReasoningBlock); ok {
			pos = 1
		}
	}
	u.ContentBlocks = slices.Insert(u.ContentBlocks, pos, llm.ContentBlock(tb))
	return tb
}

// ═══════════════════════════════════════════════════════════════════════════
// 分块重放
// ═══════════════════════════════════════════════════════════════════════════

// AccumulateChunks 将一个流的全部分块重放为等价的非流式响应
//
// 同一索引的文本、推理内容按顺序拼接，工具调用与内联引用按顺序追加，
// 完成原因取最后一个非哨兵值，消息级引用保序去重。
// 重放结果交给 [MapResponse] 即可恢复工具调用与结果的配对。
func AccumulateChunks(chunks []*wire.GetChatCompletionChunk) *wire.GetChatCompletionResponse {
	resp := &wire.GetChatCompletionResponse{}
	byIndex := make(map[int32]*wire.CompletionOutput)
	seen := make(citationSet)

	for _, chunk := range chunks {
		if chunk == nil {
			continue
		}
		if chunk.ID != "" {
			resp.ID = chunk.ID
		}
		if chunk.Model != "" {
			resp.Model = chunk.Model
		}
		if chunk.Created != nil {
			resp.Created = cloneTime(chunk.Created)
		}
		if chunk.SystemFingerprint != "" {
			resp.SystemFingerprint = chunk.SystemFingerprint
		}
		if chunk.Usage != nil {
			usage := *chunk.Usage
			resp.Usage = &usage
		}
		for _, uri := range chunk.Citations {
			if seen.addURI(uri) {
				resp.Citations = append(resp.Citations, uri)
			}
		}

		for _, oc := range chunk.Outputs {
			if oc == nil {
				continue
			}
			out, ok := byIndex[oc.Index]
			if !ok {
				out = &wire.CompletionOutput{Index: oc.Index, Message: &wire.CompletionMessage{}}
				byIndex[oc.Index] = out
			}
			if oc.FinishReason != wire.ReasonInvalid {
				out.FinishReason = oc.FinishReason
			}
			if d := oc.Delta; d != nil {
				msg := out.Message
				if msg.Role == wire.RoleInvalid {
					msg.Role = d.Role
				}
				msg.Content += d.Content
				msg.ReasoningContent += d.ReasoningContent
				msg.EncryptedContent += d.EncryptedContent
				for _, tc := range d.ToolCalls {
					msg.ToolCalls = append(msg.ToolCalls, cloneToolCall(tc))
				}
				msg.Citations = append(msg.Citations, d.Citations...)
			}
		}
	}

	for _, out := range byIndex {
		resp.Outputs = append(resp.Outputs, out)
	}
	slices.SortFunc(resp.Outputs, func(a, b *wire.CompletionOutput) int {
		return int(a.Index) - int(b.Index)
	})
	return resp
}
