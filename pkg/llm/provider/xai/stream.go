package xai

import (
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm"
)

// StreamResult 流式解析结果
type StreamResult struct {
	Message      llm.Message      // 聚合后的完整消息
	FinishReason llm.FinishReason // 最后一个输出的完成原因
	ResponseID   string
	Model        string
	CreatedAt    *time.Time
}

// StreamParser 流式更新解析器
//
// 将 [Client.Stream] 产生的更新折叠为完整消息。每个输出索引独立累积：
// 推理内容与加密内容拼接，文本拼接且引用按到达顺序追加，工具调用按顺序追加。
// 折叠结果的内容块顺序与 protocol/xai 的 MapResponse 一致。
type StreamParser struct {
	outputs map[int]*outputBuffer

	responseID   string
	model        string
	createdAt    *time.Time
	finishReason llm.FinishReason
}

type outputBuffer struct {
	role llm.Role

	reasoning    strings.Builder
	protected    strings.Builder
	hasReasoning bool

	text        strings.Builder
	annotations []*llm.CitationAnnotation
	hasText     bool

	tools []llm.ContentBlock

	finishReason llm.FinishReason
}

// NewStreamParser 创建新的流解析器
func NewStreamParser() *StreamParser {
	return &StreamParser{
		outputs: make(map[int]*outputBuffer),
	}
}

// Parse 读取全部更新并返回完整消息
//
// 序列产生错误时停止读取，返回已累积的结果和该错误。
//
// 示例：
//
//	updates, err := client.Stream(ctx, messages, nil)
//	if err != nil {
//	    return err
//	}
//	result, err := xai.NewStreamParser().Parse(updates)
//	fmt.Println(result.Message.Text())
func (p *StreamParser) Parse(updates iter.Seq2[*llm.Update, error]) (StreamResult, error) {
	for update, err := range updates {
		if err != nil {
			return p.Result(), err
		}
		p.Feed(update)
	}
	return p.Result(), nil
}

// Feed 增量喂入单个更新
func (p *StreamParser) Feed(update *llm.Update) {
	if update == nil {
		return
	}

	if update.ResponseID != "" {
		p.responseID = update.ResponseID
	}
	if update.Model != "" {
		p.model = update.Model
	}
	if update.CreatedAt != nil {
		t := *update.CreatedAt
		p.createdAt = &t
	}

	buf, ok := p.outputs[update.Index]
	if !ok {
		buf = &outputBuffer{role: update.Role}
		p.outputs[update.Index] = buf
	}
	if update.FinishReason != "" {
		buf.finishReason = update.FinishReason
	}

	for _, block := range update.ContentBlocks {
		switch b := block.(type) {
		case *llm.ReasoningBlock:
			buf.hasReasoning = true
			buf.reasoning.WriteString(b.Text)
			buf.protected.WriteString(b.ProtectedData)
		case *llm.TextBlock:
			buf.hasText = true
			buf.text.WriteString(b.Text)
			buf.annotations = append(buf.annotations, b.Annotations...)
		default:
			buf.tools = append(buf.tools, block)
		}
	}
}

// CurrentText 获取当前累积的全部文本
func (p *StreamParser) CurrentText() string {
	var sb strings.Builder
	for _, index := range p.indexes() {
		sb.WriteString(p.outputs[index].text.String())
	}
	return sb.String()
}

// Build 构建当前状态的消息
//
// 可以在流式传输过程中调用。
func (p *StreamParser) Build() llm.Message {
	msg := llm.Message{Role: llm.RoleAssistant}
	indexes := p.indexes()
	if len(indexes) > 0 {
		if role := p.outputs[indexes[len(indexes)-1]].role; role != "" {
			msg.Role = role
		}
	}

	for _, index := range indexes {
		buf := p.outputs[index]
		if buf.hasReasoning {
			msg.ContentBlocks = append(msg.ContentBlocks, &llm.ReasoningBlock{
				Text:          buf.reasoning.String(),
				ProtectedData: buf.protected.String(),
			})
		}
		if buf.hasText && (buf.text.Len() > 0 || len(buf.annotations) > 0) {
			msg.ContentBlocks = append(msg.ContentBlocks, &llm.TextBlock{
				Text:        buf.text.String(),
				Annotations: slices.Clone(buf.annotations),
			})
		}
		msg.ContentBlocks = append(msg.ContentBlocks, buf.tools...)
	}
	return msg
}

// Result 构建当前状态的完整结果
func (p *StreamParser) Result() StreamResult {
	result := StreamResult{
		Message:    p.Build(),
		ResponseID: p.responseID,
		Model:      p.model,
		CreatedAt:  p.createdAt,
	}
	if indexes := p.indexes(); len(indexes) > 0 {
		result.FinishReason = p.outputs[indexes[len(indexes)-1]].finishReason
	}
	return result
}

func (p *StreamParser) indexes() []int {
	indexes := make([]int, 0, len(p.outputs))
	for index := range p.outputs {
		indexes = append(indexes, index)
	}
	slices.Sort(indexes)
	return indexes
}

// ParseStream 便捷函数：解析流式更新
//
// 等价于 NewStreamParser().Parse(updates)
func ParseStream(updates iter.Seq2[*llm.Update, error]) (StreamResult, error) {
	return NewStreamParser().Parse(updates)
}
