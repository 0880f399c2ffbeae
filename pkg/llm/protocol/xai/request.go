package xai

import (
	"log/slog"

	"github.com/bytedance/sonic"

	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm"
	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/wire"
)

// ═══════════════════════════════════════════════════════════════════════════
// 请求构建器
// ═══════════════════════════════════════════════════════════════════════════

// RequestBuilder 将消息历史与选项组装为线上请求
//
// 关键协议差异：
//  1. 函数结果必须展开为独立的 Tool 角色消息
//  2. 只有工具调用的消息必须带一个空文本段，服务端拒绝空内容列表
//  3. 助手轮次重发时，原始工具调用记录原样附加
//  4. 默认包含内联引用输出
type RequestBuilder struct {
	// DefaultModel 选项未指定模型时使用
	DefaultModel string

	// EndUserID 选项未指定终端用户时使用
	EndUserID string

	Logger *slog.Logger
}

// NewRequestBuilder 创建请求构建器
func NewRequestBuilder(model, user string) *RequestBuilder {
	return &RequestBuilder{DefaultModel: model, EndUserID: user}
}

func (b *RequestBuilder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// Build 构建线上请求
//
// 构建顺序：
//  1. 以 opts.RawRequest 的副本为起点，否则新建请求（默认包含内联引用）
//  2. 应用非 nil 的标量选项和响应格式
//  3. 逐条翻译消息
//  4. 按 opts.Search 前置搜索工具，然后翻译显式工具列表，未知工具跳过
//  5. opts.Include 非 nil 时替换包含项
//
// 过滤列表冲突返回 [llm.ConflictingFilterError]，响应格式不受支持返回
// [llm.UnsupportedResponseFormatError]，两者都在任何网络调用之前发生。
// 调用方传入的消息、工具与原始请求都不会被修改。
func (b *RequestBuilder) Build(messages []llm.Message, opts *llm.Options) (*wire.GetCompletionsRequest, error) {
	if opts == nil {
		opts = &llm.Options{}
	}

	req, err := b.baseRequest(opts)
	if err != nil {
		return nil, err
	}

	if err := b.applyScalars(req, opts); err != nil {
		return nil, err
	}

	for i := range messages {
		req.Messages = append(req.Messages, b.convertMessage(&messages[i])...)
	}

	skipped, err := b.appendTools(req, opts)
	if err != nil {
		return nil, err
	}

	if opts.Include != nil {
		req.Include = convertIncludes(opts.Include)
	}

	b.logger().Debug("xai request built",
		"model", req.Model,
		"messages", len(req.Messages),
		"tools", len(req.Tools),
		"skipped_tools", skipped,
	)
	return req, nil
}

func (b *RequestBuilder) baseRequest(opts *llm.Options) (*wire.GetCompletionsRequest, error) {
	model := opts.ModelID
	if model == "" {
		model = b.DefaultModel
	}

	if opts.RawRequest == nil {
		return &wire.GetCompletionsRequest{
			Model:   model,
			Include: []wire.IncludeOption{wire.IncludeInlineCitations},
		}, nil
	}

	req, err := wire.CloneRequest(opts.RawRequest)
	if err != nil {
		return nil, llm.NewRequestError("clone raw request", err)
	}
	if opts.ModelID != "" || req.Model == "" {
		req.Model = model
	}
	return req, nil
}

func (b *RequestBuilder) applyScalars(req *wire.GetCompletionsRequest, opts *llm.Options) error {
	if opts.EndUserID != "" {
		req.User = opts.EndUserID
	} else if b.EndUserID != "" && req.User == "" {
		req.User = b.EndUserID
	}
	if opts.MaxOutputTokens != nil {
		req.MaxTokens = llm.Ptr(*opts.MaxOutputTokens)
	}
	if opts.Temperature != nil {
		req.Temperature = llm.Ptr(*opts.Temperature)
	}
	if opts.TopP != nil {
		req.TopP = llm.Ptr(*opts.TopP)
	}
	if opts.FrequencyPenalty != nil {
		req.FrequencyPenalty = llm.Ptr(*opts.FrequencyPenalty)
	}
	if opts.PresencePenalty != nil {
		req.PresencePenalty = llm.Ptr(*opts.PresencePenalty)
	}
	if opts.Seed != nil {
		req.Seed = llm.Ptr(*opts.Seed)
	}
	if len(opts.StopSequences) > 0 {
		req.Stop = append([]string(nil), opts.StopSequences...)
	}
	if opts.ParallelToolCalls != nil {
		req.ParallelToolCalls = llm.Ptr(*opts.ParallelToolCalls)
	}
	if effort, ok := reasoningEffortToWire[opts.ReasoningEffort]; ok {
		req.ReasoningEffort = effort
	}
	if opts.UseEncryptedContent {
		req.UseEncryptedContent = true
	}

	if opts.ResponseFormat != nil {
		format, err := convertResponseFormat(opts.ResponseFormat)
		if err != nil {
			return err
		}
		req.ResponseFormat = format
	}
	return nil
}

func convertResponseFormat(rf *llm.ResponseFormat) (*wire.ResponseFormat, error) {
	switch rf.Type {
	case llm.ResponseFormatText:
		return &wire.ResponseFormat{FormatType: wire.FormatTypeText}, nil
	case llm.ResponseFormatJSONObject:
		return &wire.ResponseFormat{FormatType: wire.FormatTypeJSONObject}, nil
	case llm.ResponseFormatJSONSchema:
		out := &wire.ResponseFormat{FormatType: wire.FormatTypeJSONSchema}
		if rf.Schema != nil {
			schema, err := sonic.MarshalString(rf.Schema)
			if err != nil {
				return nil, llm.NewRequestError("marshal response schema", err)
			}
			out.Schema = schema
		}
		return out, nil
	default:
		return nil, llm.NewUnsupportedResponseFormatError(rf.Type)
	}
}

func convertIncludes(in []llm.IncludeOption) []wire.IncludeOption {
	out := make([]wire.IncludeOption, 0, len(in))
	for _, opt := range in {
		if v, ok := includeToWire[opt]; ok {
			out = append(out, v)
		}
	}
	return out
}

// ═══════════════════════════════════════════════════════════════════════════
// 消息翻译
// ═══════════════════════════════════════════════════════════════════════════

// convertMessage 翻译单条消息
//
// 返回主消息（可能被丢弃）及其后的独立 Tool 角色消息。
func (b *RequestBuilder) convertMessage(msg *llm.Message) []*wire.Message {
	main := &wire.Message{Role: roleToWire(msg.Role)}
	var standalone []*wire.Message

	for _, block := range msg.ContentBlocks {
		switch blk := block.(type) {
		case *llm.TextBlock:
			if blk.Text == "" {
				continue
			}
			main.Content = append(main.Content, &wire.Content{Text: blk.Text})

		case *llm.ReasoningBlock:
			main.ReasoningContent += blk.Text
			main.EncryptedContent += blk.ProtectedData

		case *llm.FunctionCallBlock:
			if blk.Raw != nil {
				main.ToolCalls = append(main.ToolCalls, cloneToolCall(blk.Raw))
				continue
			}
			main.ToolCalls = append(main.ToolCalls, synthesizeFunctionCall(blk))

		case *llm.HostedToolCallBlock, *llm.CodeInterpreterCallBlock,
			*llm.McpCallBlock, *llm.CollectionSearchCallBlock:
			raw := llm.RawToolCall(blk)
			if raw == nil {
				b.logger().Debug("xai tool call without raw record skipped", "call_id", llm.CallID(blk))
				continue
			}
			main.ToolCalls = append(main.ToolCalls, cloneToolCall(raw))

		case *llm.FunctionResultBlock:
			standalone = append(standalone, &wire.Message{
				Role:       wire.RoleTool,
				ToolCallID: blk.CallID,
				Content:    []*wire.Content{{Text: functionResultText(blk.Result)}},
			})

		case *llm.McpResultBlock:
			if m := hostedResultMessage(blk.Outputs, blk.Raw); m != nil {
				standalone = append(standalone, m)
			}

		case *llm.CodeInterpreterResultBlock:
			if m := hostedResultMessage(blk.Outputs, blk.Raw); m != nil {
				standalone = append(standalone, m)
			}

		default:
			b.logger().Debug("xai content block skipped", "type", block.BlockType())
		}
	}

	var out []*wire.Message
	switch {
	case len(main.Content) > 0:
		out = append(out, main)
	case len(main.ToolCalls) > 0:
		main.Content = []*wire.Content{{Text: ""}}
		out = append(out, main)
	case main.ReasoningContent != "" || main.EncryptedContent != "":
		b.logger().Debug("xai reasoning-only message skipped", "role", msg.Role)
	}
	return append(out, standalone...)
}

// synthesizeFunctionCall 为没有原始记录的函数调用构造客户端工具调用
func synthesizeFunctionCall(fc *llm.FunctionCallBlock) *wire.ToolCall {
	args := "{}"
	if fc.Arguments != nil {
		if s, err := sonic.MarshalString(fc.Arguments); err == nil {
			args = s
		}
	}
	return &wire.ToolCall{
		ID:   fc.CallID,
		Type: wire.ToolCallTypeClientSide,
		Function: &wire.FunctionCall{
			Name:      fc.Name,
			Arguments: args,
		},
	}
}

// functionResultText 字符串结果原样发送，其余序列化为 JSON
func functionResultText(result any) string {
	if s, ok := result.(string); ok {
		return s
	}
	s, err := sonic.MarshalString(result)
	if err != nil {
		return ""
	}
	return s
}

// hostedResultMessage 只有一个文本输出且带原始记录的结果转换为 Tool 角色消息
func hostedResultMessage(outputs []llm.ContentBlock, raw *wire.ToolCall) *wire.Message {
	if raw == nil || len(outputs) != 1 {
		return nil
	}
	text, ok := outputs[0].(*llm.TextBlock)
	if !ok {
		return nil
	}
	return &wire.Message{
		Role:      wire.RoleTool,
		Content:   []*wire.Content{{Text: text.Text}},
		ToolCalls: []*wire.ToolCall{cloneToolCall(raw)},
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 工具声明
// ═══════════════════════════════════════════════════════════════════════════

// appendTools 翻译工具列表，返回跳过的工具数
func (b *RequestBuilder) appendTools(req *wire.GetCompletionsRequest, opts *llm.Options) (int, error) {
	tools := make([]llm.Tool, 0, len(opts.Tools)+2)
	if opts.Search.Has(llm.SearchWeb) {
		tools = append(tools, &llm.WebSearchTool{})
	}
	if opts.Search.Has(llm.SearchX) {
		tools = append(tools, &llm.XSearchTool{})
	}
	tools = append(tools, opts.Tools...)

	skipped := 0
	for _, tool := range tools {
		if tool == nil {
			skipped++
			continue
		}
		wt, err := ToWire(tool)
		if err != nil {
			return 0, err
		}
		if wt == nil {
			skipped++
			b.logger().Debug("xai tool skipped", "tool", tool.ToolName())
			continue
		}
		req.Tools = append(req.Tools, wt)
	}
	return skipped, nil
}
