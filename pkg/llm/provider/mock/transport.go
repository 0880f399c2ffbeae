package mock

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/core"
	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/wire"
)

// defaultChunkSize 每个流式分块的文本字符数
const defaultChunkSize = 8

// CallRecord 记录一次调用的详情
type CallRecord struct {
	Request *wire.GetCompletionsRequest
	Stream  bool
	Time    time.Time
}

// Transport 按脚本应答的 [core.Transport]
//
// 同一轮次的一元响应与流式分块描述同一个服务端输出：
// 把分块交给 AccumulateChunks 重放，结果与一元响应一致。
type Transport struct {
	mu              sync.RWMutex
	response        string                    // 默认响应
	responses       []string                  // 响应队列（依次返回）
	respIdx         int                       // 当前响应索引
	turnFunc        TurnFunc                  // 动态轮次函数
	delay           time.Duration             // 响应延迟
	chunkSize       int                       // 流式分块大小
	err             error                     // 返回错误
	calls           []CallRecord              // 调用记录
	scenarios       map[string]*scenarioState // 场景状态（通过 name 索引）
	currentScenario string                    // 当前使用的场景名称
	now             func() time.Time
}

var _ core.Transport = (*Transport)(nil)

// TurnFunc 动态轮次函数，接收请求和调用次数
type TurnFunc func(req *wire.GetCompletionsRequest, callCount int) Turn

// Option 配置选项函数
type Option func(*Transport)

// New 创建 Mock 传输
//
// 无 Option 时加载内嵌的示例配置。
//
// 使用示例:
//
//	t := mock.New()                                   // 内嵌示例配置
//	t := mock.New(mock.WithConfigFile("mock.yaml"))   // 指定配置文件
//	t := mock.New(mock.WithResponse("hi"))            // 固定响应
func New(opts ...Option) *Transport {
	t := &Transport{
		response:  "This is a mock response.",
		chunkSize: defaultChunkSize,
		now:       time.Now,
	}

	if len(opts) == 0 {
		cfg, err := LoadExampleConfig()
		if err != nil {
			t.err = err
		} else {
			applyConfig(t, cfg)
		}
	}

	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WithResponse 设置预设响应文本
func WithResponse(text string) Option {
	return func(t *Transport) {
		t.response = text
	}
}

// WithResponses 设置响应队列（依次返回，用完后循环）
func WithResponses(texts ...string) Option {
	return func(t *Transport) {
		t.responses = texts
	}
}

// WithTurnFunc 设置动态轮次函数（支持推理、引用和工具调用）
func WithTurnFunc(fn TurnFunc) Option {
	return func(t *Transport) {
		t.turnFunc = fn
	}
}

// WithDelay 设置响应延迟
func WithDelay(d time.Duration) Option {
	return func(t *Transport) {
		t.delay = d
	}
}

// WithChunkSize 设置流式分块大小
func WithChunkSize(n int) Option {
	return func(t *Transport) {
		if n > 0 {
			t.chunkSize = n
		}
	}
}

// WithError 设置返回错误
func WithError(err error) Option {
	return func(t *Transport) {
		t.err = err
	}
}

// WithClock 设置时间来源
func WithClock(now func() time.Time) Option {
	return func(t *Transport) {
		if now != nil {
			t.now = now
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 场景管理方法
// ═══════════════════════════════════════════════════════════════════════════

// UseScenario 设置当前使用的场景，之后每次调用推进一轮
func (t *Transport) UseScenario(name string) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.currentScenario = name
	return t
}

// ResetScenario 重置指定场景的轮次到起始位置
func (t *Transport) ResetScenario(name string) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.scenarios[name]; ok {
		s.turnIdx = 0
	}
	return t
}

// ResetAllScenarios 重置所有场景的轮次
func (t *Transport) ResetAllScenarios() *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.scenarios {
		s.turnIdx = 0
	}
	return t
}

// ScenarioNames 获取所有可用的场景名称（已排序）
func (t *Transport) ScenarioNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.scenarios))
	for name := range t.scenarios {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// CurrentScenario 获取当前场景名称
func (t *Transport) CurrentScenario() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.currentScenario
}

// ScenarioTurnIndex 获取指定场景的当前轮次索引，场景不存在时返回 -1
func (t *Transport) ScenarioTurnIndex(name string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.scenarios[name]; ok {
		return s.turnIdx
	}
	return -1
}

// ═══════════════════════════════════════════════════════════════════════════
// Transport 接口实现
// ═══════════════════════════════════════════════════════════════════════════

// GetCompletion 实现 core.Transport
func (t *Transport) GetCompletion(ctx context.Context, req *wire.GetCompletionsRequest) (*wire.GetChatCompletionResponse, error) {
	turn, delay, err := t.begin(req, false)
	if err := wait(ctx, delay); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return t.buildResponse(req, turn), nil
}

// GetCompletionChunk 实现 core.Transport
func (t *Transport) GetCompletionChunk(ctx context.Context, req *wire.GetCompletionsRequest) (core.ChunkStream, error) {
	turn, delay, err := t.begin(req, true)
	if err := wait(ctx, delay); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	size := turn.ChunkSize
	if size <= 0 {
		t.mu.RLock()
		size = t.chunkSize
		t.mu.RUnlock()
	}
	return &chunkStream{
		ctx:    ctx,
		chunks: Partition(t.buildResponse(req, turn), size),
	}, nil
}

// Close 实现 core.Transport
func (t *Transport) Close() error {
	return nil
}

// begin 记录调用并选出本轮响应
func (t *Transport) begin(req *wire.GetCompletionsRequest, stream bool) (Turn, time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls = append(t.calls, CallRecord{
		Request: req,
		Stream:  stream,
		Time:    t.now(),
	})
	if t.err != nil {
		return Turn{}, t.delay, t.err
	}
	return t.nextTurn(req), t.delay, nil
}

// nextTurn 场景优先，其次动态函数，最后响应队列或默认响应（需要在锁内调用）
func (t *Transport) nextTurn(req *wire.GetCompletionsRequest) Turn {
	if s, ok := t.scenarios[t.currentScenario]; ok && t.currentScenario != "" {
		return s.nextTurn()
	}
	if t.turnFunc != nil {
		return t.turnFunc(req, len(t.calls))
	}
	if len(t.responses) > 0 {
		resp := t.responses[t.respIdx%len(t.responses)]
		t.respIdx++
		return Turn{Assistant: resp}
	}
	return Turn{Assistant: t.response}
}

// wait 模拟延迟，ctx 取消时提前返回
func wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 响应构建
// ═══════════════════════════════════════════════════════════════════════════

// buildResponse 把一轮对话构建为线上响应
//
// 带 Output 的服务端工具各占一个角色为 Tool 的输出，
// 助手文本、推理内容和其余工具调用放在索引最大的输出中。
func (t *Transport) buildResponse(req *wire.GetCompletionsRequest, turn Turn) *wire.GetChatCompletionResponse {
	if req == nil {
		req = &wire.GetCompletionsRequest{}
	}
	data := templateData(req)
	created := t.now().UTC().Truncate(time.Second)

	resp := &wire.GetChatCompletionResponse{
		ID:        "mock-" + uuid.NewString(),
		Model:     req.Model,
		Created:   &created,
		Citations: slices.Clone(turn.Citations),
	}

	final := &wire.CompletionMessage{
		Role:             wire.RoleAssistant,
		Content:          renderTemplate(turn.Assistant, data),
		ReasoningContent: turn.Reasoning,
	}

	hasFunction := false
	for _, tool := range turn.Tools {
		call := buildToolCall(tool, data)
		if call.Type == wire.ToolCallTypeClientSide {
			hasFunction = true
		}
		if tool.Output != "" && call.Type != wire.ToolCallTypeClientSide {
			resp.Outputs = append(resp.Outputs, &wire.CompletionOutput{
				Index:        int32(len(resp.Outputs)),
				FinishReason: wire.ReasonStop,
				Message: &wire.CompletionMessage{
					Role:      wire.RoleTool,
					Content:   renderTemplate(tool.Output, data),
					ToolCalls: []*wire.ToolCall{call},
				},
			})
			continue
		}
		final.ToolCalls = append(final.ToolCalls, call)
	}

	reason := wire.ReasonStop
	if hasFunction {
		reason = wire.ReasonToolCalls
	}
	if r, ok := finishReasons[turn.FinishReason]; ok {
		reason = r
	}
	resp.Outputs = append(resp.Outputs, &wire.CompletionOutput{
		Index:        int32(len(resp.Outputs)),
		FinishReason: reason,
		Message:      final,
	})

	prompt := int32(len(req.Messages) * 10)
	completion := int32(utf8.RuneCountInString(final.Content)/4 + 1)
	resp.Usage = &wire.SamplingUsage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
	return resp
}

// buildToolCall 构建线上工具调用，参数按 JSON 编码
func buildToolCall(tool ToolCall, data map[string]string) *wire.ToolCall {
	id := tool.ID
	if id == "" {
		id = "call_" + uuid.NewString()[:8]
	}
	call := &wire.ToolCall{
		ID:       id,
		Type:     toolCallTypes[tool.Type],
		Function: &wire.FunctionCall{Name: tool.Name},
	}
	if call.Type != wire.ToolCallTypeClientSide {
		call.Status = wire.ToolCallStatusCompleted
	}
	if input := renderToolInput(tool.Input, data); input != nil {
		args, err := sonic.MarshalString(input)
		if err == nil {
			call.Function.Arguments = args
		}
	}
	return call
}

// ═══════════════════════════════════════════════════════════════════════════
// 流式分块
// ═══════════════════════════════════════════════════════════════════════════

// Partition 把完整响应切分为等价的流式分块
//
// 每个输出依次产生：推理分块、按 size 个字符切分的文本分块、工具调用分块；
// 角色放在该输出的第一个分块，完成原因放在最后一个分块。
// 消息级引用放在第一个分块，用量放在最后一个分块。
func Partition(resp *wire.GetChatCompletionResponse, size int) []*wire.GetChatCompletionChunk {
	if resp == nil {
		return nil
	}
	if size <= 0 {
		size = defaultChunkSize
	}

	var chunks []*wire.GetChatCompletionChunk
	emit := func(index int32, delta *wire.Delta) *wire.CompletionOutputChunk {
		oc := &wire.CompletionOutputChunk{Index: index, Delta: delta}
		chunks = append(chunks, &wire.GetChatCompletionChunk{
			ID:                resp.ID,
			Model:             resp.Model,
			Created:           resp.Created,
			SystemFingerprint: resp.SystemFingerprint,
			Outputs:           []*wire.CompletionOutputChunk{oc},
		})
		return oc
	}

	for _, out := range resp.Outputs {
		if out == nil {
			continue
		}
		msg := out.Message
		if msg == nil {
			msg = &wire.CompletionMessage{}
		}

		var parts []*wire.CompletionOutputChunk
		if msg.ReasoningContent != "" || msg.EncryptedContent != "" {
			parts = append(parts, emit(out.Index, &wire.Delta{
				ReasoningContent: msg.ReasoningContent,
				EncryptedContent: msg.EncryptedContent,
			}))
		}
		for _, piece := range splitRunes(msg.Content, size) {
			parts = append(parts, emit(out.Index, &wire.Delta{Content: piece}))
		}
		if len(msg.Citations) > 0 {
			if len(parts) == 0 {
				parts = append(parts, emit(out.Index, &wire.Delta{}))
			}
			last := parts[len(parts)-1].Delta
			last.Citations = append(last.Citations, msg.Citations...)
		}
		if len(msg.ToolCalls) > 0 {
			parts = append(parts, emit(out.Index, &wire.Delta{ToolCalls: msg.ToolCalls}))
		}
		if len(parts) == 0 {
			parts = append(parts, emit(out.Index, &wire.Delta{}))
		}

		parts[0].Delta.Role = msg.Role
		parts[len(parts)-1].FinishReason = out.FinishReason
	}

	if len(chunks) == 0 {
		chunks = append(chunks, &wire.GetChatCompletionChunk{
			ID:      resp.ID,
			Model:   resp.Model,
			Created: resp.Created,
		})
	}
	chunks[0].Citations = slices.Clone(resp.Citations)
	if resp.Usage != nil {
		usage := *resp.Usage
		chunks[len(chunks)-1].Usage = &usage
	}
	return chunks
}

// splitRunes 按字符数切分文本
func splitRunes(s string, size int) []string {
	var out []string
	for len(s) > 0 {
		n, i := 0, 0
		for i < len(s) && n < size {
			_, w := utf8.DecodeRuneInString(s[i:])
			i += w
			n++
		}
		out = append(out, s[:i])
		s = s[i:]
	}
	return out
}

// chunkStream 按顺序返回预先切分的分块
type chunkStream struct {
	ctx    context.Context
	chunks []*wire.GetChatCompletionChunk
	pos    int
	closed bool
}

func (s *chunkStream) Recv() (*wire.GetChatCompletionChunk, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed || s.pos >= len(s.chunks) {
		return nil, io.EOF
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, nil
}

func (s *chunkStream) Close() error {
	s.closed = true
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// 调用记录
// ═══════════════════════════════════════════════════════════════════════════

// SetResponse 动态修改响应（线程安全）
func (t *Transport) SetResponse(text string) {
	t.mu.Lock()
	t.response = text
	t.mu.Unlock()
}

// SetError 动态修改错误（线程安全）
func (t *Transport) SetError(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
}

// Calls 返回所有调用记录
func (t *Transport) Calls() []CallRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.calls)
}

// CallCount 返回调用次数
func (t *Transport) CallCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.calls)
}

// LastCall 返回最后一次调用记录
func (t *Transport) LastCall() *CallRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.calls) == 0 {
		return nil
	}
	call := t.calls[len(t.calls)-1]
	return &call
}

// LastInput 获取最后一次调用中最后一条用户消息的文本
func (t *Transport) LastInput() string {
	call := t.LastCall()
	if call == nil {
		return ""
	}
	return lastUserText(call.Request)
}

// Reset 重置调用记录和响应队列
func (t *Transport) Reset() {
	t.mu.Lock()
	t.calls = nil
	t.respIdx = 0
	t.mu.Unlock()
}
