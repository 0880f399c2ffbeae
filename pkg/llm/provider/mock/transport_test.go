package mock

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm"
	xaiproto "github.com/lwmacct/251215-go-pkg-xai/pkg/llm/protocol/xai"
	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/wire"
)

func userRequest(text string) *wire.GetCompletionsRequest {
	return &wire.GetCompletionsRequest{
		Model: "grok-4-fast",
		Messages: []*wire.Message{
			{Role: wire.RoleUser, Content: []*wire.Content{{Text: text}}},
		},
	}
}

func drain(t *testing.T, tr *Transport, req *wire.GetCompletionsRequest) []*wire.GetChatCompletionChunk {
	t.Helper()
	stream, err := tr.GetCompletionChunk(context.Background(), req)
	require.NoError(t, err)
	defer func() { _ = stream.Close() }()

	var chunks []*wire.GetChatCompletionChunk
	for {
		c, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return chunks
		}
		require.NoError(t, err)
		chunks = append(chunks, c)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 一元调用
// ═══════════════════════════════════════════════════════════════════════════

func TestTransport_GetCompletion(t *testing.T) {
	t.Run("内嵌配置的默认响应", func(t *testing.T) {
		tr := New()
		resp, err := tr.GetCompletion(context.Background(), userRequest("hi"))
		require.NoError(t, err)

		require.Len(t, resp.Outputs, 1)
		out := resp.Outputs[0]
		assert.Equal(t, "This is a mock response.", out.Message.Content)
		assert.Equal(t, wire.RoleAssistant, out.Message.Role)
		assert.Equal(t, wire.ReasonStop, out.FinishReason)
		assert.Equal(t, "grok-4-fast", resp.Model)
		assert.True(t, strings.HasPrefix(resp.ID, "mock-"))
		require.NotNil(t, resp.Usage)
		assert.Equal(t, resp.Usage.PromptTokens+resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	})

	t.Run("响应队列循环", func(t *testing.T) {
		tr := New(WithResponses("a", "b"))
		var got []string
		for range 3 {
			resp, err := tr.GetCompletion(context.Background(), userRequest("x"))
			require.NoError(t, err)
			got = append(got, resp.Outputs[0].Message.Content)
		}
		assert.Equal(t, []string{"a", "b", "a"}, got)
	})

	t.Run("场景逐轮推进", func(t *testing.T) {
		tr := New().UseScenario("greeting")
		first, err := tr.GetCompletion(context.Background(), userRequest("你好"))
		require.NoError(t, err)
		second, err := tr.GetCompletion(context.Background(), userRequest("再见"))
		require.NoError(t, err)
		third, err := tr.GetCompletion(context.Background(), userRequest("?"))
		require.NoError(t, err)

		assert.Contains(t, first.Outputs[0].Message.Content, "Grok")
		assert.Equal(t, "再见！", second.Outputs[0].Message.Content)
		assert.Equal(t, "[场景已结束]", third.Outputs[0].Message.Content)
		assert.Equal(t, 3, tr.ScenarioTurnIndex("greeting"))

		tr.ResetScenario("greeting")
		assert.Equal(t, 0, tr.ScenarioTurnIndex("greeting"))
		assert.Equal(t, -1, tr.ScenarioTurnIndex("nope"))
	})

	t.Run("模板引用用户消息", func(t *testing.T) {
		tr := New().UseScenario("echo")
		resp, err := tr.GetCompletion(context.Background(), userRequest("ping"))
		require.NoError(t, err)
		assert.Equal(t, "你说的是：ping", resp.Outputs[0].Message.Content)
	})

	t.Run("函数调用推断完成原因", func(t *testing.T) {
		tr := New().UseScenario("weather")
		resp, err := tr.GetCompletion(context.Background(), userRequest("东京天气"))
		require.NoError(t, err)

		out := resp.Outputs[0]
		assert.Equal(t, wire.ReasonToolCalls, out.FinishReason)
		require.Len(t, out.Message.ToolCalls, 1)
		call := out.Message.ToolCalls[0]
		assert.Equal(t, "call_weather_1", call.ID)
		assert.Equal(t, wire.ToolCallTypeClientSide, call.Type)
		assert.JSONEq(t, `{"city":"Tokyo"}`, call.Function.Arguments)
	})

	t.Run("服务端工具结果单独输出", func(t *testing.T) {
		tr := New().UseScenario("mcp")
		resp, err := tr.GetCompletion(context.Background(), userRequest("issues"))
		require.NoError(t, err)

		require.Len(t, resp.Outputs, 2)
		tool := resp.Outputs[0]
		assert.Equal(t, wire.RoleTool, tool.Message.Role)
		assert.Equal(t, `{"count":3}`, tool.Message.Content)
		require.Len(t, tool.Message.ToolCalls, 1)
		assert.Equal(t, wire.ToolCallTypeMCP, tool.Message.ToolCalls[0].Type)
		assert.Equal(t, wire.ToolCallStatusCompleted, tool.Message.ToolCalls[0].Status)

		final := resp.Outputs[1]
		assert.Equal(t, int32(1), final.Index)
		assert.Equal(t, wire.RoleAssistant, final.Message.Role)
		assert.Equal(t, wire.ReasonStop, final.FinishReason)
	})

	t.Run("显式完成原因", func(t *testing.T) {
		tr := New().UseScenario("truncated")
		resp, err := tr.GetCompletion(context.Background(), userRequest("x"))
		require.NoError(t, err)
		assert.Equal(t, wire.ReasonMaxLen, resp.Outputs[0].FinishReason)
	})

	t.Run("模拟错误", func(t *testing.T) {
		expected := errors.New("mock error")
		tr := New(WithError(expected))
		_, err := tr.GetCompletion(context.Background(), userRequest("x"))
		require.ErrorIs(t, err, expected)
		assert.Equal(t, 1, tr.CallCount(), "failed calls are recorded")
	})

	t.Run("配置中的模拟错误", func(t *testing.T) {
		tr := New(WithConfig(&Config{SimulateError: "boom"}))
		_, err := tr.GetCompletion(context.Background(), userRequest("x"))
		require.Error(t, err)
		assert.Equal(t, "boom", err.Error())
	})

	t.Run("配置文件不存在", func(t *testing.T) {
		tr := New(WithConfigFile("/nonexistent/mock.yaml"))
		_, err := tr.GetCompletion(context.Background(), userRequest("x"))
		assert.Error(t, err)
	})

	t.Run("延迟", func(t *testing.T) {
		tr := New(WithResponse("slow"), WithDelay(50*time.Millisecond))
		start := time.Now()
		_, err := tr.GetCompletion(context.Background(), userRequest("x"))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("延迟期间取消", func(t *testing.T) {
		tr := New(WithDelay(time.Second))
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := tr.GetCompletion(ctx, userRequest("x"))
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("动态轮次函数", func(t *testing.T) {
		tr := New(WithTurnFunc(func(req *wire.GetCompletionsRequest, n int) Turn {
			return Turn{Assistant: strings.Repeat("x", n), Reasoning: "r"}
		}))
		_, _ = tr.GetCompletion(context.Background(), userRequest("a"))
		resp, err := tr.GetCompletion(context.Background(), userRequest("b"))
		require.NoError(t, err)
		assert.Equal(t, "xx", resp.Outputs[0].Message.Content)
		assert.Equal(t, "r", resp.Outputs[0].Message.ReasoningContent)
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// 流式调用
// ═══════════════════════════════════════════════════════════════════════════

func TestTransport_GetCompletionChunk(t *testing.T) {
	t.Run("按字符切分", func(t *testing.T) {
		tr := New(WithResponse("你好世界abc"), WithChunkSize(2))
		chunks := drain(t, tr, userRequest("x"))

		var pieces []string
		for _, c := range chunks {
			pieces = append(pieces, c.Outputs[0].Delta.Content)
		}
		assert.Equal(t, []string{"你好", "世界", "ab", "c"}, pieces)
		assert.Equal(t, wire.RoleAssistant, chunks[0].Outputs[0].Delta.Role)
		assert.Equal(t, wire.RoleInvalid, chunks[1].Outputs[0].Delta.Role)
		assert.Equal(t, wire.ReasonStop, chunks[len(chunks)-1].Outputs[0].FinishReason)
		assert.Equal(t, wire.ReasonInvalid, chunks[0].Outputs[0].FinishReason)
		assert.NotNil(t, chunks[len(chunks)-1].Usage)
	})

	t.Run("记录流式调用", func(t *testing.T) {
		tr := New(WithResponse("x"))
		drain(t, tr, userRequest("question"))

		call := tr.LastCall()
		require.NotNil(t, call)
		assert.True(t, call.Stream)
		assert.Equal(t, "question", tr.LastInput())

		tr.Reset()
		assert.Zero(t, tr.CallCount())
		assert.Nil(t, tr.LastCall())
	})

	t.Run("取消后 Recv 返回 ctx 错误", func(t *testing.T) {
		tr := New(WithResponse("abcdefgh"), WithChunkSize(1))
		ctx, cancel := context.WithCancel(context.Background())
		stream, err := tr.GetCompletionChunk(ctx, userRequest("x"))
		require.NoError(t, err)

		_, err = stream.Recv()
		require.NoError(t, err)
		cancel()
		_, err = stream.Recv()
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("关闭后返回 EOF", func(t *testing.T) {
		tr := New(WithResponse("abc"), WithChunkSize(1))
		stream, err := tr.GetCompletionChunk(context.Background(), userRequest("x"))
		require.NoError(t, err)
		require.NoError(t, stream.Close())
		_, err = stream.Recv()
		assert.ErrorIs(t, err, io.EOF)
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// 分块与一元响应等价
// ═══════════════════════════════════════════════════════════════════════════

func TestPartition_ReplaysToUnary(t *testing.T) {
	clock := WithClock(func() time.Time { return time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC) })

	for _, name := range New().ScenarioNames() {
		t.Run(name, func(t *testing.T) {
			cfg, err := LoadExampleConfig()
			require.NoError(t, err)
			tr := New(clock, WithConfig(cfg)).UseScenario(name)

			resp, err := tr.GetCompletion(context.Background(), userRequest("hello"))
			require.NoError(t, err)

			for _, size := range []int{1, 3, 64} {
				replayed := xaiproto.AccumulateChunks(Partition(resp, size))

				want, err := xaiproto.MapResponse(resp)
				require.NoError(t, err)
				got, err := xaiproto.MapResponse(replayed)
				require.NoError(t, err)

				if diff := cmp.Diff(want, got); diff != "" {
					t.Errorf("size %d: replayed response differs (-unary +replayed):\n%s", size, diff)
				}
			}
		})
	}
}

func TestPartition_Collections(t *testing.T) {
	tr := New().UseScenario("collections")
	resp, err := tr.GetCompletion(context.Background(), userRequest("年假"))
	require.NoError(t, err)

	mapped, err := xaiproto.MapResponse(resp)
	require.NoError(t, err)

	var result *llm.CollectionSearchResultBlock
	for _, block := range mapped.Message.ContentBlocks {
		if b, ok := block.(*llm.CollectionSearchResultBlock); ok {
			result = b
		}
	}
	require.NotNil(t, result)
	require.Len(t, result.Outputs, 1)
	assert.Equal(t, "f1", result.Outputs[0].FileID)
	assert.Equal(t, "员工手册", result.Outputs[0].Name)
}

func TestPartition_Empty(t *testing.T) {
	assert.Nil(t, Partition(nil, 4))

	chunks := Partition(&wire.GetChatCompletionResponse{ID: "r", Citations: []string{"https://a"}}, 4)
	require.Len(t, chunks, 1)
	assert.Equal(t, []string{"https://a"}, chunks[0].Citations)
}
