package xai

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm"
	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/wire"
)

func deltaChunk(index int32, delta *wire.Delta) *wire.GetChatCompletionChunk {
	return &wire.GetChatCompletionChunk{
		ID:      "resp-1",
		Model:   "grok-4-fast",
		Outputs: []*wire.CompletionOutputChunk{{Index: index, Delta: delta}},
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// HandleChunk 测试
// ═══════════════════════════════════════════════════════════════════════════

func TestStreamAggregator_Text(t *testing.T) {
	agg := NewStreamAggregator()

	updates, err := agg.HandleChunk(deltaChunk(0, &wire.Delta{Role: wire.RoleAssistant, Content: "Hel"}))

	require.NoError(t, err)
	require.Len(t, updates, 1)
	u := updates[0]
	assert.Equal(t, "resp-1", u.ResponseID)
	assert.Equal(t, "grok-4-fast", u.Model)
	assert.Equal(t, llm.RoleAssistant, u.Role)
	assert.Equal(t, "Hel", u.Text())
	assert.Empty(t, u.FinishReason)
}

func TestStreamAggregator_SuppressesEmptyUpdates(t *testing.T) {
	agg := NewStreamAggregator()

	chunks := []*wire.GetChatCompletionChunk{
		deltaChunk(0, &wire.Delta{Role: wire.RoleAssistant}),
		deltaChunk(0, nil),
		{ID: "resp-1"},
		{Outputs: []*wire.CompletionOutputChunk{{FinishReason: wire.ReasonStop}}},
	}
	for _, chunk := range chunks {
		updates, err := agg.HandleChunk(chunk)
		require.NoError(t, err)
		assert.Empty(t, updates)
	}
}

func TestStreamAggregator_NoSyntheticTextWithoutCitations(t *testing.T) {
	agg := NewStreamAggregator()

	chunks := []*wire.GetChatCompletionChunk{
		deltaChunk(0, &wire.Delta{ReasoningContent: "think"}),
		deltaChunk(0, &wire.Delta{ToolCalls: []*wire.ToolCall{{ID: "w1", Type: wire.ToolCallTypeWebSearch}}}),
		deltaChunk(0, &wire.Delta{Content: "done"}),
	}

	for _, chunk := range chunks {
		updates, err := agg.HandleChunk(chunk)
		require.NoError(t, err)
		for _, u := range updates {
			for _, block := range u.ContentBlocks {
				if tb, ok := block.(*llm.TextBlock); ok {
					assert.NotEmpty(t, tb.Text)
				}
			}
		}
	}
}

func TestStreamAggregator_Citations(t *testing.T) {
	t.Run("引用不重复发出", func(t *testing.T) {
		agg := NewStreamAggregator()

		first, err := agg.HandleChunk(&wire.GetChatCompletionChunk{
			Citations: []string{"https://a.com"},
			Outputs:   []*wire.CompletionOutputChunk{{Delta: &wire.Delta{Content: "x"}}},
		})
		require.NoError(t, err)
		require.Len(t, first, 1)
		require.Len(t, first[0].ContentBlocks, 1)
		assert.Len(t, first[0].ContentBlocks[0].(*llm.TextBlock).Annotations, 1)

		// 只有重复引用的分块不产生更新
		second, err := agg.HandleChunk(&wire.GetChatCompletionChunk{Citations: []string{"https://a.com"}})
		require.NoError(t, err)
		assert.Empty(t, second)

		third, err := agg.HandleChunk(&wire.GetChatCompletionChunk{
			Citations: []string{"https://a.com", "https://b.com"},
			Outputs:   []*wire.CompletionOutputChunk{{Delta: &wire.Delta{Content: "y"}}},
		})
		require.NoError(t, err)
		annotations := third[0].ContentBlocks[0].(*llm.TextBlock).Annotations
		require.Len(t, annotations, 1)
		assert.Equal(t, "https://b.com", annotations[0].URL)
	})

	t.Run("新引用补一个空文本块", func(t *testing.T) {
		agg := NewStreamAggregator()

		updates, err := agg.HandleChunk(&wire.GetChatCompletionChunk{
			ID:        "resp-1",
			Citations: []string{"collections://col1/files/f1"},
		})

		require.NoError(t, err)
		require.Len(t, updates, 1)
		assert.Equal(t, llm.RoleAssistant, updates[0].Role)
		require.Len(t, updates[0].ContentBlocks, 1)
		tb := updates[0].ContentBlocks[0].(*llm.TextBlock)
		assert.Empty(t, tb.Text)
		require.Len(t, tb.Annotations, 1)
		assert.Equal(t, "f1", tb.Annotations[0].FileID)
	})

	t.Run("空文本块位于推理块之后", func(t *testing.T) {
		agg := NewStreamAggregator()

		updates, err := agg.HandleChunk(&wire.GetChatCompletionChunk{
			Citations: []string{"https://a.com"},
			Outputs:   []*wire.CompletionOutputChunk{{Delta: &wire.Delta{ReasoningContent: "r"}}},
		})

		require.NoError(t, err)
		blocks := updates[0].ContentBlocks
		require.Len(t, blocks, 2)
		assert.IsType(t, &llm.ReasoningBlock{}, blocks[0])
		assert.IsType(t, &llm.TextBlock{}, blocks[1])
	})

	t.Run("内联引用跨分块去重", func(t *testing.T) {
		agg := NewStreamAggregator()
		c := &wire.InlineCitation{WebCitation: &wire.WebCitation{URL: "https://a.com"}}

		first, _ := agg.HandleChunk(deltaChunk(0, &wire.Delta{Content: "a", Citations: []*wire.InlineCitation{c}}))
		second, _ := agg.HandleChunk(deltaChunk(0, &wire.Delta{Content: "b", Citations: []*wire.InlineCitation{c}}))

		assert.Len(t, first[0].ContentBlocks[0].(*llm.TextBlock).Annotations, 1)
		assert.Empty(t, second[0].ContentBlocks[0].(*llm.TextBlock).Annotations)
	})
}

func TestStreamAggregator_ToolCalls(t *testing.T) {
	agg := NewStreamAggregator()

	updates, err := agg.HandleChunk(&wire.GetChatCompletionChunk{
		Outputs: []*wire.CompletionOutputChunk{{
			FinishReason: wire.ReasonToolCalls,
			Delta: &wire.Delta{ToolCalls: []*wire.ToolCall{
				{ID: "c1", Type: wire.ToolCallTypeClientSide, Function: &wire.FunctionCall{Name: "f", Arguments: `{"a":1}`}},
				{ID: "m1", Type: wire.ToolCallTypeMCP, Function: &wire.FunctionCall{Name: "ask"}},
			}},
		}},
	})

	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, llm.FinishReasonToolCalls, updates[0].FinishReason)
	require.Len(t, updates[0].ContentBlocks, 2)
	assert.Equal(t, map[string]any{"a": float64(1)}, updates[0].ContentBlocks[0].(*llm.FunctionCallBlock).Arguments)
	assert.IsType(t, &llm.McpCallBlock{}, updates[0].ContentBlocks[1])

	_, err = agg.HandleChunk(deltaChunk(0, &wire.Delta{ToolCalls: []*wire.ToolCall{
		{ID: "c2", Type: wire.ToolCallTypeClientSide, Function: &wire.FunctionCall{Arguments: "nope"}},
	}}))
	assert.True(t, llm.IsMalformedToolPayload(err))
}

func TestStreamAggregator_MultipleOutputs(t *testing.T) {
	agg := NewStreamAggregator()

	updates, err := agg.HandleChunk(&wire.GetChatCompletionChunk{
		Citations: []string{"https://a.com"},
		Outputs: []*wire.CompletionOutputChunk{
			{Index: 0, Delta: &wire.Delta{Content: "first"}},
			{Index: 1, Delta: &wire.Delta{Content: "second"}},
		},
	})

	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, 0, updates[0].Index)
	assert.Equal(t, 1, updates[1].Index)
	assert.Len(t, updates[0].ContentBlocks[0].(*llm.TextBlock).Annotations, 1)
	assert.Empty(t, updates[1].ContentBlocks[0].(*llm.TextBlock).Annotations)
}

func TestStreamAggregator_Close(t *testing.T) {
	agg := NewStreamAggregator()
	agg.Close()

	_, err := agg.HandleChunk(deltaChunk(0, &wire.Delta{Content: "x"}))
	assert.True(t, llm.IsStreamError(err))
}

// ═══════════════════════════════════════════════════════════════════════════
// AccumulateChunks 测试
// ═══════════════════════════════════════════════════════════════════════════

func TestAccumulateChunks_MatchesUnaryResponse(t *testing.T) {
	unary := &wire.GetChatCompletionResponse{
		ID:        "resp-1",
		Model:     "grok-4-fast",
		Citations: []string{"https://a.com", "https://b.com"},
		Usage:     &wire.SamplingUsage{TotalTokens: 9},
		Outputs: []*wire.CompletionOutput{
			{
				Index:        0,
				FinishReason: wire.ReasonStop,
				Message: &wire.CompletionMessage{
					Role:             wire.RoleAssistant,
					Content:          "Hello world",
					ReasoningContent: "plan",
					Citations:        []*wire.InlineCitation{{XCitation: &wire.XCitation{URL: "https://x.com/1"}}},
				},
			},
			{
				Index:        1,
				FinishReason: wire.ReasonStop,
				Message: &wire.CompletionMessage{
					Role:    wire.RoleTool,
					Content: "42",
					ToolCalls: []*wire.ToolCall{
						{ID: "x1", Type: wire.ToolCallTypeCodeExecution, Function: &wire.FunctionCall{Name: "python"}},
					},
				},
			},
		},
	}

	chunks := []*wire.GetChatCompletionChunk{
		{ID: "resp-1", Model: "grok-4-fast", Citations: []string{"https://a.com"}, Outputs: []*wire.CompletionOutputChunk{
			{Index: 0, Delta: &wire.Delta{Role: wire.RoleAssistant, ReasoningContent: "pl"}},
		}},
		{Outputs: []*wire.CompletionOutputChunk{
			{Index: 0, Delta: &wire.Delta{ReasoningContent: "an", Content: "Hello"}},
			{Index: 1, Delta: &wire.Delta{Role: wire.RoleTool, ToolCalls: []*wire.ToolCall{
				{ID: "x1", Type: wire.ToolCallTypeCodeExecution, Function: &wire.FunctionCall{Name: "python"}},
			}}},
		}},
		{Citations: []string{"https://a.com", "https://b.com"}, Outputs: []*wire.CompletionOutputChunk{
			{Index: 0, Delta: &wire.Delta{Content: " world", Citations: []*wire.InlineCitation{{XCitation: &wire.XCitation{URL: "https://x.com/1"}}}}},
			{Index: 1, Delta: &wire.Delta{Content: "42"}},
		}},
		{Usage: &wire.SamplingUsage{TotalTokens: 9}, Outputs: []*wire.CompletionOutputChunk{
			{Index: 0, FinishReason: wire.ReasonStop},
			{Index: 1, FinishReason: wire.ReasonStop},
		}},
	}

	replayed := AccumulateChunks(chunks)
	assert.Empty(t, cmp.Diff(unary, replayed))

	want, err := MapResponse(unary)
	require.NoError(t, err)
	got, err := MapResponse(replayed)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(want, got))

	// 重放路径恢复了代码执行调用与结果的配对
	assert.IsType(t, &llm.CodeInterpreterResultBlock{}, got.Message.ContentBlocks[len(got.Message.ContentBlocks)-1])
}

func TestAccumulateChunks_MessageCitationsAcrossOutputs(t *testing.T) {
	chunks := []*wire.GetChatCompletionChunk{
		{ID: "resp-1", Citations: []string{"https://a.com"}, Outputs: []*wire.CompletionOutputChunk{
			{Index: 0, Delta: &wire.Delta{Role: wire.RoleAssistant, Content: "first"}},
			{Index: 1, Delta: &wire.Delta{Role: wire.RoleAssistant, Content: "second"}},
		}},
		{Citations: []string{"https://a.com"}, Outputs: []*wire.CompletionOutputChunk{
			{Index: 0, Delta: &wire.Delta{Content: "!"}, FinishReason: wire.ReasonStop},
			{Index: 1, Delta: &wire.Delta{Content: "!"}, FinishReason: wire.ReasonStop},
		}},
	}

	agg := NewStreamAggregator()
	streamed := make(map[int][]string)
	for _, chunk := range chunks {
		updates, err := agg.HandleChunk(chunk)
		require.NoError(t, err)
		for _, u := range updates {
			m := llm.Message{ContentBlocks: u.ContentBlocks}
			for _, a := range m.Annotations() {
				streamed[u.Index] = append(streamed[u.Index], a.URL)
			}
		}
	}

	unary, err := MapResponse(AccumulateChunks(chunks))
	require.NoError(t, err)
	var mapped [][]string
	for _, block := range unary.Message.ContentBlocks {
		tb, ok := block.(*llm.TextBlock)
		require.True(t, ok)
		var urls []string
		for _, a := range tb.Annotations {
			urls = append(urls, a.URL)
		}
		mapped = append(mapped, urls)
	}

	// 一元映射把消息级引用挂到每个输出的文本上
	assert.Equal(t, [][]string{{"https://a.com"}, {"https://a.com"}}, mapped)
	// 流式只在首次出现时挂到第一个输出上，之后不再重复
	assert.Equal(t, map[int][]string{0: {"https://a.com"}}, streamed)
}

func TestAccumulateChunks_Empty(t *testing.T) {
	resp := AccumulateChunks(nil)
	assert.Empty(t, resp.Outputs)

	got, err := MapResponse(resp)
	require.NoError(t, err)
	assert.Empty(t, got.Message.ContentBlocks)
}

func TestStreamAggregator_RolePersistsAcrossChunks(t *testing.T) {
	agg := NewStreamAggregator()

	// 只带角色的分块被丢弃，但角色会被记住
	updates, err := agg.HandleChunk(deltaChunk(1, &wire.Delta{Role: wire.RoleTool}))
	require.NoError(t, err)
	assert.Empty(t, updates)

	updates, err = agg.HandleChunk(deltaChunk(1, &wire.Delta{Content: "42"}))
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, llm.RoleTool, updates[0].Role)

	updates, err = agg.HandleChunk(deltaChunk(0, &wire.Delta{Content: "hi"}))
	require.NoError(t, err)
	assert.Equal(t, llm.RoleAssistant, updates[0].Role)
}
