package xai

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm"
	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/wire"
)

func newTestBuilder() *RequestBuilder {
	return NewRequestBuilder("grok-4-fast", "")
}

// ═══════════════════════════════════════════════════════════════════════════
// 基础请求
// ═══════════════════════════════════════════════════════════════════════════

func TestRequestBuilder_Defaults(t *testing.T) {
	req, err := newTestBuilder().Build([]llm.Message{
		llm.NewTextMessage(llm.RoleSystem, "Be brief."),
		llm.NewTextMessage(llm.RoleUser, "Hello"),
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "grok-4-fast", req.Model)
	assert.Equal(t, []wire.IncludeOption{wire.IncludeInlineCitations}, req.Include)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, wire.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, wire.RoleUser, req.Messages[1].Role)
	assert.Equal(t, "Hello", req.Messages[1].Content[0].Text)
	assert.Nil(t, req.Temperature)
	assert.Nil(t, req.MaxTokens)
}

func TestRequestBuilder_Scalars(t *testing.T) {
	t.Run("只应用已设置的选项", func(t *testing.T) {
		req, err := newTestBuilder().Build(nil, &llm.Options{
			ModelID:          "grok-4",
			EndUserID:        "user-1",
			MaxOutputTokens:  llm.Ptr(int32(256)),
			Temperature:      llm.Ptr(float32(0.2)),
			TopP:             llm.Ptr(float32(0.9)),
			FrequencyPenalty: llm.Ptr(float32(0.1)),
			PresencePenalty:  llm.Ptr(float32(0.3)),
			Seed:             llm.Ptr(int32(7)),
			StopSequences:    []string{"END"},
			ReasoningEffort:  "high",
		})

		require.NoError(t, err)
		assert.Equal(t, "grok-4", req.Model)
		assert.Equal(t, "user-1", req.User)
		assert.Equal(t, int32(256), *req.MaxTokens)
		assert.InDelta(t, 0.2, *req.Temperature, 1e-6)
		assert.InDelta(t, 0.9, *req.TopP, 1e-6)
		assert.InDelta(t, 0.1, *req.FrequencyPenalty, 1e-6)
		assert.InDelta(t, 0.3, *req.PresencePenalty, 1e-6)
		assert.Equal(t, int32(7), *req.Seed)
		assert.Equal(t, []string{"END"}, req.Stop)
		assert.Equal(t, wire.ReasoningEffortHigh, req.ReasoningEffort)
	})

	t.Run("构建器默认终端用户", func(t *testing.T) {
		req, err := NewRequestBuilder("m", "default-user").Build(nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "default-user", req.User)
	})

	t.Run("未知推理强度被忽略", func(t *testing.T) {
		req, err := newTestBuilder().Build(nil, &llm.Options{ReasoningEffort: "extreme"})
		require.NoError(t, err)
		assert.Equal(t, wire.ReasoningEffortInvalid, req.ReasoningEffort)
	})
}

func TestRequestBuilder_ResponseFormat(t *testing.T) {
	t.Run("JSON Schema", func(t *testing.T) {
		req, err := newTestBuilder().Build(nil, &llm.Options{
			ResponseFormat: &llm.ResponseFormat{
				Type:   llm.ResponseFormatJSONSchema,
				Schema: map[string]any{"type": "object"},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, wire.FormatTypeJSONSchema, req.ResponseFormat.FormatType)
		assert.JSONEq(t, `{"type":"object"}`, req.ResponseFormat.Schema)
	})

	t.Run("JSON 对象", func(t *testing.T) {
		req, err := newTestBuilder().Build(nil, &llm.Options{
			ResponseFormat: &llm.ResponseFormat{Type: llm.ResponseFormatJSONObject},
		})
		require.NoError(t, err)
		assert.Equal(t, wire.FormatTypeJSONObject, req.ResponseFormat.FormatType)
	})

	t.Run("不支持的格式", func(t *testing.T) {
		req, err := newTestBuilder().Build(nil, &llm.Options{
			ResponseFormat: &llm.ResponseFormat{Type: "xml"},
		})

		assert.Nil(t, req)
		assert.True(t, llm.IsUnsupportedResponseFormat(err))
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// 消息翻译
// ═══════════════════════════════════════════════════════════════════════════

func TestRequestBuilder_FunctionCallOnly(t *testing.T) {
	msg := llm.Message{
		Role: llm.RoleAssistant,
		ContentBlocks: []llm.ContentBlock{
			&llm.FunctionCallBlock{CallID: "call_1", Name: "get_weather", Arguments: map[string]any{"city": "Paris"}},
		},
	}

	req, err := newTestBuilder().Build([]llm.Message{msg}, nil)

	require.NoError(t, err)
	require.Len(t, req.Messages, 1)
	got := req.Messages[0]
	require.Len(t, got.Content, 1)
	assert.Empty(t, got.Content[0].Text)
	require.Len(t, got.ToolCalls, 1)
	assert.Equal(t, "call_1", got.ToolCalls[0].ID)
	assert.Equal(t, wire.ToolCallTypeClientSide, got.ToolCalls[0].Type)
	assert.Equal(t, "get_weather", got.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"city":"Paris"}`, got.ToolCalls[0].Function.Arguments)
}

func TestRequestBuilder_FunctionCallWithEmptyText(t *testing.T) {
	msg := llm.Message{
		Role: llm.RoleAssistant,
		ContentBlocks: []llm.ContentBlock{
			&llm.TextBlock{},
			&llm.TextBlock{Text: "", Annotations: []*llm.CitationAnnotation{{URL: "https://a.com"}}},
			&llm.FunctionCallBlock{CallID: "call_1", Name: "get_weather"},
		},
	}

	req, err := newTestBuilder().Build([]llm.Message{msg}, nil)

	require.NoError(t, err)
	require.Len(t, req.Messages, 1)
	// 空文本块不计入内容，只补一个空文本段
	require.Len(t, req.Messages[0].Content, 1)
	assert.Empty(t, req.Messages[0].Content[0].Text)
	require.Len(t, req.Messages[0].ToolCalls, 1)
}

func TestRequestBuilder_FunctionCallNoArguments(t *testing.T) {
	msg := llm.Message{
		Role:          llm.RoleAssistant,
		ContentBlocks: []llm.ContentBlock{&llm.FunctionCallBlock{CallID: "call_1", Name: "now"}},
	}

	req, err := newTestBuilder().Build([]llm.Message{msg}, nil)

	require.NoError(t, err)
	assert.Equal(t, "{}", req.Messages[0].ToolCalls[0].Function.Arguments)
}

func TestRequestBuilder_RawToolCallReattached(t *testing.T) {
	raw := &wire.ToolCall{
		ID:       "ws_1",
		Type:     wire.ToolCallTypeWebSearch,
		Status:   wire.ToolCallStatusCompleted,
		Function: &wire.FunctionCall{Name: "web_search", Arguments: `{"query":"grok"}`},
	}
	msg := llm.Message{
		Role: llm.RoleAssistant,
		ContentBlocks: []llm.ContentBlock{
			&llm.TextBlock{Text: "Searching."},
			&llm.HostedToolCallBlock{CallID: "ws_1", Raw: raw},
			&llm.McpCallBlock{CallID: "mcp_1"},
		},
	}

	req, err := newTestBuilder().Build([]llm.Message{msg}, nil)

	require.NoError(t, err)
	require.Len(t, req.Messages, 1)
	require.Len(t, req.Messages[0].ToolCalls, 1)
	assert.Equal(t, raw, req.Messages[0].ToolCalls[0])
	assert.NotSame(t, raw, req.Messages[0].ToolCalls[0])
}

func TestRequestBuilder_FunctionResult(t *testing.T) {
	messages := []llm.Message{
		{
			Role: llm.RoleTool,
			ContentBlocks: []llm.ContentBlock{
				&llm.FunctionResultBlock{CallID: "call_1", Result: "sunny"},
				&llm.FunctionResultBlock{CallID: "call_2", Result: map[string]any{"temp": 21}},
				&llm.FunctionResultBlock{CallID: "call_3"},
			},
		},
	}

	req, err := newTestBuilder().Build(messages, nil)

	require.NoError(t, err)
	require.Len(t, req.Messages, 3)
	for _, m := range req.Messages {
		assert.Equal(t, wire.RoleTool, m.Role)
	}
	assert.Equal(t, "call_1", req.Messages[0].ToolCallID)
	assert.Equal(t, "sunny", req.Messages[0].Content[0].Text)
	assert.JSONEq(t, `{"temp":21}`, req.Messages[1].Content[0].Text)
	assert.Equal(t, "null", req.Messages[2].Content[0].Text)
}

func TestRequestBuilder_MainMessageBeforeResults(t *testing.T) {
	msg := llm.Message{
		Role: llm.RoleUser,
		ContentBlocks: []llm.ContentBlock{
			&llm.FunctionResultBlock{CallID: "call_1", Result: "42"},
			&llm.TextBlock{Text: "and then?"},
		},
	}

	req, err := newTestBuilder().Build([]llm.Message{msg}, nil)

	require.NoError(t, err)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, wire.RoleUser, req.Messages[0].Role)
	assert.Equal(t, wire.RoleTool, req.Messages[1].Role)
}

func TestRequestBuilder_HostedResults(t *testing.T) {
	raw := &wire.ToolCall{ID: "mcp_1", Type: wire.ToolCallTypeMCP, Function: &wire.FunctionCall{Name: "ask"}}

	t.Run("单个文本输出展开为 Tool 消息", func(t *testing.T) {
		msg := llm.Message{
			Role: llm.RoleAssistant,
			ContentBlocks: []llm.ContentBlock{
				&llm.McpCallBlock{CallID: "mcp_1", ToolName: "ask", Raw: raw},
				&llm.McpResultBlock{CallID: "mcp_1", Raw: raw, Outputs: []llm.ContentBlock{&llm.TextBlock{Text: "answer"}}},
			},
		}

		req, err := newTestBuilder().Build([]llm.Message{msg}, nil)

		require.NoError(t, err)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, wire.RoleAssistant, req.Messages[0].Role)
		tool := req.Messages[1]
		assert.Equal(t, wire.RoleTool, tool.Role)
		assert.Equal(t, "answer", tool.Content[0].Text)
		require.Len(t, tool.ToolCalls, 1)
		assert.Equal(t, "mcp_1", tool.ToolCalls[0].ID)
	})

	t.Run("多个输出不展开", func(t *testing.T) {
		msg := llm.Message{
			Role: llm.RoleAssistant,
			ContentBlocks: []llm.ContentBlock{
				&llm.CodeInterpreterResultBlock{CallID: "c", Raw: raw, Outputs: []llm.ContentBlock{
					&llm.TextBlock{Text: "a"}, &llm.TextBlock{Text: "b"},
				}},
			},
		}

		req, err := newTestBuilder().Build([]llm.Message{msg}, nil)

		require.NoError(t, err)
		assert.Empty(t, req.Messages)
	})
}

func TestRequestBuilder_DropsEmptyMessages(t *testing.T) {
	messages := []llm.Message{
		{Role: llm.RoleAssistant},
		{Role: llm.RoleAssistant, ContentBlocks: []llm.ContentBlock{
			&llm.CollectionSearchResultBlock{CallID: "x"},
		}},
		{Role: llm.RoleUser, ContentBlocks: []llm.ContentBlock{&llm.TextBlock{}}},
		{Role: llm.RoleAssistant, ContentBlocks: []llm.ContentBlock{&llm.TextBlock{}, &llm.TextBlock{}}},
		llm.NewTextMessage(llm.RoleUser, "still here"),
	}

	req, err := newTestBuilder().Build(messages, nil)

	require.NoError(t, err)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "still here", req.Messages[0].Content[0].Text)
}

func TestRequestBuilder_ReasoningOnlyDropped(t *testing.T) {
	var buf bytes.Buffer
	b := newTestBuilder()
	b.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	msg := llm.Message{
		Role:          llm.RoleAssistant,
		ContentBlocks: []llm.ContentBlock{&llm.ReasoningBlock{Text: "thinking", ProtectedData: "enc"}},
	}

	req, err := b.Build([]llm.Message{msg}, nil)

	require.NoError(t, err)
	assert.Empty(t, req.Messages)
	assert.Contains(t, buf.String(), "xai reasoning-only message skipped")
	assert.Contains(t, buf.String(), "role=assistant")
}

func TestRequestBuilder_Reasoning(t *testing.T) {
	msg := llm.Message{
		Role: llm.RoleAssistant,
		ContentBlocks: []llm.ContentBlock{
			&llm.ReasoningBlock{Text: "thinking", ProtectedData: "enc"},
			&llm.TextBlock{Text: "done"},
		},
	}

	req, err := newTestBuilder().Build([]llm.Message{msg}, nil)

	require.NoError(t, err)
	assert.Equal(t, "thinking", req.Messages[0].ReasoningContent)
	assert.Equal(t, "enc", req.Messages[0].EncryptedContent)
}

// ═══════════════════════════════════════════════════════════════════════════
// 工具与包含项
// ═══════════════════════════════════════════════════════════════════════════

func TestRequestBuilder_Tools(t *testing.T) {
	t.Run("搜索模式前置搜索工具", func(t *testing.T) {
		tools := []llm.Tool{&llm.FunctionTool{Name: "f"}}

		req, err := newTestBuilder().Build(nil, &llm.Options{Search: llm.SearchAll, Tools: tools})

		require.NoError(t, err)
		require.Len(t, req.Tools, 3)
		assert.NotNil(t, req.Tools[0].WebSearch)
		assert.NotNil(t, req.Tools[1].XSearch)
		assert.Equal(t, "f", req.Tools[2].Function.Name)
		assert.Len(t, tools, 1)
	})

	t.Run("只开启 X 搜索", func(t *testing.T) {
		req, err := newTestBuilder().Build(nil, &llm.Options{Search: llm.SearchX})
		require.NoError(t, err)
		require.Len(t, req.Tools, 1)
		assert.NotNil(t, req.Tools[0].XSearch)
	})

	t.Run("未知工具跳过", func(t *testing.T) {
		req, err := newTestBuilder().Build(nil, &llm.Options{Tools: []llm.Tool{unknownTool{}, nil, &llm.CodeInterpreterTool{}}})
		require.NoError(t, err)
		require.Len(t, req.Tools, 1)
		assert.NotNil(t, req.Tools[0].CodeExecution)
	})

	t.Run("过滤冲突在构建时报错", func(t *testing.T) {
		req, err := newTestBuilder().Build(nil, &llm.Options{Tools: []llm.Tool{
			&llm.WebSearchTool{AllowedDomains: []string{"a"}, ExcludedDomains: []string{"b"}},
		}})

		assert.Nil(t, req)
		assert.True(t, llm.IsConflictingFilter(err))
	})
}

func TestRequestBuilder_Include(t *testing.T) {
	t.Run("显式包含项替换默认值", func(t *testing.T) {
		req, err := newTestBuilder().Build(nil, &llm.Options{
			Include: []llm.IncludeOption{llm.IncludeCodeExecutionCallOutput, llm.IncludeMCPCallOutput},
		})

		require.NoError(t, err)
		assert.Equal(t, []wire.IncludeOption{wire.IncludeCodeExecutionCallOutput, wire.IncludeMCPCallOutput}, req.Include)
	})

	t.Run("空切片清空包含项", func(t *testing.T) {
		req, err := newTestBuilder().Build(nil, &llm.Options{Include: []llm.IncludeOption{}})
		require.NoError(t, err)
		assert.Empty(t, req.Include)
	})
}

func TestRequestBuilder_RawRequest(t *testing.T) {
	raw := &wire.GetCompletionsRequest{
		Model:              "grok-3",
		PreviousResponseID: "resp-0",
		Messages: []*wire.Message{
			{Role: wire.RoleSystem, Content: []*wire.Content{{Text: "sys"}}},
		},
		Include: []wire.IncludeOption{wire.IncludeVerboseStreaming},
	}
	snapshot, err := wire.CloneRequest(raw)
	require.NoError(t, err)

	req, err := newTestBuilder().Build([]llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")}, &llm.Options{
		RawRequest:  raw,
		Temperature: llm.Ptr(float32(0.5)),
		Include:     []llm.IncludeOption{llm.IncludeInlineCitations},
	})

	require.NoError(t, err)
	assert.Equal(t, "grok-3", req.Model)
	assert.Equal(t, "resp-0", req.PreviousResponseID)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "sys", req.Messages[0].Content[0].Text)
	assert.Equal(t, []wire.IncludeOption{wire.IncludeInlineCitations}, req.Include)

	// 原始请求不被修改
	assert.Empty(t, cmp.Diff(snapshot, raw))
}
