package wire

import "time"

// ═══════════════════════════════════════════════════════════════════════════
// 非流式响应
// ═══════════════════════════════════════════════════════════════════════════

// GetChatCompletionResponse 对应 xai_api.GetChatCompletionResponse
type GetChatCompletionResponse struct {
	ID                string              `json:"id,omitempty"`
	Outputs           []*CompletionOutput `json:"outputs,omitempty"`
	Created           *time.Time          `json:"created,omitempty"`
	Model             string              `json:"model,omitempty"`
	SystemFingerprint string              `json:"systemFingerprint,omitempty"`
	Usage             *SamplingUsage      `json:"usage,omitempty"`
	Citations         []string            `json:"citations,omitempty"`
}

// CompletionOutput 单个候选输出
type CompletionOutput struct {
	FinishReason FinishReason       `json:"finishReason,omitempty"`
	Index        int32              `json:"index,omitempty"`
	Message      *CompletionMessage `json:"message,omitempty"`
}

// CompletionMessage 候选输出中的消息
type CompletionMessage struct {
	Content          string            `json:"content,omitempty"`
	ReasoningContent string            `json:"reasoningContent,omitempty"`
	Role             MessageRole       `json:"role,omitempty"`
	ToolCalls        []*ToolCall       `json:"toolCalls,omitempty"`
	EncryptedContent string            `json:"encryptedContent,omitempty"`
	Citations        []*InlineCitation `json:"citations,omitempty"`
}

// ═══════════════════════════════════════════════════════════════════════════
// 内联引用（oneof）
// ═══════════════════════════════════════════════════════════════════════════

// InlineCitation 结构化引用，WebCitation/XCitation/CollectionsCitation 互斥
type InlineCitation struct {
	ID                  string               `json:"id,omitempty"`
	StartIndex          int32                `json:"startIndex,omitempty"`
	EndIndex            int32                `json:"endIndex,omitempty"`
	WebCitation         *WebCitation         `json:"webCitation,omitempty"`
	XCitation           *XCitation           `json:"xCitation,omitempty"`
	CollectionsCitation *CollectionsCitation `json:"collectionsCitation,omitempty"`
}

// WebCitation 网页引用
type WebCitation struct {
	URL string `json:"url,omitempty"`
}

// XCitation X 帖子引用
type XCitation struct {
	URL string `json:"url,omitempty"`
}

// CollectionsCitation 文档集合分块引用
type CollectionsCitation struct {
	FileID        string   `json:"fileId,omitempty"`
	ChunkID       string   `json:"chunkId,omitempty"`
	ChunkContent  string   `json:"chunkContent,omitempty"`
	Score         float32  `json:"score,omitempty"`
	CollectionIDs []string `json:"collectionIds,omitempty"`
}

// ═══════════════════════════════════════════════════════════════════════════
// 用量
// ═══════════════════════════════════════════════════════════════════════════

// SamplingUsage Token 使用量
type SamplingUsage struct {
	CompletionTokens       int32 `json:"completionTokens,omitempty"`
	ReasoningTokens        int32 `json:"reasoningTokens,omitempty"`
	PromptTokens           int32 `json:"promptTokens,omitempty"`
	TotalTokens            int32 `json:"totalTokens,omitempty"`
	PromptTextTokens       int32 `json:"promptTextTokens,omitempty"`
	CachedPromptTextTokens int32 `json:"cachedPromptTextTokens,omitempty"`
	PromptImageTokens      int32 `json:"promptImageTokens,omitempty"`
	NumSourcesUsed         int32 `json:"numSourcesUsed,omitempty"`
}

// ═══════════════════════════════════════════════════════════════════════════
// 流式分块
// ═══════════════════════════════════════════════════════════════════════════

// GetChatCompletionChunk 对应 xai_api.GetChatCompletionChunk
//
// Citations 只在携带增量引用的分块上出现。
type GetChatCompletionChunk struct {
	ID                string                   `json:"id,omitempty"`
	Outputs           []*CompletionOutputChunk `json:"outputs,omitempty"`
	Created           *time.Time               `json:"created,omitempty"`
	Model             string                   `json:"model,omitempty"`
	SystemFingerprint string                   `json:"systemFingerprint,omitempty"`
	Usage             *SamplingUsage           `json:"usage,omitempty"`
	Citations         []string                 `json:"citations,omitempty"`
}

// CompletionOutputChunk 单个候选输出的增量
type CompletionOutputChunk struct {
	Delta        *Delta       `json:"delta,omitempty"`
	Index        int32        `json:"index,omitempty"`
	FinishReason FinishReason `json:"finishReason,omitempty"`
}

// Delta 消息增量
type Delta struct {
	Content          string            `json:"content,omitempty"`
	ReasoningContent string            `json:"reasoningContent,omitempty"`
	Role             MessageRole       `json:"role,omitempty"`
	ToolCalls        []*ToolCall       `json:"toolCalls,omitempty"`
	EncryptedContent string            `json:"encryptedContent,omitempty"`
	Citations        []*InlineCitation `json:"citations,omitempty"`
}
