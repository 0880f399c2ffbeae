package llm

import "time"

// ═══════════════════════════════════════════════════════════════════════════
// 流式增量更新
// ═══════════════════════════════════════════════════════════════════════════

// Update 流式响应的一次增量更新
//
// 每个更新对应一个候选输出（Index）。把同一流的所有更新折叠起来，
// 结果与同一服务端输出的非流式响应一致。
//
// 使用示例：
//
//	updates, err := provider.Stream(ctx, messages, opts)
//	if err != nil {
//	    return err
//	}
//	for update, err := range updates {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(update.Text())
//	}
type Update struct {
	Role  Role `json:"role"`
	Index int  `json:"index,omitempty"`

	ResponseID string     `json:"response_id,omitempty"`
	Model      string     `json:"model,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`

	// FinishReason 仅在该输出完成时出现
	FinishReason FinishReason `json:"finish_reason,omitempty"`

	ContentBlocks []ContentBlock `json:"content_blocks,omitempty"`
}

// Text 获取更新中的文本增量
func (u *Update) Text() string {
	m := Message{ContentBlocks: u.ContentBlocks}
	return m.Text()
}
