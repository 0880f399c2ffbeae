package xai

import (
	"github.com/bytedance/sonic"

	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm"
	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/core"
	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/wire"
)

// ParseCollectionSearchResult 解析文档集合搜索工具的 JSON 结果
//
// 结果形如：
//
//	{"search_matches":[{"file_id":"f1","chunk_id":"c1","chunk_content":"Title\nBody",
//	                    "score":0.9,"collection_ids":["col1"]}]}
//
// 按文件 ID 分组（保持首次出现的顺序），每个文件一个 HostedFile，
// 其引用为该文件所有命中分块的引用，Name 取第一个非空标题。
//
// 内容不是合法 JSON 对象时返回 [llm.MalformedToolPayloadError]；
// 没有非空的 search_matches 数组时返回 (nil, false, nil)。
func ParseCollectionSearchResult(callID string, raw *wire.ToolCall, content string) (*llm.CollectionSearchResultBlock, bool, error) {
	var doc map[string]any
	if err := sonic.UnmarshalString(content, &doc); err != nil {
		return nil, false, llm.NewMalformedToolPayloadError(callID, "content", err)
	}

	items, ok := doc["search_matches"].([]any)
	if !ok || len(items) == 0 {
		return nil, false, nil
	}

	var order []string
	byFile := make(map[string]*llm.HostedFile)
	for _, item := range items {
		fields := core.GetMap(item)
		if fields == nil {
			continue
		}
		m := searchMatch{
			FileID:        core.GetString(fields["file_id"]),
			ChunkID:       core.GetString(fields["chunk_id"]),
			ChunkContent:  core.GetString(fields["chunk_content"]),
			Score:         core.GetFloat64(fields["score"]),
			CollectionIDs: core.GetStringSlice(fields["collection_ids"]),
		}

		file, seen := byFile[m.FileID]
		if !seen {
			file = &llm.HostedFile{FileID: m.FileID}
			byFile[m.FileID] = file
			order = append(order, m.FileID)
		}
		citations := citationsFromMatch(m)
		file.Annotations = append(file.Annotations, citations...)
		if file.Name == "" {
			for _, c := range citations {
				if c.Title != "" {
					file.Name = c.Title
					break
				}
			}
		}
	}
	if len(order) == 0 {
		return nil, false, nil
	}

	result := &llm.CollectionSearchResultBlock{
		CallID: callID,
		Raw:    cloneToolCall(raw),
	}
	for _, id := range order {
		result.Outputs = append(result.Outputs, byFile[id])
	}
	return result, true, nil
}
