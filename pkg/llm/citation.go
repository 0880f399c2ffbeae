package llm

// CitationAnnotation 引用标注
//
// 网页/社交引用填充 URL；文档集合引用填充 FileID，并在 Properties 中
// 记录 collection_id 等附加信息。
type CitationAnnotation struct {
	URL      string `json:"url,omitempty"`
	FileID   string `json:"file_id,omitempty"`
	Snippet  string `json:"snippet,omitempty"`
	Title    string `json:"title,omitempty"`
	ToolName string `json:"tool_name,omitempty"`

	// Properties 扩展属性
	Properties map[string]any `json:"properties,omitempty"`
}

// 引用属性键
const (
	CitationPropCollectionID = "collection_id"
	CitationPropChunkID      = "chunk_id"
	CitationPropScore        = "score"
)

// 引用来源工具名称
const (
	ToolNameCollectionsSearch = "collections_search"
	ToolNameFileSearch        = "file_search"
)

// CollectionID 返回文档集合 ID（非集合引用返回空串）
func (c *CitationAnnotation) CollectionID() string {
	if s, ok := c.Properties[CitationPropCollectionID].(string); ok {
		return s
	}
	return ""
}

// IsCollection 判断是否为文档集合引用
func (c *CitationAnnotation) IsCollection() bool {
	return c.FileID != ""
}
