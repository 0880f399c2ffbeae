package xai

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm"
	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/wire"
)

// ═══════════════════════════════════════════════════════════════════════════
// 引用映射
//
// 线上协议有两种引用形状：结构化的 InlineCitation（oneof）和
// 旧式的 URI 字符串（collections:// 方案编码文档集合）。
// 两者都归一为 llm.CitationAnnotation。
// ═══════════════════════════════════════════════════════════════════════════

// collectionsScheme 旧式文档集合引用的 URI 方案
const collectionsScheme = "collections"

// CitationFromURL 网页或社交引用
func CitationFromURL(uri string) *llm.CitationAnnotation {
	return &llm.CitationAnnotation{URL: uri}
}

// CitationsFromCollection 文档集合分块引用
//
// 分块属于的每个集合生成一条引用。标题取分块首行（首个换行符之前），
// 摘要为其余部分；没有换行符时标题为空、摘要为整个分块。
func CitationsFromCollection(fileID, chunkID, chunkContent string, collectionIDs []string) []*llm.CitationAnnotation {
	return citationsFromMatch(searchMatch{
		FileID:        fileID,
		ChunkID:       chunkID,
		ChunkContent:  chunkContent,
		CollectionIDs: collectionIDs,
	})
}

// CitationFromURI 解析旧式引用字符串
//
// collections://{collection}/files/{file} 解析为文档集合引用，
// 其余一律视为网页/社交引用。
func CitationFromURI(s string) *llm.CitationAnnotation {
	u, err := url.Parse(s)
	if err != nil || u.Scheme != collectionsScheme {
		return CitationFromURL(s)
	}

	collectionID := u.Host
	fileID := strings.TrimPrefix(strings.TrimPrefix(u.Path, "/"), "files/")
	return &llm.CitationAnnotation{
		URL:      collectionLocator(collectionID, fileID),
		FileID:   fileID,
		ToolName: llm.ToolNameCollectionsSearch,
		Properties: map[string]any{
			llm.CitationPropCollectionID: collectionID,
		},
	}
}

// CitationsFromInline 结构化引用
//
// oneof 为空时返回 nil。
func CitationsFromInline(c *wire.InlineCitation) []*llm.CitationAnnotation {
	switch {
	case c == nil:
		return nil
	case c.WebCitation != nil:
		return []*llm.CitationAnnotation{CitationFromURL(c.WebCitation.URL)}
	case c.XCitation != nil:
		return []*llm.CitationAnnotation{CitationFromURL(c.XCitation.URL)}
	case c.CollectionsCitation != nil:
		cc := c.CollectionsCitation
		return citationsFromMatch(searchMatch{
			FileID:        cc.FileID,
			ChunkID:       cc.ChunkID,
			ChunkContent:  cc.ChunkContent,
			Score:         float64(cc.Score),
			CollectionIDs: cc.CollectionIDs,
		})
	default:
		return nil
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 内部实现
// ═══════════════════════════════════════════════════════════════════════════

// searchMatch 文档集合搜索命中的一个分块
type searchMatch struct {
	FileID        string
	ChunkID       string
	ChunkContent  string
	Score         float64
	CollectionIDs []string
}

func citationsFromMatch(m searchMatch) []*llm.CitationAnnotation {
	title, snippet := "", m.ChunkContent
	if before, after, ok := strings.Cut(m.ChunkContent, "\n"); ok {
		title, snippet = before, after
	}

	out := make([]*llm.CitationAnnotation, 0, len(m.CollectionIDs))
	for _, collectionID := range m.CollectionIDs {
		props := map[string]any{llm.CitationPropCollectionID: collectionID}
		if m.ChunkID != "" {
			props[llm.CitationPropChunkID] = m.ChunkID
		}
		if m.Score != 0 {
			props[llm.CitationPropScore] = m.Score
		}
		out = append(out, &llm.CitationAnnotation{
			URL:        collectionLocator(collectionID, m.FileID),
			FileID:     m.FileID,
			Title:      title,
			Snippet:    snippet,
			ToolName:   llm.ToolNameCollectionsSearch,
			Properties: props,
		})
	}
	return out
}

func collectionLocator(collectionID, fileID string) string {
	return fmt.Sprintf("%s://%s/files/%s", collectionsScheme, collectionID, fileID)
}

// inlineKey 结构化引用的值标识，用于去重
func inlineKey(c *wire.InlineCitation) string {
	key, err := sonic.MarshalString(c)
	if err != nil {
		return fmt.Sprintf("%+v", *c)
	}
	return key
}

// citationSet 按线上值去重的引用集合
//
// 字符串引用与结构化引用分属不同命名空间，互不合并。
type citationSet map[string]struct{}

// addURI 首次出现时返回 true
func (s citationSet) addURI(uri string) bool {
	return s.add("s:" + uri)
}

// addInline 首次出现时返回 true
func (s citationSet) addInline(c *wire.InlineCitation) bool {
	return s.add("i:" + inlineKey(c))
}

func (s citationSet) add(key string) bool {
	if _, ok := s[key]; ok {
		return false
	}
	s[key] = struct{}{}
	return true
}
