package xai

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm"
	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/wire"
)

// ═══════════════════════════════════════════════════════════════════════════
// 工具描述 -> 线上工具
// ═══════════════════════════════════════════════════════════════════════════

// ToWire 将工具描述转换为线上工具配置
//
// 不认识的工具类型返回 (nil, nil)，调用方应直接跳过。
// 网页/X 搜索同时设置允许列表与排除列表时返回 [llm.ConflictingFilterError]。
func ToWire(tool llm.Tool) (*wire.Tool, error) {
	switch t := tool.(type) {
	case *llm.FunctionTool:
		return functionToWire(t)
	case *llm.WebSearchTool:
		return webSearchToWire(t)
	case *llm.XSearchTool:
		return xSearchToWire(t)
	case *llm.CodeInterpreterTool:
		return &wire.Tool{CodeExecution: &wire.CodeExecution{}}, nil
	case *llm.CollectionSearchTool:
		return collectionSearchToWire(t), nil
	case *llm.McpServerTool:
		return mcpToWire(t), nil
	default:
		return nil, nil
	}
}

func functionToWire(t *llm.FunctionTool) (*wire.Tool, error) {
	fn := &wire.Function{
		Name:        t.Name,
		Description: t.Description,
		Strict:      t.Strict,
	}
	if t.Parameters != nil {
		schema, err := sonic.MarshalString(t.Parameters)
		if err != nil {
			return nil, llm.NewRequestError("marshal tool schema", err)
		}
		fn.Parameters = schema
	}
	return &wire.Tool{Function: fn}, nil
}

func webSearchToWire(t *llm.WebSearchTool) (*wire.Tool, error) {
	if hasEntries(t.AllowedDomains) && hasEntries(t.ExcludedDomains) {
		return nil, llm.NewConflictingFilterError(t.ToolName(), "allowed_domains", "excluded_domains")
	}

	ws := &wire.WebSearch{
		AllowedDomains:  slices.Clone(t.AllowedDomains),
		ExcludedDomains: slices.Clone(t.ExcludedDomains),
	}
	if t.EnableImageUnderstanding {
		ws.EnableImageUnderstanding = llm.Ptr(true)
	}
	if !t.UserLocation.IsZero() {
		ws.UserLocation = &wire.WebSearchUserLocation{
			Country:  t.UserLocation.Country,
			Region:   t.UserLocation.Region,
			City:     t.UserLocation.City,
			Timezone: t.UserLocation.Timezone,
		}
	}
	return &wire.Tool{WebSearch: ws}, nil
}

func xSearchToWire(t *llm.XSearchTool) (*wire.Tool, error) {
	if hasEntries(t.AllowedHandles) && hasEntries(t.ExcludedHandles) {
		return nil, llm.NewConflictingFilterError(t.ToolName(), "allowed_handles", "excluded_handles")
	}

	xs := &wire.XSearch{
		AllowedXHandles:  slices.Clone(t.AllowedHandles),
		ExcludedXHandles: slices.Clone(t.ExcludedHandles),
		FromDate:         utcMidnight(t.FromDate),
		ToDate:           utcMidnight(t.ToDate),
	}
	if t.EnableImageUnderstanding {
		xs.EnableImageUnderstanding = llm.Ptr(true)
	}
	if t.EnableVideoUnderstanding {
		xs.EnableVideoUnderstanding = llm.Ptr(true)
	}
	return &wire.Tool{XSearch: xs}, nil
}

func collectionSearchToWire(t *llm.CollectionSearchTool) *wire.Tool {
	cs := &wire.CollectionsSearch{
		CollectionIDs: distinct(t.CollectionIDs),
		Instructions:  t.Instructions,
	}
	if t.MaxResults != nil {
		cs.Limit = llm.Ptr(*t.MaxResults)
	}
	if cs.Instructions == "" {
		if s, ok := t.Extra["instructions"].(string); ok {
			cs.Instructions = s
		}
	}
	return &wire.Tool{CollectionsSearch: cs}
}

func mcpToWire(t *llm.McpServerTool) *wire.Tool {
	mcp := &wire.MCP{
		ServerLabel:       t.Label,
		ServerDescription: t.Description,
		ServerURL:         t.URL,
		Authorization:     t.AuthorizationToken,
		AllowedToolNames:  slices.Clone(t.AllowedToolNames),
	}

	// 扩展属性中的字符串值先写入，显式的 ExtraHeaders 后写入并覆盖同名键
	headers := make(map[string]string)
	for k, v := range t.Extra {
		if s, ok := v.(string); ok {
			headers[k] = s
		}
	}
	maps.Copy(headers, t.ExtraHeaders)
	if len(headers) > 0 {
		mcp.ExtraHeaders = headers
	}
	return &wire.Tool{MCP: mcp}
}

// ═══════════════════════════════════════════════════════════════════════════
// 线上工具 -> 工具描述
// ═══════════════════════════════════════════════════════════════════════════

// FromWire 将线上工具配置还原为工具描述
//
// 空的 oneof 返回 nil。函数 Schema 无法解析时 Parameters 为 nil。
func FromWire(tool *wire.Tool) llm.Tool {
	if tool == nil {
		return nil
	}
	switch {
	case tool.Function != nil:
		fn := &llm.FunctionTool{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
			Strict:      tool.Function.Strict,
		}
		if tool.Function.Parameters != "" {
			var schema map[string]any
			if err := sonic.UnmarshalString(tool.Function.Parameters, &schema); err == nil {
				fn.Parameters = schema
			}
		}
		return fn

	case tool.WebSearch != nil:
		ws := tool.WebSearch
		out := &llm.WebSearchTool{
			AllowedDomains:           slices.Clone(ws.AllowedDomains),
			ExcludedDomains:          slices.Clone(ws.ExcludedDomains),
			EnableImageUnderstanding: deref(ws.EnableImageUnderstanding),
		}
		if loc := ws.UserLocation; loc != nil {
			out.UserLocation = &llm.UserLocation{
				Country:  loc.Country,
				Region:   loc.Region,
				City:     loc.City,
				Timezone: loc.Timezone,
			}
		}
		return out

	case tool.XSearch != nil:
		xs := tool.XSearch
		return &llm.XSearchTool{
			AllowedHandles:           slices.Clone(xs.AllowedXHandles),
			ExcludedHandles:          slices.Clone(xs.ExcludedXHandles),
			EnableImageUnderstanding: deref(xs.EnableImageUnderstanding),
			EnableVideoUnderstanding: deref(xs.EnableVideoUnderstanding),
			FromDate:                 cloneTime(xs.FromDate),
			ToDate:                   cloneTime(xs.ToDate),
		}

	case tool.CodeExecution != nil:
		return &llm.CodeInterpreterTool{}

	case tool.CollectionsSearch != nil:
		cs := tool.CollectionsSearch
		out := &llm.CollectionSearchTool{
			CollectionIDs: slices.Clone(cs.CollectionIDs),
			Instructions:  cs.Instructions,
		}
		if cs.Limit != nil {
			out.MaxResults = llm.Ptr(*cs.Limit)
		}
		return out

	case tool.MCP != nil:
		m := tool.MCP
		return &llm.McpServerTool{
			Label:              m.ServerLabel,
			Description:        m.ServerDescription,
			URL:                m.ServerURL,
			AuthorizationToken: m.Authorization,
			AllowedToolNames:   slices.Clone(m.AllowedToolNames),
			ExtraHeaders:       maps.Clone(m.ExtraHeaders),
		}

	default:
		return nil
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 辅助函数
// ═══════════════════════════════════════════════════════════════════════════

// hasEntries 列表中至少有一个非空白项
func hasEntries(list []string) bool {
	for _, s := range list {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

// utcMidnight 取时间在其自身时区的日历日，返回该日的 UTC 零点
func utcMidnight(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	y, m, d := t.Date()
	out := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &out
}

// distinct 保序去重
func distinct(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func deref(b *bool) bool {
	return b != nil && *b
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	out := *t
	return &out
}
