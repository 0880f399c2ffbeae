package core

// ═══════════════════════════════════════════════════════════════════════════
// 动态 JSON 取值辅助函数
//
// 工具结果等负载以 map[string]any 形式解码，这里集中处理类型断言。
// 类型不符时一律返回零值。
// ═══════════════════════════════════════════════════════════════════════════

// GetString 取字符串
//
// 示例：
//
//	fileID := GetString(match["file_id"])
func GetString(val any) string {
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// GetFloat64 取数值
//
// 支持的输入类型：
//   - float64: JSON 数字的默认类型
//   - float32
//   - int / int64: YAML 或手工构造的负载
func GetFloat64(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// GetStringSlice 取字符串数组
//
// 接受 []string 或元素为字符串的 []any，非字符串元素被跳过。
//
// 示例：
//
//	ids := GetStringSlice(match["collection_ids"]) // ["col1", "col2"]
func GetStringSlice(val any) []string {
	switch v := val.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// GetMap 取 JSON 对象
func GetMap(val any) map[string]any {
	if m, ok := val.(map[string]any); ok {
		return m
	}
	return nil
}
