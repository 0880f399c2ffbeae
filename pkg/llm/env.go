package llm

import "os"

// 环境变量（按优先级）
var (
	EnvAPIKeys  = []string{"XAI_API_KEY", "GROK_API_KEY", "LLM_API_KEY"}
	EnvBaseURLs = []string{"XAI_BASE_URL", "LLM_BASE_URL"}
	EnvModels   = []string{"XAI_MODEL", "LLM_MODEL"}
)

// firstEnv 返回第一个非空的环境变量值
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
