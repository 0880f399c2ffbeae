package mock

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"

	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/wire"
)

//go:embed examples/unified.yaml
var exampleConfigYAML []byte

// Config 配置文件结构
type Config struct {
	// DefaultResponse 默认响应（当没有指定场景时使用）
	DefaultResponse string `yaml:"default_response" json:"default_response"`

	// Scenarios 场景列表（通过 name 标识，直接指定使用）
	Scenarios []Scenario `yaml:"scenarios" json:"scenarios"`

	// Delay 响应延迟（如 "100ms", "1s"）
	Delay string `yaml:"delay" json:"delay"`

	// ChunkSize 流式分块的文本字符数，默认 8
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`

	// SimulateError 模拟错误消息
	SimulateError string `yaml:"simulate_error" json:"simulate_error"`
}

// Scenario 场景（通过 name 标识，支持多轮对话）
type Scenario struct {
	// Name 场景名称（必需，用于指定场景）
	Name string `yaml:"name" json:"name"`

	// Turns 对话轮次列表
	Turns []Turn `yaml:"turns" json:"turns"`
}

// Turn 单轮对话
type Turn struct {
	// User 用户消息（可选，用于文档说明）
	User string `yaml:"user,omitempty" json:"user,omitempty"`

	// Assistant 助手响应（支持模板语法）
	Assistant string `yaml:"assistant,omitempty" json:"assistant,omitempty"`

	// Reasoning 推理内容
	Reasoning string `yaml:"reasoning,omitempty" json:"reasoning,omitempty"`

	// Citations 消息级引用 URI
	Citations []string `yaml:"citations,omitempty" json:"citations,omitempty"`

	// Tools 工具调用列表（可选）
	Tools []ToolCall `yaml:"tools,omitempty" json:"tools,omitempty"`

	// FinishReason 完成原因：stop、length、tool_calls；为空时按工具调用推断
	FinishReason string `yaml:"finish_reason,omitempty" json:"finish_reason,omitempty"`

	// ChunkSize 覆盖全局的流式分块大小
	ChunkSize int `yaml:"chunk_size,omitempty" json:"chunk_size,omitempty"`
}

// ToolCall 工具调用
type ToolCall struct {
	// Type 调用类型：function（默认）、web_search、x_search、
	// code_execution、collections_search、mcp
	Type string `yaml:"type,omitempty" json:"type,omitempty"`

	// ID 调用 ID，为空时自动生成
	ID string `yaml:"id,omitempty" json:"id,omitempty"`

	// Name 工具名称
	Name string `yaml:"name" json:"name"`

	// Input 工具输入参数（支持模板语法）
	Input map[string]any `yaml:"input,omitempty" json:"input,omitempty"`

	// Output 服务端工具的执行结果，作为独立的工具输出返回
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// toolCallTypes 配置中的调用类型名称
var toolCallTypes = map[string]wire.ToolCallType{
	"":                   wire.ToolCallTypeClientSide,
	"function":           wire.ToolCallTypeClientSide,
	"web_search":         wire.ToolCallTypeWebSearch,
	"x_search":           wire.ToolCallTypeXSearch,
	"code_execution":     wire.ToolCallTypeCodeExecution,
	"collections_search": wire.ToolCallTypeCollectionsSearch,
	"mcp":                wire.ToolCallTypeMCP,
}

// finishReasons 配置中的完成原因名称
var finishReasons = map[string]wire.FinishReason{
	"stop":       wire.ReasonStop,
	"length":     wire.ReasonMaxLen,
	"tool_calls": wire.ReasonToolCalls,
}

// Validate 检查调用类型与完成原因是否可识别
func (c *Config) Validate() error {
	for _, s := range c.Scenarios {
		if s.Name == "" {
			return errors.New("scenario without name")
		}
		for i, turn := range s.Turns {
			if _, ok := finishReasons[turn.FinishReason]; turn.FinishReason != "" && !ok {
				return fmt.Errorf("scenario %s turn %d: unknown finish reason %q", s.Name, i, turn.FinishReason)
			}
			for _, tool := range turn.Tools {
				if _, ok := toolCallTypes[tool.Type]; !ok {
					return fmt.Errorf("scenario %s turn %d: unknown tool type %q", s.Name, i, tool.Type)
				}
			}
		}
	}
	if c.Delay != "" {
		if _, err := time.ParseDuration(c.Delay); err != nil {
			return fmt.Errorf("invalid delay: %w", err)
		}
	}
	return nil
}

// LoadConfigFile 从文件加载配置
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	return LoadConfigFromBytes(data, ext)
}

// LoadConfigFromBytes 从字节数据加载配置
func LoadConfigFromBytes(data []byte, format string) (*Config, error) {
	cfg := &Config{}

	// 规范化格式字符串（支持 ".yaml" 或 "yaml"）
	format = strings.TrimPrefix(strings.ToLower(format), ".")

	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	case "json":
		if err := sonic.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s (expected yaml, yml, or json)", format)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadExampleConfig 加载内嵌的示例配置
func LoadExampleConfig() (*Config, error) {
	return LoadConfigFromBytes(exampleConfigYAML, "yaml")
}

// WithConfigFile 从配置文件加载设置
func WithConfigFile(path string) Option {
	return func(t *Transport) {
		cfg, err := LoadConfigFile(path)
		if err != nil {
			// 错误在首次调用时返回
			t.err = fmt.Errorf("load config file: %w", err)
			return
		}
		applyConfig(t, cfg)
	}
}

// WithConfig 从配置对象加载设置
func WithConfig(cfg *Config) Option {
	return func(t *Transport) {
		if cfg == nil {
			return
		}
		applyConfig(t, cfg)
	}
}

// applyConfig 应用配置到传输
func applyConfig(t *Transport, cfg *Config) {
	if cfg.DefaultResponse != "" {
		t.response = cfg.DefaultResponse
	}

	if len(cfg.Scenarios) > 0 {
		t.scenarios = make(map[string]*scenarioState)
		for _, s := range cfg.Scenarios {
			if s.Name != "" {
				t.scenarios[s.Name] = &scenarioState{scenario: s}
			}
		}
	}

	if cfg.Delay != "" {
		if d, err := time.ParseDuration(cfg.Delay); err == nil {
			t.delay = d
		}
	}

	if cfg.ChunkSize > 0 {
		t.chunkSize = cfg.ChunkSize
	}

	if cfg.SimulateError != "" {
		t.err = fmt.Errorf("%s", cfg.SimulateError)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 场景状态管理
// ═══════════════════════════════════════════════════════════════════════════

// scenarioState 场景状态
type scenarioState struct {
	scenario Scenario
	turnIdx  int // 当前轮次索引
}

// nextTurn 返回当前轮次并推进；场景结束后返回固定提示
func (s *scenarioState) nextTurn() Turn {
	if s.turnIdx >= len(s.scenario.Turns) {
		return Turn{Assistant: "[场景已结束]"}
	}
	turn := s.scenario.Turns[s.turnIdx]
	s.turnIdx++
	return turn
}

// ═══════════════════════════════════════════════════════════════════════════
// 模板渲染
// ═══════════════════════════════════════════════════════════════════════════

// templateFuncs 模板函数映射
var templateFuncs = template.FuncMap{
	"env":      envFunc,
	"default":  defaultFunc,
	"coalesce": coalesceFunc,
}

// envFunc 获取环境变量
func envFunc(key string, defaultVal ...string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if len(defaultVal) > 0 {
		return defaultVal[0]
	}
	return ""
}

// defaultFunc 提供默认值
func defaultFunc(defaultVal, value any) any {
	if value == nil {
		return defaultVal
	}
	if str, ok := value.(string); ok && str == "" {
		return defaultVal
	}
	return value
}

// coalesceFunc 返回第一个非空值
func coalesceFunc(values ...any) any {
	for _, v := range values {
		if v == nil {
			continue
		}
		if str, ok := v.(string); ok && str == "" {
			continue
		}
		return v
	}
	return nil
}

// renderTemplate 渲染模板，失败时返回原文
func renderTemplate(text string, data map[string]string) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	tmpl, err := template.New("param").Funcs(templateFuncs).Parse(text)
	if err != nil {
		return text
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return text
	}
	return buf.String()
}

// renderToolInput 渲染工具输入参数中的字符串值
func renderToolInput(input map[string]any, data map[string]string) map[string]any {
	if input == nil {
		return nil
	}
	result := make(map[string]any, len(input))
	for key, val := range input {
		if s, ok := val.(string); ok {
			result[key] = renderTemplate(s, data)
		} else {
			result[key] = val
		}
	}
	return result
}

// templateData 环境变量加上最后一条用户消息
func templateData(req *wire.GetCompletionsRequest) map[string]string {
	vars := make(map[string]string)
	for _, env := range os.Environ() {
		if k, v, ok := strings.Cut(env, "="); ok {
			vars[k] = v
		}
	}
	vars["LAST_USER_MESSAGE"] = lastUserText(req)
	return vars
}

// lastUserText 请求中最后一条用户消息的文本
func lastUserText(req *wire.GetCompletionsRequest) string {
	if req == nil {
		return ""
	}
	for i := len(req.Messages) - 1; i >= 0; i-- {
		msg := req.Messages[i]
		if msg == nil || msg.Role != wire.RoleUser {
			continue
		}
		var sb strings.Builder
		for _, c := range msg.Content {
			if c != nil {
				sb.WriteString(c.Text)
			}
		}
		return sb.String()
	}
	return ""
}
