// Package llm 提供 xAI Grok 对话的统一内容模型
//
// 本包定义了与 Grok 服务交互所需的核心类型和接口，包括：
//   - [Provider]: 同步与流式调用的抽象
//   - [Message] 与 [ContentBlock]: 对话消息及其封闭的内容块集合
//   - [Tool]: 客户端函数与服务端托管工具的声明
//   - [CitationAnnotation]: 文本引用
//   - [Update]: 流式增量更新
//   - [Config]: Provider 配置与文件加载
//
// 完整使用示例请参考 example_test.go。
//
// # 内容块
//
// [ContentBlock] 是封闭的和类型，只有本包内的类型实现它：
//
//   - [TextBlock]、[ReasoningBlock]
//   - [FunctionCallBlock]、[FunctionResultBlock]: 客户端函数调用与结果
//   - [HostedToolCallBlock]、[HostedToolResultBlock]: 网页/X 搜索
//   - [CodeInterpreterCallBlock]、[CodeInterpreterResultBlock]
//   - [McpCallBlock]、[McpResultBlock]
//   - [CollectionSearchCallBlock]、[CollectionSearchResultBlock]
//
// 服务端返回的调用块携带原始线上记录（Raw），重发历史时原样附加。
//
// # 工具
//
// 托管工具的过滤列表互斥（如 AllowedDomains 与 ExcludedDomains），
// 同时设置时构建请求失败并返回 [ConflictingFilterError]。
//
// # Provider 类型
//
// [ProviderType] 枚举支持的 Provider 类型：
//   - ProviderTypeXAI: xAI Grok（Connect 协议）
//   - ProviderTypeMock: 按脚本应答的本地传输
//
// # 环境变量
//
// API Key（按优先级）:
//   - XAI_API_KEY
//   - GROK_API_KEY
//   - LLM_API_KEY
//
// Base URL:
//   - XAI_BASE_URL
//   - LLM_BASE_URL
//
// Model:
//   - XAI_MODEL
//   - LLM_MODEL
//
// # 子包
//
//   - wire: 线上消息类型（protobuf JSON 形状）
//   - protocol/xai: 请求构建、响应映射、流式聚合
//   - core: Connect 传输与连接池
//   - provider/xai: Provider 实现
//   - provider/mock: 本地 Mock 传输（用于测试）
//
// # 包文件组织
//
//   - types.go: Provider 接口、Options、Response
//   - message.go: Message、ContentBlock
//   - tool.go: Tool 声明与 SearchMode
//   - citation.go: CitationAnnotation
//   - event.go: Update
//   - errors.go: 错误类型
//   - config.go: Config 与加载
//   - provider_type.go: ProviderType 枚举
//   - env.go: 环境变量探测
package llm
