// Package xai 实现 xAI Grok Chat 服务的协议适配
//
// 适配在统一的 llm.Message/ContentBlock 与 wire 包的线上类型之间进行，
// 不涉及 HTTP，传输由 core.Transport 负责。
//
// # 组件
//
//   - [ToWire]/[FromWire]: 工具声明适配
//   - [CitationFromURI]/[CitationsFromInline]: 引用映射
//   - [RequestBuilder]: 消息历史 + 选项 → GetCompletionsRequest
//   - [MapResponse]: GetChatCompletionResponse → llm.Response
//   - [StreamAggregator]: GetChatCompletionChunk → llm.Update
//   - [AccumulateChunks]: 分块重放为完整响应
//
// # 协议特点
//
//   - 函数结果：独立的 ROLE_TOOL 消息，带 toolCallId
//   - 工具调用消息：内容列表不能为空，必要时补一个空文本段
//   - 服务端工具：网页/X 搜索、代码执行、文档集合搜索、MCP 由服务端执行
//   - 工具结果：非流式响应中以 ROLE_TOOL 输出的文本返回
//   - 引用：结构化 InlineCitation 与旧式 URI 字符串两种形状
//
// # 请求格式示例
//
//	{
//	  "model": "grok-4-fast",
//	  "messages": [
//	    {"role": "ROLE_USER", "content": [{"text": "..."}]},
//	    {"role": "ROLE_ASSISTANT", "content": [{"text": ""}],
//	     "toolCalls": [{"id": "call_1", "type": "TOOL_CALL_TYPE_CLIENT_SIDE_TOOL",
//	                    "function": {"name": "get_weather", "arguments": "{}"}}]},
//	    {"role": "ROLE_TOOL", "toolCallId": "call_1", "content": [{"text": "sunny"}]}
//	  ],
//	  "tools": [{"webSearch": {"allowedDomains": ["nasdaq.com"]}}],
//	  "include": ["INCLUDE_OPTION_INLINE_CITATIONS"]
//	}
package xai
