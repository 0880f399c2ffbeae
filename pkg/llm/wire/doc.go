// Package wire 定义 xAI Chat 服务的线上消息结构
//
// 结构与 xai_api.Chat 的 protobuf 定义一一对应，字段使用 protojson 的
// lowerCamelCase 命名，oneof 字段以互斥的指针字段表示。
//
// 本包只描述数据形状，不包含任何转换逻辑：
//   - [GetCompletionsRequest]: 请求
//   - [GetChatCompletionResponse]: 非流式响应
//   - [GetChatCompletionChunk]: 流式分块
//
// 转换逻辑位于 [pkg/llm/protocol/xai]。
package wire
