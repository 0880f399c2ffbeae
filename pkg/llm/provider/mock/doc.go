// Package mock 提供按脚本应答的 xAI 传输实现
//
// 本包实现了 core.Transport 接口，用于测试和开发场景，
// 无需真实的 xAI API 即可验证请求构建、响应映射与流式聚合。
//
// # 概述
//
// [Transport] 是核心类型，提供可预测的响应行为：
//
//   - 支持通过场景名称直接指定响应（推荐方式）
//   - 支持多轮对话场景
//   - 支持推理内容、消息级引用、各类工具调用与服务端工具结果
//   - 同一轮次的一元响应与流式分块等价，可直接比较
//   - 支持模板语法（环境变量与最后一条用户消息）
//   - 记录所有请求，便于测试验证
//
// # 快速开始
//
//	t := mock.New() // 内嵌示例配置 examples/unified.yaml
//	t.UseScenario("web_search")
//
//	client, _ := xai.New(&xai.Config{}, xai.WithTransport(t))
//	resp, err := client.Complete(ctx, messages, nil)
//
// # 场景配置
//
//	scenarios:
//	  - name: weather
//	    turns:
//	      - assistant: "查询中..."
//	        tools:
//	          - name: get_weather
//	            input:
//	              city: "{{.CITY | default `Tokyo`}}"
//	      - assistant: "东京今天晴。"
//
// 工具 type 取 function（默认）、web_search、x_search、code_execution、
// collections_search、mcp。服务端工具带 output 时，结果作为角色为 Tool
// 的独立输出返回，与真实服务一致。
//
// # 模板语法
//
//   - {{.VAR}}: 直接访问环境变量
//   - {{.LAST_USER_MESSAGE}}: 最后一条用户消息
//   - {{.VAR | default "fallback"}}: 带默认值
//   - {{coalesce .VAR1 .VAR2 "default"}}: 多级回退
//   - {{env "VAR"}}: 显式获取环境变量
//
// # 配置选项
//
//   - [WithResponse]: 设置预设响应文本
//   - [WithResponses]: 设置响应队列（多次调用依次返回）
//   - [WithTurnFunc]: 设置动态轮次函数
//   - [WithDelay]: 设置响应延迟
//   - [WithChunkSize]: 设置流式分块大小
//   - [WithError]: 设置返回错误
//   - [WithConfigFile]: 从 YAML/JSON 文件加载配置
//   - [WithConfig]: 从配置对象加载设置
//
// # 线程安全
//
// [Transport] 是线程安全的，可以并发调用。
package mock
