// Package xai 提供 xAI Grok 的 LLM Provider 实现
//
// 本包实现了 [llm.Provider] 接口，通过 Connect 协议访问
// xai_api.Chat 服务的 GetCompletion 与 GetCompletionChunk 两个方法。
//
// # 概述
//
// [Client] 组合三部分：
//
//   - protocol/xai.RequestBuilder: 消息历史与选项构建为线上请求
//   - core.Transport: 序列化、分帧、认证与重试
//   - protocol/xai.MapResponse / StreamAggregator: 线上响应映射回内容块
//
// # 快速开始
//
//	client, err := xai.New(&xai.Config{
//	    APIKey: os.Getenv("XAI_API_KEY"),
//	    Model:  "grok-4-fast",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// 同步完成
//	resp, err := client.Complete(ctx, messages, &llm.Options{
//	    Tools: []llm.Tool{&llm.WebSearchTool{AllowedDomains: []string{"nasdaq.com"}}},
//	})
//
//	// 流式完成
//	updates, err := client.Stream(ctx, messages, nil)
//	for update, err := range updates {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(update.Text())
//	}
//
// # 流式响应
//
// 使用 [StreamParser] 将更新折叠为完整消息：
//
//	updates, _ := client.Stream(ctx, messages, nil)
//	result, err := xai.ParseStream(updates)
//	fmt.Println(result.Message.Text())
//
// # 连接复用
//
// 多个客户端共享同一端点与密钥时，使用 [WithConnPool] 复用传输：
//
//	pool := core.NewConnPool(nil)
//	defer pool.Close()
//
//	a, _ := xai.New(cfgA, xai.WithConnPool(pool))
//	b, _ := xai.New(cfgB, xai.WithConnPool(pool))
//
// # 错误处理
//
// 构建错误（[llm.ConflictingFilterError]、[llm.UnsupportedResponseFormatError]）
// 在发起网络调用前返回；服务端错误为 [llm.APIError]，载有 Connect 错误码和请求 ID。
//
// # 线程安全
//
// [Client] 可以并发调用 Complete 和 Stream。每次 Stream 返回的序列
// 拥有独立的聚合状态，只能遍历一次。
package xai
