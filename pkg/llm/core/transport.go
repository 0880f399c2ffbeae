package core

import (
	"context"

	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/wire"
)

// ═══════════════════════════════════════════════════════════════════════════
// 传输层接口
// ═══════════════════════════════════════════════════════════════════════════

// Transport 聊天服务传输接口
//
// 协议层只依赖此接口，不接触 HTTP 细节。认证由实现者在每次调用时附加。
//
// 职责边界：
//   - 负责：序列化、分帧、认证、重试、错误码映射
//   - 不负责：消息与内容块的转换（见 protocol/xai）
//
// 实现：
//   - [RESTTransport]: Connect 协议 over HTTP
//   - mock.Transport: 按脚本返回响应，用于测试
type Transport interface {
	// GetCompletion 一元调用
	GetCompletion(ctx context.Context, req *wire.GetCompletionsRequest) (*wire.GetChatCompletionResponse, error)

	// GetCompletionChunk 服务端流式调用
	//
	// 返回时流已建立（响应头已到达），调用方负责 Close。
	GetCompletionChunk(ctx context.Context, req *wire.GetCompletionsRequest) (ChunkStream, error)

	// Close 释放连接
	Close() error
}

// ChunkStream 流式响应
type ChunkStream interface {
	// Recv 读取下一个分块，流正常结束时返回 io.EOF
	Recv() (*wire.GetChatCompletionChunk, error)

	// Close 关闭流，可重复调用
	Close() error
}
