package xai

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm"
	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/core"
	xaiproto "github.com/lwmacct/251215-go-pkg-xai/pkg/llm/protocol/xai"
)

// ═══════════════════════════════════════════════════════════════════════════
// 配置和客户端
// ═══════════════════════════════════════════════════════════════════════════

// DefaultBaseURL xAI API 地址
const DefaultBaseURL = "https://api.x.ai"

// DefaultModel 默认模型
const DefaultModel = "grok-4-fast"

// Config 客户端配置
type Config struct {
	// APIKey API 密钥（使用 WithTransport 时可为空）
	APIKey string

	// BaseURL API 基础地址，默认 https://api.x.ai
	BaseURL string

	// Model 默认模型名称，默认 grok-4-fast
	Model string

	// EndUserID 默认的终端用户标识
	EndUserID string

	// Timeout 请求超时时间，默认 120 秒
	Timeout time.Duration

	// MaxRetries 一元调用在 429/5xx 时的重试次数
	MaxRetries int

	// Headers 额外的请求头
	Headers map[string]string
}

// Option 客户端选项
type Option func(*Client)

// WithLogger 设置日志记录器
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTransport 使用指定传输，客户端不负责关闭它
func WithTransport(t core.Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithConnPool 从连接池获取传输，连接池负责关闭
func WithConnPool(pool *core.ConnPool) Option {
	return func(c *Client) {
		c.pool = pool
	}
}

// Client xAI Grok 客户端
//
// 实现 [llm.Provider] 接口，支持同步和流式完成。
//
// 架构设计：
//   - 请求构建、响应映射、流式聚合由 protocol/xai 负责
//   - HTTP 通信由 core.Transport 负责
//   - 每次 Stream 调用拥有独立的聚合状态，可以并发调用
type Client struct {
	config    Config
	builder   *xaiproto.RequestBuilder
	transport core.Transport
	pool      *core.ConnPool
	owned     bool
	logger    *slog.Logger
}

var _ llm.Provider = (*Client)(nil)

// New 创建新的 xAI 客户端
func New(config *Config, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, llm.NewConfigError("config is required", nil)
	}

	c := &Client{config: *config}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	if c.config.BaseURL == "" {
		c.config.BaseURL = DefaultBaseURL
	}
	if c.config.Model == "" {
		c.config.Model = DefaultModel
	}

	switch {
	case c.transport != nil:
	case c.pool != nil:
		if c.config.APIKey == "" {
			return nil, core.NewMissingAPIKeyError()
		}
		t, err := c.pool.Get(c.config.BaseURL, c.config.APIKey)
		if err != nil {
			return nil, llm.NewConfigError("acquire transport", err)
		}
		c.transport = t
	default:
		t, err := core.NewRESTTransport(core.TransportConfig{
			BaseURL:    c.config.BaseURL,
			APIKey:     c.config.APIKey,
			Timeout:    c.config.Timeout,
			MaxRetries: c.config.MaxRetries,
			Headers:    c.config.Headers,
			Logger:     c.logger,
		})
		if err != nil {
			return nil, err
		}
		c.transport = t
		c.owned = true
	}

	c.builder = xaiproto.NewRequestBuilder(c.config.Model, c.config.EndUserID)
	c.builder.Logger = c.logger
	return c, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Provider 接口实现
// ═══════════════════════════════════════════════════════════════════════════

// Complete 同步完成
//
// 构建失败（过滤冲突、响应格式不受支持）时不会发起网络调用。
// 传输层错误原样返回。
func (c *Client) Complete(ctx context.Context, messages []llm.Message, opts *llm.Options) (*llm.Response, error) {
	req, err := c.builder.Build(messages, opts)
	if err != nil {
		return nil, err
	}

	resp, err := c.transport.GetCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	out, err := xaiproto.MapResponse(resp)
	if err != nil {
		return nil, err
	}
	if out.Model == "" {
		out.Model = req.Model
	}

	c.logger.Debug("xai completion finished",
		"id", out.ID,
		"model", out.Model,
		"finish_reason", out.FinishReason,
		"blocks", len(out.Message.ContentBlocks),
	)
	return out, nil
}

// Stream 流式完成
//
// 请求在调用时构建，构建失败直接返回错误；流在第一次遍历时才建立。
// 返回的序列只能遍历一次，再次遍历产生 [llm.StreamError]。
// ctx 取消后停止读取并产生一次 ctx 错误，不会再产生任何更新。
// 使用 [StreamParser] 折叠为完整消息。
func (c *Client) Stream(ctx context.Context, messages []llm.Message, opts *llm.Options) (iter.Seq2[*llm.Update, error], error) {
	req, err := c.builder.Build(messages, opts)
	if err != nil {
		return nil, err
	}

	var consumed atomic.Bool
	return func(yield func(*llm.Update, error) bool) {
		if !consumed.CompareAndSwap(false, true) {
			yield(nil, llm.NewStreamError("stream already consumed", nil))
			return
		}

		stream, err := c.transport.GetCompletionChunk(ctx, req)
		if err != nil {
			yield(nil, err)
			return
		}
		defer func() { _ = stream.Close() }()

		agg := xaiproto.NewStreamAggregator()
		defer agg.Close()

		chunks := 0
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			chunk, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				c.logger.Debug("xai stream finished", "chunks", chunks)
				return
			}
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					err = ctxErr
				}
				yield(nil, err)
				return
			}
			chunks++

			updates, err := agg.HandleChunk(chunk)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, u := range updates {
				if !yield(u, nil) {
					return
				}
			}
		}
	}, nil
}

// Close 关闭客户端
//
// 只关闭客户端自行创建的传输；WithTransport 与 WithConnPool 提供的传输由调用方管理。
func (c *Client) Close() error {
	if c.owned {
		return c.transport.Close()
	}
	return nil
}
