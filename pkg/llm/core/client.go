package core

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm"
	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/wire"
)

// ═══════════════════════════════════════════════════════════════════════════
// 常量
// ═══════════════════════════════════════════════════════════════════════════

const (
	providerName = "xai"

	// Connect 协议路由
	pathGetCompletion      = "/xai_api.Chat/GetCompletion"
	pathGetCompletionChunk = "/xai_api.Chat/GetCompletionChunk"

	contentTypeJSON        = "application/json"
	contentTypeConnectJSON = "application/connect+json"

	headerConnectVersion = "Connect-Protocol-Version"
	headerRequestID      = "X-Request-Id"
)

// ═══════════════════════════════════════════════════════════════════════════
// 传输配置
// ═══════════════════════════════════════════════════════════════════════════

// TransportConfig REST 传输配置
type TransportConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	Headers    map[string]string

	// HTTPTransport 可选，替换底层 RoundTripper（测试或代理场景）
	HTTPTransport http.RoundTripper

	Logger *slog.Logger
}

// ═══════════════════════════════════════════════════════════════════════════
// RESTTransport
// ═══════════════════════════════════════════════════════════════════════════

// RESTTransport 基于 resty 的 Connect 协议传输
//
// 请求流程：
//  1. 序列化请求（sonic）
//  2. 附加 Bearer 认证、Connect 版本头和请求 ID
//  3. 一元调用对 429/5xx 按配置重试；流式调用不重试
//  4. 错误响应解析为 Connect 错误并转换为 [llm.APIError]
//
// 使用示例：
//
//	t, _ := core.NewRESTTransport(core.TransportConfig{
//	    BaseURL: "https://api.x.ai",
//	    APIKey:  os.Getenv("XAI_API_KEY"),
//	})
//	defer t.Close()
//
//	resp, err := t.GetCompletion(ctx, req)
type RESTTransport struct {
	resty  *resty.Client
	logger *slog.Logger
}

var _ Transport = (*RESTTransport)(nil)

// NewRESTTransport 创建 REST 传输
func NewRESTTransport(cfg TransportConfig) (*RESTTransport, error) {
	if cfg.BaseURL == "" {
		return nil, NewInvalidConfigError("base URL")
	}
	if cfg.APIKey == "" {
		return nil, NewMissingAPIKeyError()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := resty.New()
	r.SetBaseURL(cfg.BaseURL)
	r.SetTimeout(GetDefaultTimeout(cfg.Timeout))
	r.SetAuthToken(cfg.APIKey)
	r.SetHeader(headerConnectVersion, "1")
	r.SetJSONMarshaler(sonic.Marshal)
	r.SetJSONUnmarshaler(sonic.Unmarshal)
	for k, v := range cfg.Headers {
		r.SetHeader(k, v)
	}
	if cfg.HTTPTransport != nil {
		r.SetTransport(cfg.HTTPTransport)
	}

	if cfg.MaxRetries > 0 {
		r.SetRetryCount(cfg.MaxRetries)
		r.SetRetryWaitTime(500 * time.Millisecond)
		r.SetRetryMaxWaitTime(5 * time.Second)
		r.AddRetryCondition(shouldRetry)
	}

	return &RESTTransport{resty: r, logger: logger}, nil
}

// shouldRetry 只重试一元调用的限流和服务端错误
func shouldRetry(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil {
		return false
	}
	if r.Request.Header.Get("Content-Type") != contentTypeJSON {
		return false
	}
	status := r.StatusCode()
	return status == http.StatusTooManyRequests || status >= 500 && status <= 504
}

// GetCompletion 实现 Transport
func (t *RESTTransport) GetCompletion(ctx context.Context, req *wire.GetCompletionsRequest) (*wire.GetChatCompletionResponse, error) {
	requestID := uuid.NewString()

	var out wire.GetChatCompletionResponse
	resp, err := t.resty.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentTypeJSON).
		SetHeader(headerRequestID, requestID).
		SetBody(req).
		SetResult(&out).
		Post(pathGetCompletion)
	if err != nil {
		return nil, llm.NewHTTPError("request failed", err)
	}

	t.logger.Debug("xai unary call",
		"request_id", requestID,
		"status", resp.StatusCode(),
		"duration", resp.Time(),
	)

	if resp.StatusCode() >= 400 {
		return nil, unaryError(resp, requestID)
	}
	return &out, nil
}

// GetCompletionChunk 实现 Transport
func (t *RESTTransport) GetCompletionChunk(ctx context.Context, req *wire.GetCompletionsRequest) (ChunkStream, error) {
	payload, err := sonic.Marshal(req)
	if err != nil {
		return nil, llm.NewRequestError("marshal request", err)
	}

	requestID := uuid.NewString()
	resp, err := t.resty.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentTypeConnectJSON).
		SetHeader(headerRequestID, requestID).
		SetBody(EncodeEnvelope(0, payload)).
		SetDoNotParseResponse(true).
		Post(pathGetCompletionChunk)
	if err != nil {
		return nil, llm.NewHTTPError("request failed", err)
	}

	t.logger.Debug("xai stream opened",
		"request_id", requestID,
		"status", resp.StatusCode(),
	)

	if resp.StatusCode() >= 400 {
		body := resp.RawBody()
		defer func() { _ = body.Close() }()
		return nil, streamOpenError(resp, body, requestID)
	}
	return newEnvelopeStream(resp.RawBody(), requestID), nil
}

// Close 关闭空闲连接
func (t *RESTTransport) Close() error {
	t.resty.GetClient().CloseIdleConnections()
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// 错误解析
// ═══════════════════════════════════════════════════════════════════════════

func unaryError(resp *resty.Response, requestID string) error {
	if id := resp.Header().Get(headerRequestID); id != "" {
		requestID = id
	}
	var ce connectError
	if err := sonic.Unmarshal(resp.Body(), &ce); err == nil && ce.Code != "" {
		return ce.toAPIError(resp.StatusCode(), requestID)
	}
	return llm.NewAPIError(resp.StatusCode(), resp.String()).
		WithProvider(providerName).
		WithRequestID(requestID)
}

func streamOpenError(resp *resty.Response, body io.Reader, requestID string) error {
	if id := resp.Header().Get(headerRequestID); id != "" {
		requestID = id
	}
	raw, _ := io.ReadAll(io.LimitReader(body, 64<<10))
	var ce connectError
	if err := sonic.Unmarshal(raw, &ce); err == nil && ce.Code != "" {
		return ce.toAPIError(resp.StatusCode(), requestID)
	}
	return llm.NewAPIError(resp.StatusCode(), string(raw)).
		WithProvider(providerName).
		WithRequestID(requestID)
}

// ═══════════════════════════════════════════════════════════════════════════
// 辅助函数
// ═══════════════════════════════════════════════════════════════════════════

// GetDefaultTimeout 超时为 0 时返回默认的 120 秒
func GetDefaultTimeout(timeout time.Duration) time.Duration {
	if timeout == 0 {
		return 120 * time.Second
	}
	return timeout
}

// NewInvalidConfigError 创建无效配置错误
func NewInvalidConfigError(field string) error {
	return llm.NewConfigError(field+" is required", nil)
}

// NewMissingAPIKeyError 创建缺少 API Key 错误
func NewMissingAPIKeyError() error {
	return llm.NewConfigError("API key is required", nil)
}
