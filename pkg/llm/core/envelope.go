package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm"
	"github.com/lwmacct/251215-go-pkg-xai/pkg/llm/wire"
)

// ═══════════════════════════════════════════════════════════════════════════
// Connect 流式分帧
//
// 每一帧为 1 字节标志 + 4 字节大端长度 + 负载：
//
//	+-------+----------------+-------------------+
//	| flags | length (BE32)  | payload (JSON)    |
//	+-------+----------------+-------------------+
//
// flags 0x01 表示负载被压缩（本实现不协商压缩），
// flags 0x02 表示流结束帧，负载为 {"error":{...},"metadata":{...}}。
// ═══════════════════════════════════════════════════════════════════════════

const (
	envelopeFlagCompressed byte = 0x01
	envelopeFlagEndStream  byte = 0x02

	envelopeHeaderSize = 5

	// maxEnvelopeSize 单帧上限，超出视为协议错误
	maxEnvelopeSize = 64 << 20
)

// EncodeEnvelope 编码一帧
func EncodeEnvelope(flags byte, payload []byte) []byte {
	buf := make([]byte, envelopeHeaderSize+len(payload))
	buf[0] = flags
	binary.BigEndian.PutUint32(buf[1:envelopeHeaderSize], uint32(len(payload)))
	copy(buf[envelopeHeaderSize:], payload)
	return buf
}

// EnvelopeReader 从字节流中逐帧读取
type EnvelopeReader struct {
	r      io.Reader
	header [envelopeHeaderSize]byte
}

// NewEnvelopeReader 创建帧读取器
func NewEnvelopeReader(r io.Reader) *EnvelopeReader {
	return &EnvelopeReader{r: r}
}

// Next 读取下一帧
//
// 在帧边界上遇到流结束时返回 io.EOF；帧被截断时返回 io.ErrUnexpectedEOF。
func (er *EnvelopeReader) Next() (flags byte, payload []byte, err error) {
	if _, err := io.ReadFull(er.r, er.header[:]); err != nil {
		return 0, nil, err
	}
	flags = er.header[0]
	size := binary.BigEndian.Uint32(er.header[1:])
	if size > maxEnvelopeSize {
		return 0, nil, fmt.Errorf("envelope of %d bytes exceeds limit", size)
	}

	payload = make([]byte, size)
	if _, err := io.ReadFull(er.r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return 0, nil, err
	}
	return flags, payload, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Connect 错误
// ═══════════════════════════════════════════════════════════════════════════

// connectError Connect 协议错误体，一元调用失败时为响应体，流式调用时在结束帧中
type connectError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type endStreamMessage struct {
	Error    *connectError       `json:"error,omitempty"`
	Metadata map[string][]string `json:"metadata,omitempty"`
}

// connectCodeStatus Connect 错误码对应的 HTTP 状态码
var connectCodeStatus = map[string]int{
	"canceled":            499,
	"unknown":             http.StatusInternalServerError,
	"invalid_argument":    http.StatusBadRequest,
	"deadline_exceeded":   http.StatusGatewayTimeout,
	"not_found":           http.StatusNotFound,
	"already_exists":      http.StatusConflict,
	"permission_denied":   http.StatusForbidden,
	"resource_exhausted":  http.StatusTooManyRequests,
	"failed_precondition": http.StatusBadRequest,
	"aborted":             http.StatusConflict,
	"out_of_range":        http.StatusBadRequest,
	"unimplemented":       http.StatusNotImplemented,
	"internal":            http.StatusInternalServerError,
	"unavailable":         http.StatusServiceUnavailable,
	"data_loss":           http.StatusInternalServerError,
	"unauthenticated":     http.StatusUnauthorized,
}

// toAPIError 转换为 API 错误，status 为 0 时按错误码推断
func (e *connectError) toAPIError(status int, requestID string) *llm.APIError {
	if status == 0 {
		status = connectCodeStatus[e.Code]
		if status == 0 {
			status = http.StatusInternalServerError
		}
	}
	apiErr := llm.NewAPIError(status, e.Message).
		WithProvider(providerName).
		WithErrorCode(e.Code)
	if requestID != "" {
		apiErr = apiErr.WithRequestID(requestID)
	}
	return apiErr
}

// ═══════════════════════════════════════════════════════════════════════════
// 流式响应读取
// ═══════════════════════════════════════════════════════════════════════════

// envelopeStream 基于分帧的 ChunkStream 实现
type envelopeStream struct {
	body      io.ReadCloser
	reader    *EnvelopeReader
	requestID string
	done      bool
}

func newEnvelopeStream(body io.ReadCloser, requestID string) *envelopeStream {
	return &envelopeStream{
		body:      body,
		reader:    NewEnvelopeReader(body),
		requestID: requestID,
	}
}

// Recv 实现 ChunkStream
//
// 结束帧不含错误时返回 io.EOF；没有结束帧就断开视为流式错误。
func (s *envelopeStream) Recv() (*wire.GetChatCompletionChunk, error) {
	if s.done {
		return nil, io.EOF
	}

	flags, payload, err := s.reader.Next()
	if err != nil {
		s.done = true
		if errors.Is(err, io.EOF) {
			return nil, llm.NewStreamError("stream closed before end-of-stream message", io.ErrUnexpectedEOF)
		}
		return nil, llm.NewStreamError("read envelope", err)
	}

	if flags&envelopeFlagCompressed != 0 {
		s.done = true
		return nil, llm.NewStreamError("compressed envelope not supported", nil)
	}

	if flags&envelopeFlagEndStream != 0 {
		s.done = true
		var end endStreamMessage
		if len(payload) > 0 {
			if err := sonic.Unmarshal(payload, &end); err != nil {
				return nil, llm.NewStreamError("decode end-of-stream message", err)
			}
		}
		if end.Error != nil {
			return nil, end.Error.toAPIError(0, s.requestID)
		}
		return nil, io.EOF
	}

	var chunk wire.GetChatCompletionChunk
	if err := sonic.Unmarshal(payload, &chunk); err != nil {
		s.done = true
		return nil, llm.NewResponseError("chunk", err)
	}
	return &chunk, nil
}

// Close 实现 ChunkStream
func (s *envelopeStream) Close() error {
	s.done = true
	return s.body.Close()
}
