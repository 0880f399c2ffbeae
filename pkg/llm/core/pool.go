package core

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrPoolClosed 连接池已关闭
var ErrPoolClosed = errors.New("transport pool is closed")

// TransportFactory 为 (endpoint, apiKey) 创建传输
type TransportFactory func(endpoint, apiKey string) (Transport, error)

// ConnPool 按 (endpoint, apiKey) 缓存传输
//
// 同一键并发首次使用时只创建一个传输（singleflight），
// 创建失败不缓存，下次调用重新尝试。Close 关闭所有已缓存的传输。
//
// 使用示例：
//
//	pool := core.NewConnPool(nil)
//	defer pool.Close()
//
//	t, err := pool.Get("https://api.x.ai", apiKey)
type ConnPool struct {
	factory TransportFactory
	group   singleflight.Group

	mu     sync.Mutex
	items  map[string]Transport
	closed bool
}

// NewConnPool 创建连接池，factory 为 nil 时使用默认配置的 [RESTTransport]
func NewConnPool(factory TransportFactory) *ConnPool {
	if factory == nil {
		factory = func(endpoint, apiKey string) (Transport, error) {
			return NewRESTTransport(TransportConfig{BaseURL: endpoint, APIKey: apiKey})
		}
	}
	return &ConnPool{
		factory: factory,
		items:   make(map[string]Transport),
	}
}

// poolKey 凭据只以摘要形式参与键
func poolKey(endpoint, apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return endpoint + "|" + hex.EncodeToString(sum[:])
}

// Get 获取或创建传输
func (p *ConnPool) Get(endpoint, apiKey string) (Transport, error) {
	key := poolKey(endpoint, apiKey)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if t, ok := p.items[key]; ok {
		p.mu.Unlock()
		return t, nil
	}
	p.mu.Unlock()

	v, err, _ := p.group.Do(key, func() (any, error) {
		p.mu.Lock()
		if t, ok := p.items[key]; ok {
			p.mu.Unlock()
			return t, nil
		}
		p.mu.Unlock()

		t, err := p.factory(endpoint, apiKey)
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.closed {
			_ = t.Close()
			return nil, ErrPoolClosed
		}
		p.items[key] = t
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Transport), nil
}

// Len 已缓存的传输数量
func (p *ConnPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// Close 关闭所有传输，之后的 Get 返回 [ErrPoolClosed]
func (p *ConnPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	items := p.items
	p.items = make(map[string]Transport)
	p.mu.Unlock()

	var errs []error
	for _, t := range items {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
