// Package pool provides buffer pooling for value encoding.
//
// Marshal is called once per stored vertex or edge and once per hash
// function call, so the encode buffers are reused instead of allocated per
// call. Callers copy what they need out of a buffer before returning it.
//
// Usage:
//
//	buf := pool.GetBuffer()
//	defer pool.PutBuffer(buf)
//
//	enc := msgpack.NewEncoder(buf)
//	// ... encode ...
//	out := append([]byte(nil), buf.Bytes()...)
package pool

import (
	"bytes"
	"sync"
	"sync/atomic"
)

// PoolConfig configures pooling behavior.
type PoolConfig struct {
	// Enabled controls whether pooling is active
	Enabled bool

	// MaxBufferSize is the largest buffer capacity kept for reuse
	MaxBufferSize int
}

// DefaultConfig pools buffers up to 1MB.
func DefaultConfig() PoolConfig {
	return PoolConfig{Enabled: true, MaxBufferSize: 1 << 20}
}

var globalConfig atomic.Pointer[PoolConfig]

func init() {
	cfg := DefaultConfig()
	globalConfig.Store(&cfg)
}

// Configure sets the global pool configuration.
// Should be called early during initialization.
func Configure(config PoolConfig) {
	globalConfig.Store(&config)
}

// IsEnabled returns whether pooling is enabled.
func IsEnabled() bool {
	return globalConfig.Load().Enabled
}

// =============================================================================
// Buffer Pool (for value encoding)
// =============================================================================

var bufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 256))
	},
}

// GetBuffer returns an empty buffer from the pool.
// Call PutBuffer when done.
func GetBuffer() *bytes.Buffer {
	if !IsEnabled() {
		return bytes.NewBuffer(make([]byte, 0, 256))
	}
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool. The buffer must not be used
// afterwards.
func PutBuffer(buf *bytes.Buffer) {
	cfg := globalConfig.Load()
	if !cfg.Enabled || buf == nil {
		return
	}
	// Don't pool huge buffers
	if buf.Cap() > cfg.MaxBufferSize {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}
