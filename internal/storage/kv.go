package storage

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv engine closed")
)

// KVEngine is a durable key-value medium.
//
// Implementation requirements:
// - Thread-safe: concurrent reads/writes must be safe
// - Atomic: Apply commits every op of a batch or none of them
// - Consistent: GetMany reads all keys from one view
type KVEngine interface {
	// Get retrieves a value by key.
	// Returns ErrKeyNotFound if key doesn't exist.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// GetMany retrieves several keys from one consistent view.
	// Missing keys yield a nil entry at the same index.
	GetMany(ctx context.Context, keys ...[]byte) ([][]byte, error)

	// Apply commits a batch atomically.
	Apply(ctx context.Context, b *Batch) error

	// Close releases the medium.
	Close() error
}

// OpKind is the kind of a batch operation.
type OpKind uint8

const (
	OpSet OpKind = iota + 1
	OpDelete
)

// Op is one mutation of a Batch.
type Op struct {
	Kind  OpKind
	Key   []byte
	Value []byte
}

// Batch groups mutations applied atomically by KVEngine.Apply.
type Batch struct {
	Ops []Op
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Set queues a write.
func (b *Batch) Set(key, value []byte) *Batch {
	b.Ops = append(b.Ops, Op{Kind: OpSet, Key: key, Value: value})
	return b
}

// Delete queues a removal. Deleting a missing key is not an error.
func (b *Batch) Delete(key []byte) *Batch {
	b.Ops = append(b.Ops, Op{Kind: OpDelete, Key: key})
	return b
}

// Len returns the number of queued ops.
func (b *Batch) Len() int {
	return len(b.Ops)
}

// KVConfig selects and configures a KV engine.
type KVConfig struct {
	// Engine specifies the KV engine type ("badger", "redis", "memory").
	// Default: "badger"
	Engine string

	// Dir is the badger storage directory.
	Dir string

	Badger BadgerConfig
	Redis  RedisConfig
}

// BadgerConfig contains Badger-specific tuning parameters.
// The session medium holds a handful of small keys, so defaults are
// sized far below badger's own.
type BadgerConfig struct {
	// GCInterval is the interval between value log GC runs.
	// Default: 30m
	GCInterval string

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 1MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 16MB
	ValueLogFileSize int64

	// SyncWrites fsyncs after each commit. A login must survive a crash
	// right after it returns, so this defaults to true.
	SyncWrites bool
}

// RedisConfig addresses a redis server used as session medium.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DefaultKVConfig returns the default KV configuration.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Engine: "badger",
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
		Redis:  RedisConfig{Addr: "localhost:6379"},
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       "30m",
		GCThreshold:      0.5,
		CacheSize:        1 << 20,  // 1MB
		ValueLogFileSize: 16 << 20, // 16MB
		SyncWrites:       true,
	}
}
