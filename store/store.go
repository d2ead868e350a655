// Package store caches built calendar tables in BadgerDB so restarts and
// repeated requests for the same range skip the build.
//
// Values are CBOR encoded tables compressed with zstd. Entries expire
// after a TTL.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"

	"github.com/subtlepseudonym/lukashian"
	"github.com/subtlepseudonym/lukashian/transport"
)

// DefaultTTL is how long cached tables are kept
const DefaultTTL = 10 * 24 * time.Hour

// ErrNotFound is returned by Get when no tables are stored for a range
var ErrNotFound = lukashian.ErrCacheMiss

type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path     string
	InMemory bool

	// TTL defaults to DefaultTTL
	TTL time.Duration

	// GCInterval is how often the value log is garbage collected. Zero
	// disables collection.
	GCInterval time.Duration

	// Logger receives badger's own log lines. Nil discards them.
	Logger *slog.Logger
}

// Store is a table cache. It implements lukashian.Cache.
type Store struct {
	db  *badger.DB
	ttl time.Duration

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	logger *slog.Logger
	stop   chan struct{}
	done   chan struct{}
}

var _ lukashian.Cache = (*Store)(nil)

// badgerLogger adapts slog.Logger to badger's Logger interface
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithNumVersionsToKeep(1)

	logger := cfg.Logger
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
		logger = slog.Default()
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &Store{
		db:      db,
		ttl:     ttl,
		encoder: encoder,
		decoder: decoder,
		logger:  logger,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		go s.collect(cfg.GCInterval)
	} else {
		close(s.done)
	}
	return s, nil
}

// OpenInMemory opens a store that keeps nothing on disk
func OpenInMemory() (*Store, error) {
	return Open(Config{InMemory: true})
}

func key(r lukashian.Range) []byte {
	return fmt.Appendf(nil, "tables/%d/%d/%d/%d", r.MinYear, r.MaxYear, r.MinDay, r.MaxDay)
}

// Get returns the tables stored for r, or ErrNotFound
func (s *Store) Get(ctx context.Context, r lukashian.Range) (*lukashian.Tables, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var compressed []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(r))
		if err != nil {
			return err
		}
		compressed, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read tables %s: %w", r, err)
	}

	data, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	t, err := transport.UnmarshalCBOR(data)
	if err != nil {
		return nil, fmt.Errorf("decode tables %s: %w", r, err)
	}
	if t.Range() != r {
		return nil, fmt.Errorf("stored tables cover %s, not %s: %w", t.Range(), r, transport.ErrMalformed)
	}
	return t, nil
}

// Put stores tables under their range until the TTL passes
func (s *Store) Put(ctx context.Context, t *lukashian.Tables) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := transport.MarshalCBOR(t)
	if err != nil {
		return fmt.Errorf("encode tables: %w", err)
	}
	compressed := s.encoder.EncodeAll(data, nil)

	entry := badger.NewEntry(key(t.Range()), compressed).WithTTL(s.ttl)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("write tables %s: %w", t.Range(), err)
	}
	return nil
}

// Delete removes the tables stored for r, if any
func (s *Store) Delete(ctx context.Context, r lukashian.Range) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(r))
	})
}

func (s *Store) collect(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			err := s.db.RunValueLogGC(0.5)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				s.logger.Warn("badger value log GC", "error", err)
			}
		}
	}
}

// Close stops garbage collection and closes the database
func (s *Store) Close() error {
	close(s.stop)
	<-s.done
	s.encoder.Close()
	s.decoder.Close()
	return s.db.Close()
}
