package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage keeps a local ledger of replies that were already forwarded.

// Store tracks forwarded reply IDs so a reply returned again after a failed
// confirm is not published twice. It also records which forwarded replies
// the service acknowledged.
type Store interface {
	Close() error
	SeenReply(id string) (bool, error)
	MarkReply(id string) error
	MarkConfirmed(ids []string) error
	Unconfirmed() ([]string, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	ReplyTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultReplyTTL        = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ReplyTTL <= 0 {
		opts.ReplyTTL = defaultReplyTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                   { return nil }
func (noopStore) SeenReply(string) (bool, error) { return false, nil }
func (noopStore) MarkReply(string) error         { return nil }
func (noopStore) MarkConfirmed([]string) error   { return nil }
func (noopStore) Unconfirmed() ([]string, error) { return nil, nil }
