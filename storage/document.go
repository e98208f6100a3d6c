// Package storage keeps ontology documents in a NATS KV bucket, so that
// imports can be served from a shared store instead of their published
// location.
package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/semonto/format"
)

// BucketDocuments is the default bucket name.
const BucketDocuments = "SEMONTO_DOCUMENTS"

// Document is a stored ontology document.
type Document struct {
	IRI         string      `json:"iri"`
	Format      format.Kind `json:"format"`
	ContentType string      `json:"content_type,omitempty"`
	Content     []byte      `json:"content"`
	UpdatedAt   time.Time   `json:"updated_at"`

	// Revision is the KV revision the document was read at.
	Revision uint64 `json:"-"`
}

// KeyValue is the subset of jetstream.KeyValue the store uses.
type KeyValue interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
	Keys(ctx context.Context, opts ...jetstream.WatchOpt) ([]string, error)
}

// Store provides document storage operations backed by NATS KV.
type Store struct {
	kv  KeyValue
	now func() time.Time
}

// NewStore opens the bucket with the given JetStream context, creating it
// if it does not exist.
func NewStore(ctx context.Context, js jetstream.JetStream, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = BucketDocuments
	}
	kv, err := getOrCreateBucket(ctx, js, bucket)
	if err != nil {
		return nil, fmt.Errorf("open documents bucket: %w", err)
	}
	return NewStoreFromKV(kv), nil
}

// NewStoreFromKV wraps an already opened bucket.
func NewStoreFromKV(kv KeyValue) *Store {
	return &Store{kv: kv, now: time.Now}
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "Semonto ontology documents",
		History:     5,
	})
}

// Key maps a document IRI to a KV key. IRIs contain characters KV keys do
// not allow, so the key is the unpadded URL-safe base64 of the IRI.
func Key(iri string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(iri))
}

// Put stores a document under its IRI and returns the new revision.
func (s *Store) Put(ctx context.Context, doc *Document) (uint64, error) {
	if doc.IRI == "" {
		return 0, errors.New("document IRI is required")
	}
	doc.UpdatedAt = s.now()

	data, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("marshal document: %w", err)
	}

	rev, err := s.kv.Put(ctx, Key(doc.IRI), data)
	if err != nil {
		return 0, fmt.Errorf("store document: %w", err)
	}
	doc.Revision = rev
	return rev, nil
}

// Get retrieves the document stored under iri.
func (s *Store) Get(ctx context.Context, iri string) (*Document, error) {
	entry, err := s.kv.Get(ctx, Key(iri))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(entry.Value(), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	doc.Revision = entry.Revision()
	return &doc, nil
}

// Delete removes the document stored under iri.
func (s *Store) Delete(ctx context.Context, iri string) error {
	if err := s.kv.Delete(ctx, Key(iri)); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// List returns the IRIs of every stored document, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list document keys: %w", err)
	}

	iris := make([]string, 0, len(keys))
	for _, key := range keys {
		raw, err := base64.RawURLEncoding.DecodeString(key)
		if err != nil {
			continue // not written by this store
		}
		iris = append(iris, string(raw))
	}
	sort.Strings(iris)
	return iris, nil
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	return errors.Is(err, jetstream.ErrKeyNotFound) ||
		errors.Is(err, jetstream.ErrKeyDeleted) ||
		(err != nil && strings.Contains(err.Error(), "key not found"))
}
