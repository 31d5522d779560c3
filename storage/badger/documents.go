package badger

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/storage"
)

// DocumentStore implements storage.DocumentStore for BadgerDB.
type DocumentStore struct {
	backend *Backend
}

var _ storage.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore creates a DocumentStore over an open backend.
func NewDocumentStore(backend *Backend) *DocumentStore {
	return &DocumentStore{backend: backend}
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	slashSpacing  = regexp.MustCompile(`\s*/\s*`)
)

// canonicalRole normalizes a role label for index lookup: lower-cased,
// whitespace collapsed, and spacing around slashes removed so "a/b",
// "a / b", "a/ b" and "a /b" all map to the same key.
func canonicalRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	role = whitespaceRun.ReplaceAllString(role, " ")
	role = slashSpacing.ReplaceAllString(role, "/")
	return role
}

// PutDocuments stores document snapshots, replacing prior versions and
// keeping the role index in step.
func (s *DocumentStore) PutDocuments(ctx context.Context, docs ...*core.Document) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			if err := core.ValidateDocument(doc); err != nil {
				return err
			}
			id := core.CanonicalID(doc.ID)

			// Drop the old role index entry when the role changed.
			old, err := readDocument(tx, id)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			if old != nil && canonicalRole(old.PrimaryRole) != canonicalRole(doc.PrimaryRole) {
				if err := tx.Delete(makeDocumentRoleKey(canonicalRole(old.PrimaryRole), id)); err != nil {
					return err
				}
			}

			stored := *doc
			stored.ID = id
			if err := tx.Set(makeDocumentKey(id), storage.MarshalDocument(&stored)); err != nil {
				return err
			}
			if stored.PrimaryRole != "" {
				roleKey := makeDocumentRoleKey(canonicalRole(stored.PrimaryRole), id)
				if err := tx.Set(roleKey, []byte(id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocument fetches one document by id.
func (s *DocumentStore) GetDocument(ctx context.Context, id string) (*core.Document, error) {
	var doc *core.Document
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = readDocument(tx, core.CanonicalID(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocuments fetches documents by id, skipping absent ids.
func (s *DocumentStore) GetDocuments(ctx context.Context, ids ...string) ([]*core.Document, error) {
	docs := make([]*core.Document, 0, len(ids))
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := readDocument(tx, core.CanonicalID(id))
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// IDsByRoles returns the ids of documents whose primary role matches any
// of the given labels under slash-spacing-insensitive comparison. The
// result is deduplicated and sorted.
func (s *DocumentStore) IDsByRoles(ctx context.Context, roles []string) ([]string, error) {
	seen := make(map[string]struct{})
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, role := range roles {
			canon := canonicalRole(role)
			if canon == "" {
				continue
			}
			opts := badger.DefaultIteratorOptions
			opts.Prefix = makeDocumentRoleScanPrefix(canon)
			iter := tx.NewIterator(opts)
			for iter.Rewind(); iter.Valid(); iter.Next() {
				id, err := iter.Item().ValueCopy(nil)
				if err != nil {
					iter.Close()
					return err
				}
				seen[string(id)] = struct{}{}
			}
			iter.Close()
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func readDocument(tx *badger.Txn, id string) (*core.Document, error) {
	item, err := tx.Get(makeDocumentKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var doc *core.Document
	err = item.Value(func(val []byte) error {
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
