package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/foxseedlab/bateponto/internal/repository"
)

// FileStore keeps every user record in one JSON document of the form
// {"users": {"<id>": {...}}}. Every call reads the document from disk and
// every save rewrites it through a temp file and rename, so a crash leaves
// either the old or the new document. Key order in the document is the
// insertion order used for ranking ties.
type FileStore struct {
	path string
	mu   sync.Mutex
}

type fileDocument struct {
	order []string
	users map[string]*userRecordJSON
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s := &FileStore{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := s.write(&fileDocument{users: map[string]*userRecordJSON{}}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat data file: %w", err)
	}
	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) LoadUserRecord(ctx context.Context, userID string) (*repository.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	raw, ok := doc.users[userID]
	if !ok {
		return nil, nil
	}
	return decodeUserRecord(raw), nil
}

func (s *FileStore) SaveUserRecord(ctx context.Context, userID string, record *repository.UserRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc.users[userID]; !ok {
		doc.order = append(doc.order, userID)
	}
	doc.users[userID] = encodeUserRecord(record)
	return s.write(doc)
}

func (s *FileStore) ListUserRecords(ctx context.Context) ([]repository.UserRecordEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make([]repository.UserRecordEntry, 0, len(doc.order))
	for _, id := range doc.order {
		out = append(out, repository.UserRecordEntry{UserID: id, Record: decodeUserRecord(doc.users[id])})
	}
	return out, nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() (*fileDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &fileDocument{users: map[string]*userRecordJSON{}}, nil
		}
		return nil, fmt.Errorf("read data file: %w", err)
	}
	doc, err := decodeFileDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parse data file %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *FileStore) write(doc *fileDocument) error {
	data, err := encodeFileDocument(doc)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp data file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp data file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp data file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp data file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

// decodeFileDocument walks the tokens by hand because a Go map would lose
// the key order of "users".
func decodeFileDocument(data []byte) (*fileDocument, error) {
	doc := &fileDocument{users: map[string]*userRecordJSON{}}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	for dec.More() {
		key, err := nextKey(dec)
		if err != nil {
			return nil, err
		}
		if key != "users" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
			continue
		}
		if err := expectDelim(dec, '{'); err != nil {
			return nil, fmt.Errorf("users: %w", err)
		}
		for dec.More() {
			userID, err := nextKey(dec)
			if err != nil {
				return nil, err
			}
			var rec userRecordJSON
			if err := dec.Decode(&rec); err != nil {
				return nil, fmt.Errorf("user %s: %w", userID, err)
			}
			if _, dup := doc.users[userID]; !dup {
				doc.order = append(doc.order, userID)
			}
			doc.users[userID] = &rec
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after document")
	}
	return doc, nil
}

func encodeFileDocument(doc *fileDocument) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"users":{`)
	for i, id := range doc.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, fmt.Errorf("encode user id: %w", err)
		}
		val, err := json.Marshal(doc.users[id])
		if err != nil {
			return nil, fmt.Errorf("encode user %s: %w", id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString(`}}`)

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("indent data file: %w", err)
	}
	return out.Bytes(), nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func nextKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}
