package usecase

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pgporter/pgporter/internal/domain"
)

type testLogger struct{}

func (testLogger) Infof(template string, args ...interface{})  {}
func (testLogger) Errorf(template string, args ...interface{}) {}
func (testLogger) Warnf(template string, args ...interface{})  {}

// fakeDB records every call in order on a shared ledger so tests can
// assert strict operation ordering across connections.
type fakeDB struct {
	name      string
	ledger    *[]string
	fetchRows []domain.Row
	fetchErr  error
	copied    string
}

func (f *fakeDB) record(format string, args ...interface{}) {
	*f.ledger = append(*f.ledger, f.name+":"+fmt.Sprintf(format, args...))
}

func (f *fakeDB) Run(ctx context.Context, sql string, args ...any) error {
	f.record("run:%s", sql)
	return nil
}

func (f *fakeDB) Fetch(ctx context.Context, sql string, args ...any) ([]domain.Row, error) {
	f.record("fetch:%s", sql)
	return f.fetchRows, f.fetchErr
}

func (f *fakeDB) BulkInsert(ctx context.Context, table string, columns []string, rows []domain.Row) (int64, error) {
	f.record("insert:%s:%d", table, len(rows))
	return int64(len(rows)), nil
}

func (f *fakeDB) CopyOut(ctx context.Context, w io.Writer, query string) (int64, error) {
	f.record("copyout:%s", query)
	if _, err := io.WriteString(w, f.copied); err != nil {
		return 0, err
	}
	return int64(strings.Count(f.copied, "\n")), nil
}

func (f *fakeDB) CopyIn(ctx context.Context, r io.Reader, table string, columns []string) (int64, error) {
	var rows int64
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if scanner.Text() != "" {
			rows++
		}
	}
	f.record("copyin:%s:%d", table, rows)
	return rows, scanner.Err()
}

func (f *fakeDB) Close(ctx context.Context) error {
	f.record("close")
	return nil
}

type fakeFactory struct {
	conns map[string]*fakeDB
	err   error
}

func (f *fakeFactory) Resolve(ctx context.Context, secretName string, ov domain.ConnectionOverrides) (domain.Database, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.conns[secretName], nil
}

// fakeStore keeps uploaded objects in memory, keyed by remote key.
type fakeStore struct {
	objects   map[string]string
	downloads map[string]string
	uploads   []string
	listed    []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]string{}, downloads: map[string]string{}}
}

func (f *fakeStore) Upload(ctx context.Context, localPath, key string, opts domain.UploadOptions) error {
	if _, ok := f.objects[key]; ok && !opts.Replace {
		return fmt.Errorf("%w: %s", domain.ErrKeyExists, key)
	}
	content, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	f.objects[key] = string(content)
	f.uploads = append(f.uploads, key)
	return nil
}

func (f *fakeStore) Download(ctx context.Context, key string) (string, error) {
	content, ok := f.downloads[key]
	if !ok {
		return "", fmt.Errorf("no such key: %s", key)
	}
	tmp, err := os.CreateTemp("", "fake_store_*")
	if err != nil {
		return "", err
	}
	defer tmp.Close()
	if _, err := tmp.WriteString(content); err != nil {
		return "", err
	}
	return tmp.Name(), nil
}

func (f *fakeStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	f.listed = append(f.listed, prefix)
	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) OldKeys(ctx context.Context, prefix string, cutoff time.Time) ([]string, error) {
	return nil, nil
}

type fakeResolver struct {
	secret *domain.Secret
	err    error
}

func (f *fakeResolver) ResolveSecret(ctx context.Context, name string) (*domain.Secret, error) {
	return f.secret, f.err
}

type fakeDumper struct {
	content string
	err     error
}

func (f *fakeDumper) Dump(ctx context.Context, secret *domain.Secret, dbName, extraParams, outputPath string) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outputPath, []byte(f.content), 0600)
}

type fakeHasher struct{}

func (fakeHasher) Sum(path string) (string, error) {
	return "d41d8cd98f00b204e9800998ecf8427e", nil
}

func (f fakeHasher) WriteDigest(path string) (string, error) {
	digestPath := path + ".md5"
	sum, _ := f.Sum(path)
	return digestPath, os.WriteFile(digestPath, []byte(sum), 0600)
}

type fakeCompressor struct{}

func (fakeCompressor) Compress(sourcePath, destPath string) error {
	content, err := os.ReadFile(sourcePath)
	if err != nil {
		return err
	}
	return os.WriteFile(destPath, append([]byte("gzip:"), content...), 0600)
}

func (fakeCompressor) Decompress(sourcePath, destPath string) error {
	content, err := os.ReadFile(sourcePath)
	if err != nil {
		return err
	}
	return os.WriteFile(destPath, []byte(strings.TrimPrefix(string(content), "gzip:")), 0600)
}

type fakeEncryptor struct {
	err error
}

func (f *fakeEncryptor) Encrypt(ctx context.Context, sourcePath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	encryptedPath := sourcePath + ".encrypted"
	content, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", err
	}
	return encryptedPath, os.WriteFile(encryptedPath, append([]byte("enc:"), content...), 0600)
}
