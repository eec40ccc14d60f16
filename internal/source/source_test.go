package source

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patomic/internal/errs"
)

const body = "[{:db/id #db/id [:db.part/db]\n  :db/ident :community/name}]\n"

// objectRoundTripper serves path-style GetObject requests from memory.
type objectRoundTripper struct {
	objects map[string]string
	paths   []string
}

func (m *objectRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.paths = append(m.paths, req.URL.Path)
	obj, ok := m.objects[strings.TrimPrefix(req.URL.Path, "/")]
	if req.Method != http.MethodGet || !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader(`<?xml version="1.0"?><Error><Code>NoSuchKey</Code></Error>`)),
			Header:     http.Header{"Content-Type": {"application/xml"}},
		}, nil
	}
	return &http.Response{
		StatusCode:    http.StatusOK,
		Body:          io.NopCloser(strings.NewReader(obj)),
		ContentLength: int64(len(obj)),
		Header:        http.Header{"Content-Type": {"application/edn"}},
	}, nil
}

func newMockClient(t *testing.T, rt http.RoundTripper) *s3.Client {
	t.Helper()
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	require.NoError(t, err)
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://mock.s3.local")
	})
}

func TestParseS3(t *testing.T) {
	bucket, key, err := ParseS3("s3://schemas/seattle/schema.edn")
	require.NoError(t, err)
	assert.Equal(t, "schemas", bucket)
	assert.Equal(t, "seattle/schema.edn", key)

	for _, bad := range []string{"s3://", "s3://bucket", "s3://bucket/", "s3:///key.edn", "file.edn"} {
		_, _, err := ParseS3(bad)
		assert.True(t, errs.Is(err, errs.ErrResource), bad)
	}
}

func TestIsS3(t *testing.T) {
	assert.True(t, IsS3("s3://b/k.edn"))
	assert.False(t, IsS3("./k.edn"))
	assert.False(t, IsS3("S3://b/k.edn"))
}

func TestOpenLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.edn")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	txn, err := Open(context.Background(), S3Config{}, path)
	require.NoError(t, err)
	assert.True(t, txn.Loaded())
	assert.Equal(t, path, txn.Source())
	assert.Equal(t, body, txn.String())
}

func TestOpenLocalFileErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(context.Background(), S3Config{}, filepath.Join(dir, "missing.edn"))
	assert.True(t, errs.Is(err, errs.ErrResource))

	_, err = Open(context.Background(), S3Config{}, filepath.Join(dir, "schema.txt"))
	assert.Contains(t, err.Error(), "does not have the extension .edn")
}

func TestOpenS3Object(t *testing.T) {
	rt := &objectRoundTripper{objects: map[string]string{"schemas/seattle/schema.edn": body}}
	o := NewOpener(S3Config{}, WithS3Client(newMockClient(t, rt)))

	txn, err := o.Open(context.Background(), "s3://schemas/seattle/schema.edn")
	require.NoError(t, err)
	assert.True(t, txn.Loaded())
	assert.Equal(t, "seattle/schema.edn", txn.Source())
	assert.Equal(t, body, txn.String())
	assert.NoError(t, txn.Validate())
	assert.Equal(t, []string{"/schemas/seattle/schema.edn"}, rt.paths)
}

func TestOpenS3MissingObject(t *testing.T) {
	rt := &objectRoundTripper{objects: map[string]string{}}
	o := NewOpener(S3Config{}, WithS3Client(newMockClient(t, rt)))

	_, err := o.Open(context.Background(), "s3://schemas/missing.edn")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrResource))
	assert.Contains(t, err.Error(), "source.Open s3://schemas/missing.edn")
}

func TestOpenS3WrongExtension(t *testing.T) {
	rt := &objectRoundTripper{objects: map[string]string{"schemas/schema.json": "{}"}}
	o := NewOpener(S3Config{}, WithS3Client(newMockClient(t, rt)))

	_, err := o.Open(context.Background(), "s3://schemas/schema.json")
	assert.Contains(t, err.Error(), "schema.json does not have the extension .edn")
}
