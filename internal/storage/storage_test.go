package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ignite/voucher-console/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	s, err := NewLocalStore(t.TempDir(), "https://cdn.example.com/")
	require.NoError(t, err)
	return s
}

func TestLocalStore_PutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	url, err := s.Put(ctx, "qr/SPRING-1.png", "image/png", []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/qr/SPRING-1.png", url)

	data, err := s.Get(ctx, "qr/SPRING-1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
}

func TestLocalStore_GetMissing(t *testing.T) {
	_, err := newTestStore(t).Get(context.Background(), "qr/none.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_KeysStayInsideRoot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "../../escape.txt", "text/plain", []byte("x"))
	require.NoError(t, err)
	data, err := s.Get(ctx, "escape.txt")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))

	_, err = s.Put(ctx, "/", "text/plain", nil)
	assert.Error(t, err)
}

func TestLocalStore_FileURLWithoutBase(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)
	assert.Contains(t, s.URL("qr/A.png"), "file://")
	assert.Contains(t, s.URL("qr/A.png"), "/qr/A.png")
}

func TestNew_Local(t *testing.T) {
	s, err := New(context.Background(), config.StorageConfig{Type: "local", LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, s)

	_, err = New(context.Background(), config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, _ := io.ReadAll(in.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Store(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	s := NewS3StoreWithClient(fake, S3Options{Bucket: "vouchers", Prefix: "/prod/", Region: "us-west-2"})
	ctx := context.Background()

	url, err := s.Put(ctx, "qr/A.png", "image/png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "https://vouchers.s3.us-west-2.amazonaws.com/prod/qr/A.png", url)
	assert.Equal(t, "image/png", fake.types["prod/qr/A.png"])

	data, err := s.Get(ctx, "qr/A.png")
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	_, err = s.Get(ctx, "qr/missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3Store_PublicURL(t *testing.T) {
	s := NewS3StoreWithClient(&fakeS3{}, S3Options{Bucket: "b", PublicURL: "https://cdn.example.com/"})
	assert.Equal(t, "https://cdn.example.com/qr/A.png", s.URL("qr/A.png"))
}
