package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRemote(t *testing.T) {
	ctx := context.Background()
	remote, err := NewLocalRemote(filepath.Join(t.TempDir(), "remote"))
	require.NoError(t, err)

	names, err := remote.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	local := t.TempDir()
	for _, name := range []string{"keepsake-20261001080000.json", "keepsake-20261019080000.json.sz", "notes.txt"} {
		path := filepath.Join(local, name)
		require.NoError(t, os.WriteFile(path, []byte(name), 0o600))
		pushed, err := Push(ctx, remote, path)
		require.NoError(t, err)
		assert.Equal(t, name, pushed)
	}

	names, err = remote.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"keepsake-20261001080000.json", "keepsake-20261019080000.json.sz", "notes.txt"}, names)

	out := t.TempDir()
	path, err := Pull(ctx, remote, "", out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "keepsake-20261019080000.json.sz"), path)

	path, err = Pull(ctx, remote, "keepsake-20261001080000.json", out)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keepsake-20261001080000.json", string(data))

	_, err = Pull(ctx, remote, "missing.json", out)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestPullEmptyRemote(t *testing.T) {
	remote, err := NewLocalRemote(t.TempDir())
	require.NoError(t, err)
	_, err = Pull(context.Background(), remote, "", t.TempDir())
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalRemoteCanceled(t *testing.T) {
	remote, err := NewLocalRemote(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, remote.Upload(ctx, "x", "y"), context.Canceled)
}

func TestS3RemoteKeys(t *testing.T) {
	tests := []struct {
		prefix, object, want string
	}{
		{"", "keepsake-1.json", "keepsake-1.json"},
		{"backups", "keepsake-1.json", "backups/keepsake-1.json"},
		{"backups/", "keepsake-1.json", "backups/keepsake-1.json"},
		{"backups", "", "backups/"},
		{"", "", ""},
	}
	for _, tt := range tests {
		r := NewS3RemoteWithClient(s3.New(s3.Options{}), S3Config{Bucket: "b", Prefix: tt.prefix})
		assert.Equal(t, tt.want, r.key(tt.object), "prefix=%q object=%q", tt.prefix, tt.object)
	}

	assert.Equal(t, "application/json", contentType("keepsake-1.json"))
	assert.Equal(t, "application/x-snappy-framed", contentType("keepsake-1.json.sz"))
}

func TestNewS3RemoteRequiresBucket(t *testing.T) {
	_, err := NewS3Remote(context.Background(), S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}
