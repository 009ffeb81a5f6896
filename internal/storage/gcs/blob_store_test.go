package gcs

import (
	"context"
	"strings"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestNewValidates(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "b"})
	require.ErrorContains(t, err, "client is required")

	client, err := storage.NewClient(context.Background(), option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = New(client, Config{})
	require.ErrorContains(t, err, "bucket is required")

	store, err := New(client, Config{Bucket: "snapshots"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.PutObject(context.Background(), " ", "text/html", strings.NewReader(""))
	require.ErrorContains(t, err, "path is required")
}

func TestOpenRequiresBucket(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{})
	require.Error(t, err)
}

func TestURI(t *testing.T) {
	t.Parallel()

	require.Equal(t, "gs://snapshots/example.com/abc.html", URI("snapshots", "/example.com/abc.html"))
}
