package storage_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"code.cloudfoundry.org/lager/lagertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamscao/lotcert/internal/storage"
	"github.com/adamscao/lotcert/internal/storage/s3test"
)

func newStore(t *testing.T) (*storage.BlobStore, *s3test.Server) {
	srv := s3test.NewServer("certs")
	t.Cleanup(srv.Close)
	store := storage.NewBlobStore(srv.Client(), srv.Bucket, "certificates/", lagertest.NewTestLogger("blob"))
	return store, srv
}

func TestKeyFor(t *testing.T) {
	store, _ := newStore(t)
	assert.Equal(t, "certificates/abc.pdf", store.KeyFor("abc"))
}

func TestPutAndGet(t *testing.T) {
	store, srv := newStore(t)
	ctx := context.Background()

	body := []byte("%PDF-1.3 fake")
	require.NoError(t, store.Put(ctx, "certificates/abc.pdf", body))

	stored, ok := srv.Object("certificates/abc.pdf")
	require.True(t, ok)
	assert.Equal(t, body, stored)
	assert.Equal(t, "application/pdf", srv.ContentType("certificates/abc.pdf"))

	got, err := store.Get(ctx, "certificates/abc.pdf")
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestGetMissing(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.Get(context.Background(), "certificates/missing.pdf")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestSignedURL(t *testing.T) {
	store, srv := newStore(t)

	raw, err := store.SignedURL("certificates/abc.pdf", "certificate-A1B2C3D4.pdf", 120*time.Second)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, "/"+srv.Bucket+"/certificates/abc.pdf", u.Path)
	assert.Equal(t, "120", q.Get("X-Amz-Expires"))
	assert.Equal(t, `attachment; filename="certificate-A1B2C3D4.pdf"`, q.Get("response-content-disposition"))
	assert.Equal(t, "no-store", q.Get("response-cache-control"))
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))
}

func TestListAndDelete(t *testing.T) {
	store, srv := newStore(t)
	ctx := context.Background()

	srv.PutObject("certificates/a.pdf", []byte("a"))
	srv.PutObject("certificates/b.pdf", []byte("b"))
	srv.PutObject("other/c.pdf", []byte("c"))

	objects, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "certificates/a.pdf", objects[0].Key)
	assert.Equal(t, "certificates/b.pdf", objects[1].Key)
	assert.Equal(t, int64(1), objects[1].Size)
	assert.WithinDuration(t, time.Now(), objects[0].LastModified, time.Minute)

	require.NoError(t, store.Delete(ctx, "certificates/a.pdf"))
	_, ok := srv.Object("certificates/a.pdf")
	assert.False(t, ok)
}
