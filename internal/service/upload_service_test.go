package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"showcase/internal/blobstore"
	"showcase/internal/models"
	"showcase/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func file(name, body string) UploadFile {
	return UploadFile{
		Name: name,
		Size: int64(len(body)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil },
	}
}

func TestUploadSingle(t *testing.T) {
	store := testutil.NewBlobStore()
	svc := NewUploadService(store, 1<<20)

	obj, err := svc.UploadSingle(context.Background(), file("Photo.JPG", "data"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.URL, testutil.BlobBaseURL+"/"))
	assert.Equal(t, obj.PublicID, blobstore.PublicIDFromURL(obj.URL))
	assert.Equal(t, 1, store.Len())

	_, err = svc.UploadSingle(context.Background(), file("anim.gif", "data"))
	assertCode(t, err, models.CodeValidation)

	big := file("big.png", "x")
	big.Size = 2 << 20
	_, err = svc.UploadSingle(context.Background(), big)
	assertCode(t, err, models.CodeValidation)
}

func TestUploadMultiple_ChecksAllFirst(t *testing.T) {
	store := testutil.NewBlobStore()
	svc := NewUploadService(store, 1<<20)

	_, err := svc.UploadMultiple(context.Background(), []UploadFile{file("a.png", "a"), file("b.bmp", "b")})
	assertCode(t, err, models.CodeValidation)
	assert.Zero(t, store.Len())

	_, err = svc.UploadMultiple(context.Background(), nil)
	assertCode(t, err, models.CodeValidation)

	many := make([]UploadFile, MaxUploadFiles+1)
	for i := range many {
		many[i] = file("x.jpg", "x")
	}
	_, err = svc.UploadMultiple(context.Background(), many)
	assertCode(t, err, models.CodeValidation)

	objs, err := svc.UploadMultiple(context.Background(), []UploadFile{file("a.png", "a"), file("b.jpeg", "b")})
	require.NoError(t, err)
	assert.Len(t, objs, 2)
	assert.Equal(t, 2, store.Len())
}

func TestUpload_StoreFailureIsExternal(t *testing.T) {
	svc := NewUploadService(blobstore.Disabled{}, 0)
	_, err := svc.UploadSingle(context.Background(), file("a.png", "a"))
	assertCode(t, err, models.CodeExternal)
	assert.True(t, errors.Is(err, blobstore.ErrNotConfigured))
}
