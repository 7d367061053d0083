package testutil

import "showcase/internal/blobstore"

// BlobBaseURL is the URL prefix served by NewBlobStore.
const BlobBaseURL = "https://blobs.test/showcase"

// NewBlobStore returns an in-memory blob store for service and handler tests.
func NewBlobStore() *blobstore.MemoryStore {
	return blobstore.NewMemoryStore(BlobBaseURL)
}
