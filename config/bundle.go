package config

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

const BundleKey = "config.json"

// OpenBucket opens the bundle bucket by URL (file:///path, mem://, ...).
func OpenBucket(ctx context.Context, url string) (*blob.Bucket, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("opening bucket %q: %w", url, errors.WithStack(err))
	}
	return bucket, nil
}

// WriteBundle stores the document as the build-time config object.
func WriteBundle(ctx context.Context, bucket *blob.Bucket, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling bundle: %w", errors.WithStack(err))
	}
	opts := &blob.WriterOptions{ContentType: "application/json"}
	if err := bucket.WriteAll(ctx, BundleKey, data, opts); err != nil {
		return fmt.Errorf("writing bundle: %w", errors.WithStack(err))
	}
	return nil
}

// ReadBundle loads the build-time config object. A missing object is an
// error the caller falls through on.
func ReadBundle(ctx context.Context, bucket *blob.Bucket) (Document, error) {
	var doc Document
	data, err := bucket.ReadAll(ctx, BundleKey)
	if err != nil {
		return doc, fmt.Errorf("reading bundle: %w", errors.WithStack(err))
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parsing bundle: %w", errors.WithStack(err))
	}
	return doc, nil
}
