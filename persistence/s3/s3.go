// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package s3 implements persistence.Layer against an S3 bucket, for tables
// whose segments are tiered to cloud storage rather than kept on local
// disk. It is adapted from the teacher's cloud/aws wrapper-FS, which
// wrapped a vfs.FS with S3 upload-on-close/sync behavior; here there is no
// local file to wrap, since the engine core only ever needs read-oriented
// access to already-written segments (§6), so the session and bucket
// plumbing survive but the vfs.File wrapping does not.
package s3

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/stapislaw/wide-db/internal/base"
)

// Layer is a persistence.Layer backed by objects in a single S3 bucket, one
// object per segment, keyed by BasePath/table/family/segment.
type Layer struct {
	client   *s3.S3
	bucket   string
	basePath string
}

// Options configures a Layer.
type Options struct {
	// Bucket is the S3 bucket holding segment objects. Defaults to the
	// WDB_S3_BUCKET environment variable if empty, matching the teacher's
	// convention of sourcing the bucket from the environment.
	Bucket string
	// Region is the AWS region to dial. Defaults to "us-east-1".
	Region string
	// BasePath prefixes every object key, letting one bucket host multiple
	// deployments.
	BasePath string
}

// New returns a Layer dialing S3 per opts.
func New(opts Options) (*Layer, error) {
	bucket := opts.Bucket
	if bucket == "" {
		bucket = os.Getenv("WDB_S3_BUCKET")
	}
	if bucket == "" {
		return nil, base.WrapPersistenceError(fmt.Errorf("no bucket configured"), "widedb/persistence/s3: new layer")
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, base.WrapPersistenceError(err, "widedb/persistence/s3: new session")
	}
	return &Layer{client: s3.New(sess), bucket: bucket, basePath: opts.BasePath}, nil
}

func (l *Layer) key(table, family, segment []byte) string {
	parts := []string{string(table), string(family), string(segment)}
	if l.basePath != "" {
		parts = append([]string{l.basePath}, parts...)
	}
	return strings.Join(parts, "/")
}

// LoadBlock implements persistence.Layer by issuing a ranged GetObject.
func (l *Layer) LoadBlock(ctx context.Context, table, family, segment []byte, offset, length uint64) ([]byte, error) {
	rng := fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)
	out, err := l.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(l.key(table, family, segment)),
		Range:  aws.String(rng),
	})
	if err != nil {
		return nil, base.WrapPersistenceError(err, "widedb/persistence/s3: get object %s", l.key(table, family, segment))
	}
	defer out.Body.Close()

	buf := make([]byte, length)
	if _, err := io.ReadFull(out.Body, buf); err != nil {
		return nil, base.WrapPersistenceError(err, "widedb/persistence/s3: read object body")
	}
	return buf, nil
}

// SegmentSize implements persistence.Layer via HeadObject's content length.
func (l *Layer) SegmentSize(ctx context.Context, table, family, segment []byte) (uint64, error) {
	out, err := l.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(l.key(table, family, segment)),
	})
	if err != nil {
		return 0, base.WrapPersistenceError(err, "widedb/persistence/s3: head object %s", l.key(table, family, segment))
	}
	if out.ContentLength == nil {
		return 0, base.WrapPersistenceError(fmt.Errorf("no content length"), "widedb/persistence/s3: head object %s", l.key(table, family, segment))
	}
	return uint64(*out.ContentLength), nil
}

// SegmentNames implements persistence.Layer by listing every object under
// the (table, family) prefix.
func (l *Layer) SegmentNames(ctx context.Context, table, family []byte) ([][]byte, error) {
	prefix := l.key(table, family, nil)
	prefix = strings.TrimSuffix(prefix, "/")

	var names [][]byte
	err := l.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(l.bucket),
		Prefix: aws.String(prefix + "/"),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.StringValue(obj.Key), prefix+"/")
			names = append(names, []byte(name))
		}
		return true
	})
	if err != nil {
		return nil, base.WrapPersistenceError(err, "widedb/persistence/s3: list objects under %s", prefix)
	}
	return names, nil
}
