// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stapislaw/wide-db/persistence"
	"github.com/stapislaw/wide-db/persistence/local"
	"github.com/stapislaw/wide-db/persistence/s3"
)

// s3Bucket, s3Region, and s3BasePath back the --s3-bucket/--s3-region/
// --s3-base-path flags shared by scan and stat: when --s3-bucket is set, the
// <dir> positional argument is ignored and segments are read from S3 instead
// of local disk.
var (
	s3Bucket   string
	s3Region   string
	s3BasePath string
)

func addLayerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s3Bucket, "s3-bucket", "", "read segments from this S3 bucket instead of the local <dir>")
	cmd.Flags().StringVar(&s3Region, "s3-region", "", "AWS region for --s3-bucket (default us-east-1)")
	cmd.Flags().StringVar(&s3BasePath, "s3-base-path", "", "key prefix within --s3-bucket")
}

// openLayer resolves the persistence.Layer a command should use: S3-backed
// when --s3-bucket is given, local-disk otherwise.
func openLayer(dir string) (persistence.Layer, error) {
	if s3Bucket == "" {
		return local.New(dir), nil
	}
	layer, err := s3.New(s3.Options{Bucket: s3Bucket, Region: s3Region, BasePath: s3BasePath})
	if err != nil {
		return nil, fmt.Errorf("open s3 layer: %w", err)
	}
	return layer, nil
}
