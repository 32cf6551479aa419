// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stapislaw/wide-db/internal/sstable"
)

var statCmd = &cobra.Command{
	Use:   "stat <dir> <table> <family>",
	Short: "Print each segment's size and MVCC write-number range",
	Long:  "Print each segment's size and MVCC write-number range.\nWith --s3-bucket, <dir> is ignored and segments are read from S3 instead.",
	Args:  cobra.ExactArgs(3),
	RunE:  runStat,
}

func init() {
	addLayerFlags(statCmd)
	rootCmd.AddCommand(statCmd)
}

func runStat(cmd *cobra.Command, args []string) error {
	dir, tableName, family := args[0], args[1], args[2]
	ctx := context.Background()

	layer, err := openLayer(dir)
	if err != nil {
		return err
	}
	names, err := layer.SegmentNames(ctx, []byte(tableName), []byte(family))
	if err != nil {
		return fmt.Errorf("list segments: %w", err)
	}
	if len(names) == 0 {
		fmt.Println("no segments")
		return nil
	}

	for _, name := range names {
		size, err := layer.SegmentSize(ctx, []byte(tableName), []byte(family), name)
		if err != nil {
			logger.Infof("stat %q: %v", name, err)
			continue
		}
		seg, err := sstable.Open(ctx, layer, []byte(tableName), []byte(family), name)
		if err != nil {
			logger.Infof("open %q: %v", name, err)
			continue
		}
		fmt.Printf("%s\t%d bytes\twrite_num [%d, %d]\n", name, size, seg.MinWriteNum(), seg.MaxWriteNum())
	}
	return nil
}
