// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stapislaw/wide-db/table"
)

var scanFamilies []string

var scanCmd = &cobra.Command{
	Use:   "scan <dir> <table>",
	Short: "Open every segment under dir/table/<family> and print the merged, MVCC-filtered cell stream",
	Long:  "Open every segment under dir/table/<family> and print the merged, MVCC-filtered cell stream.\nWith --s3-bucket, <dir> is ignored and segments are read from S3 instead.",
	Args:  cobra.ExactArgs(2),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringSliceVar(&scanFamilies, "family", nil, "column families to open (repeatable); required")
	addLayerFlags(scanCmd)
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	dir, tableName := args[0], args[1]
	if len(scanFamilies) == 0 {
		return fmt.Errorf("at least one --family is required")
	}

	layer, err := openLayer(dir)
	if err != nil {
		return err
	}
	tb := table.New([]byte(tableName), layer)
	ctx := context.Background()

	for _, fam := range scanFamilies {
		if err := tb.CreateFamily([]byte(fam)); err != nil {
			return fmt.Errorf("create family %q: %w", fam, err)
		}
		names, err := layer.SegmentNames(ctx, []byte(tableName), []byte(fam))
		if err != nil {
			return fmt.Errorf("list segments for family %q: %w", fam, err)
		}
		for _, name := range names {
			if err := tb.OpenSegment(ctx, []byte(fam), name); err != nil {
				return fmt.Errorf("open segment %q/%q: %w", fam, name, err)
			}
		}
	}

	it, err := tb.Scan(ctx, nil, nil)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	defer it.Close()

	for {
		c, ok, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		fmt.Printf("%s/%s:%s@%d#%d = %q\n", c.Row, c.Family, c.Qualifier, c.Timestamp, c.WriteNum, c.Value)
	}
	return nil
}
