// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Command wdb is a small operational CLI over a segment directory on local
// disk or in S3: stat prints each segment's size and write-number range, and
// scan runs the full merge/MVCC/delete-tracking pipeline the core implements.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stapislaw/wide-db/internal/base"
)

var rootCmd = &cobra.Command{
	Use:   "wdb",
	Short: "Inspect and scan a wide-db segment directory",
}

var logger = base.DefaultLogger

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
