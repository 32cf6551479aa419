// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"fmt"
	"os"
)

// Logger defines the logging functions the engine needs. It deliberately
// mirrors pebble's own minimal Logger rather than taking on a structured
// logging dependency: the packages retrieved alongside this engine never
// import one either, so a caller-supplied Logger (stderr by default) stays
// faithful to that precedent instead of inventing a new ambient dependency.
type Logger interface {
	Infof(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// DefaultLogger writes to os.Stderr and treats Fatalf as a process abort,
// matching the teacher's treatment of invariant violations as fatal.
var DefaultLogger Logger = stderrLogger{}

type stderrLogger struct{}

func (stderrLogger) Infof(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func (stderrLogger) Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
