// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns a string of the form "prefix-N" where N is a
// monotonically increasing integer. Use this instead of time.Now()
// when tests need unique identifiers for request bodies, paths, or
// other values that must be distinguishable in shared state.
//
//	body := testutil.UniqueID("payload")  // "payload-1", "payload-2", ...
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}

// UniquePort returns a virtual port number unique within the test
// process, starting above the well-known range. Virtual ports are
// plain map keys (no OS resource is bound), so uniqueness is all that
// matters.
func UniquePort() int {
	return 10000 + int(uniqueCounter.Add(1))
}
