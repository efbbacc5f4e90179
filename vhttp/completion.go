// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package vhttp

import (
	"errors"
	"sync"
)

var (
	// ErrAlreadySettled is returned by Completion.Settle after the
	// first settlement. A settled completion is immutable.
	ErrAlreadySettled = errors.New("vhttp: completion already settled")

	// ErrNotSettled is returned by Completion.Value before
	// settlement.
	ErrNotSettled = errors.New("vhttp: completion not settled")
)

// ResponseData is the finished response as a single structured value,
// delivered through a Completion when ServerResponse.End runs.
type ResponseData struct {
	StatusCode    int
	StatusMessage string

	// Header is the case-normalized (lower-cased keys) snapshot taken
	// at settlement.
	Header map[string]string

	// Body is the concatenated accumulated body.
	Body []byte
}

// Completion is an explicit single-assignment completion value:
// settled at most once, readable many times. It replaces the stored
// callback field of the historical design, so that "settled twice" and
// "read before settled" are detectable errors instead of silent
// no-ops.
type Completion struct {
	mu      sync.Mutex
	settled bool
	value   ResponseData
	done    chan struct{}
}

// NewCompletion returns an unsettled Completion.
func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Settle assigns the final value. The second and later calls fail with
// ErrAlreadySettled and leave the first value in place.
func (c *Completion) Settle(value ResponseData) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settled {
		return ErrAlreadySettled
	}
	c.settled = true
	c.value = value
	close(c.done)
	return nil
}

// Done returns a channel closed at settlement.
func (c *Completion) Done() <-chan struct{} { return c.done }

// Value returns the settled value, or ErrNotSettled before
// settlement.
func (c *Completion) Value() (ResponseData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.settled {
		return ResponseData{}, ErrNotSettled
	}
	return c.value, nil
}

// Settled reports whether Settle has run.
func (c *Completion) Settled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settled
}
