// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry maps virtual ports to listening servers.
//
// A Registry is an explicitly constructed object: components that need
// one (the bridge, a test) create their own instance, so independent
// stacks never observe each other's registrations. Registration is
// last-wins per port. Subscribers receive a notification for every
// registration and removal, which is how an external router stays
// informed of listening churn without the server layer depending on
// the router.
package registry
