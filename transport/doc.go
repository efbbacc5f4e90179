// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport provides the address-less stand-ins for a
// transport connection and a server's listening state.
//
// Nothing here moves bytes. [Socket] is a passive value object
// attached to each emulated request so that code written against a
// real server runtime finds the connection metadata it expects —
// synthetic local and remote addresses, a no-op timeout knob. The
// byte flows live in the stream package; the socket is deliberately
// inert.
//
// [Listener] models the listening half: Listen binds a logical port
// (an integer key, not an OS resource), flips the listening flag, and
// fires "listening"; Close fires "close". Binding is purely local —
// two Listeners may claim the same port number without the transport
// layer objecting, because enforcement belongs to whichever registry
// maps ports to servers. Listen takes one structured [ListenConfig];
// the historical positional calling shapes survive only as thin
// wrappers (ListenPort, ListenHostPort).
package transport
