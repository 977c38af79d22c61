// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the clipboard sync client runtime.
//
// It wires the local storage, the remote store, the sync engine, the
// background workers and the status server into a single process lifecycle.
package client
