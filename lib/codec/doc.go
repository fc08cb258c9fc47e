// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides parley's CBOR encoding configuration.
//
// CBOR is used for on-disk state (the status snapshot file). The
// encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys, smallest integer encoding, no indefinite-length items, so the
// same logical data always produces identical bytes. Times are encoded
// as RFC 3339 text with nanoseconds and a zone, which keeps them
// readable in diagnostic output.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Types that are only ever serialized as CBOR use `cbor` struct tags.
package codec
