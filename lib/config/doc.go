// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for parley.
//
// Configuration is loaded from a single file specified by either the
// PARLEY_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks and no automatic file
// search.
//
// Files ending in .json or .jsonc are read as JSON with comments and
// trailing commas (JSONC); everything else is YAML. Both decode into
// the same yaml-tagged structs, so durations are written as "30s" in
// either format.
//
// The file may contain environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches.
//
// After overrides, ${VAR} and ${VAR:-default} patterns are expanded in
// the host, URL, password, metrics address and status path fields, so
// secrets can stay in the environment rather than in the file.
//
// This package depends on no other parley packages.
package config
