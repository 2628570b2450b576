// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

// Package rolegate decides which UI surface a visitor may mount.
//
// Surfaces come in two kinds. A protected surface names the roles
// allowed on it: an unauthenticated visitor is redirected to login,
// and an authenticated visitor outside the allowed set is redirected
// to their own role's home surface. A public-only surface (login,
// signup) is the inverse: an authenticated visitor is sent to their
// home surface instead. The role-to-home mapping is fixed one-to-one,
// so no role ever lands on another role's surface.
package rolegate
