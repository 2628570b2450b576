// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package rolegate

import "github.com/nkthecoder12/swiftride-fleet/ride"

// Surface names a mountable UI destination.
type Surface string

const (
	SurfaceLogin      Surface = "/login"
	SurfaceSignup     Surface = "/signup"
	SurfaceRideHome   Surface = "/ride"
	SurfaceDriverHome Surface = "/driver"
	SurfaceOwnerHome  Surface = "/owner"
)

// homeSurfaces is the fixed role-to-home mapping.
var homeSurfaces = map[ride.Role]Surface{
	ride.RoleRider:  SurfaceRideHome,
	ride.RoleDriver: SurfaceDriverHome,
	ride.RoleOwner:  SurfaceOwnerHome,
}

// HomeSurface returns the home surface for a role. An unknown role
// maps to login, the safe landing for a session the client cannot
// place.
func HomeSurface(role ride.Role) Surface {
	if home, ok := homeSurfaces[role]; ok {
		return home
	}
	return SurfaceLogin
}

// Policy is the access rule attached to a surface.
type Policy struct {
	// publicOnly inverts the rule: the surface is for
	// unauthenticated visitors only.
	publicOnly bool

	// allowed is the role set admitted to a protected surface.
	allowed map[ride.Role]bool
}

// Protected returns the policy for a surface that requires
// authentication and membership in the given roles.
func Protected(roles ...ride.Role) Policy {
	allowed := make(map[ride.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return Policy{allowed: allowed}
}

// PublicOnly returns the policy for a surface that requires the
// absence of authentication, such as login and signup.
func PublicOnly() Policy {
	return Policy{publicOnly: true}
}

// Visitor is the gate's view of the current session.
type Visitor struct {
	Authenticated bool
	Role          ride.Role
}

// Decision is the gate's verdict: either the visitor may mount the
// surface, or they are redirected elsewhere.
type Decision struct {
	Allow    bool
	Redirect Surface
}

// Decide applies the policy to a visitor.
func (p Policy) Decide(visitor Visitor) Decision {
	if p.publicOnly {
		if visitor.Authenticated {
			return Decision{Redirect: HomeSurface(visitor.Role)}
		}
		return Decision{Allow: true}
	}
	if !visitor.Authenticated {
		return Decision{Redirect: SurfaceLogin}
	}
	if !p.allowed[visitor.Role] {
		return Decision{Redirect: HomeSurface(visitor.Role)}
	}
	return Decision{Allow: true}
}
