// Package roles provides the role oracle and the data-driven transition
// gate. Every permission check in the engine goes through Check; which role
// a transition requires is table data, not code.
package roles

import (
	"github.com/signoffhq/signoff/internal/workflow"
)

// Oracle answers whether a user holds a role. The surrounding application
// supplies the implementation; Static covers config-driven deployments.
type Oracle interface {
	HasRole(userID, role string) bool
}

// Static is an Oracle backed by a user → roles map, typically loaded from
// the roles.bindings section of the config file.
type Static map[string][]string

// HasRole reports whether userID is bound to role.
func (s Static) HasRole(userID, role string) bool {
	for _, r := range s[userID] {
		if r == role {
			return true
		}
	}
	return false
}

// AllowAll is an Oracle that grants every role. Used when a deployment
// configures no bindings (single-operator local mode).
type AllowAll struct{}

// HasRole always returns true.
func (AllowAll) HasRole(userID, role string) bool { return true }

// Gates maps a transition name to the role required to perform it. A
// transition absent from the table is ungated.
type Gates map[string]string

// DefaultGates returns the built-in gate table: the authoring role drives
// the draft side of the lifecycle, the reviewing role the verdict side.
func DefaultGates() Gates {
	return Gates{
		"version.draft":             "tester",
		"version.submit":            "tester",
		"version.resubmit":          "tester",
		"version.approve":           "report_owner",
		"version.reject":            "report_owner",
		"item.decide":               "report_owner",
		"activity.request_revision": "report_owner",
	}
}

// Merge overlays config-supplied gate entries onto g, returning g.
func (g Gates) Merge(overrides map[string]string) Gates {
	for transition, role := range overrides {
		g[transition] = role
	}
	return g
}

// Check verifies that userID may perform transition. It returns a
// PermissionError naming the missing role, or nil when the gate passes.
func Check(o Oracle, g Gates, transition, userID string) error {
	role, gated := g[transition]
	if !gated {
		return nil
	}
	if o != nil && o.HasRole(userID, role) {
		return nil
	}
	return &workflow.PermissionError{User: userID, Role: role, Transition: transition}
}
