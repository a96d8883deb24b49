// Package completion contains the pure business logic for scope completion.
// This is part of the Functional Core - no I/O, only pure functions.
package completion

import "fmt"

// Role represents the caller role in the reading workflow.
// Defined here to avoid import cycles with internal/config.
type Role string

const (
	// RoleReader represents an annotating radiologist.
	RoleReader Role = "reader"
	// RoleAdministrator represents a study-level supervisor.
	RoleAdministrator Role = "administrator"
)

// GuardContext provides the context needed for role-based guard evaluation.
type GuardContext struct {
	Role     Role
	Username string
}

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
}

// DeniedError is the error form of a guard denial. Callers that need to
// tell a denial apart from an internal failure unwrap to this type.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return e.Reason
}

// Error returns the guard result as an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return &DeniedError{Reason: r.Reason}
}

// CanMutateRecord evaluates whether a record in the given series may be
// created, edited, or removed. Rule: a sealed scope blocks mutation for
// every role. The caller treats a denial as a logged no-op, not an error.
func CanMutateRecord(ctx GuardContext, scope ScopeState, seriesUID string) GuardResult {
	if scope.SeriesLocked(seriesUID) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("series %s is completed - annotation changes are disabled", seriesUID),
		}
	}
	return GuardResult{Allowed: true}
}

// CanSynchronize evaluates whether the caller's edits may produce an
// outbound snapshot for the given series. Rules: administrators never
// synchronize (their edits are suppressed at the synchronizer boundary),
// and a sealed scope blocks synchronization for everyone.
func CanSynchronize(ctx GuardContext, scope ScopeState, seriesUID string) GuardResult {
	if ctx.Role == RoleAdministrator {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("administrator %s edits are never synchronized", ctx.Username),
		}
	}
	if scope.SeriesLocked(seriesUID) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("series %s is completed - synchronization is disabled", seriesUID),
		}
	}
	return GuardResult{Allowed: true}
}

// CanCompleteSeries evaluates whether the caller may mark a series complete.
// Rule: only readers complete their own series; re-completing is a no-op
// handled by the state machine, not the guard.
func CanCompleteSeries(ctx GuardContext, scope ScopeState, seriesUID string) GuardResult {
	if ctx.Role != RoleReader {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("only readers can complete a series (caller: %s)", ctx.Username),
		}
	}
	if scope.StudyLocked() {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("study %s is completed - series state is sealed", scope.StudyUID),
		}
	}
	return GuardResult{Allowed: true}
}

// CanCompleteStudy evaluates whether the caller may mark the study complete.
// Rule: only administrators, and only through an explicit confirmation step.
func CanCompleteStudy(ctx GuardContext, confirmed bool) GuardResult {
	if ctx.Role != RoleAdministrator {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("only administrators can complete a study (caller: %s)", ctx.Username),
		}
	}
	if !confirmed {
		return GuardResult{
			Allowed: false,
			Reason:  "study completion requires explicit confirmation",
		}
	}
	return GuardResult{Allowed: true}
}
