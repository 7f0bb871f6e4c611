// Package actor identifies who performs a stock operation. Authenticated
// back-office calls carry a user actor taken from the JWT; the public scan
// endpoint runs as the scanner actor.
package actor

import (
	"context"
	"fmt"
)

// Actor represents the entity performing an action in the system.
type Actor struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role,omitempty"`
	CompanyID int64  `json:"company_id"`

	// Permissions are resolved from the role and the token grants
	Permissions []string `json:"permissions,omitempty"`
}

const (
	scannerID = "scanner"
	systemID  = "system"
)

// String returns a string representation of the actor for logging and
// for the performed_by column of stock adjustments.
func (a *Actor) String() string {
	if a == nil {
		return systemID
	}
	if a.Email == "" {
		return a.ID
	}
	return fmt.Sprintf("%s (%s)", a.ID, a.Email)
}

type contextKey string

const actorContextKey contextKey = "actor"

// FromContext retrieves the Actor from the context.
// Returns nil if no actor is present.
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	a, ok := ctx.Value(actorContextKey).(*Actor)
	if !ok {
		return nil
	}
	return a
}

// WithActor returns a new context with the Actor attached.
func WithActor(ctx context.Context, a *Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey, a)
}

// Scanner returns the actor used for token-authenticated scan requests.
func Scanner(companyID int64) *Actor {
	return &Actor{ID: scannerID, Name: "Barcode scanner", CompanyID: companyID}
}

// System returns the actor used for startup and background work.
func System(companyID int64) *Actor {
	return &Actor{ID: systemID, Name: "System", CompanyID: companyID}
}

// CompanyID returns the company of the actor on ctx, or fallback when the
// context has no actor or the actor carries no company.
func CompanyID(ctx context.Context, fallback int64) int64 {
	if a := FromContext(ctx); a != nil && a.CompanyID != 0 {
		return a.CompanyID
	}
	return fallback
}

// PerformedBy returns the audit label for the actor on ctx.
func PerformedBy(ctx context.Context) string {
	return FromContext(ctx).String()
}
