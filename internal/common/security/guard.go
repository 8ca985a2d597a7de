package security

import (
	"fmt"

	"online_judge/internal/common"
	"online_judge/internal/domain/model"
)

// Authorize evaluates a route capability against the caller. It has no side effects.
func Authorize(p *model.Principal, required model.Capability) error {
	switch required {
	case model.CapabilityPublic:
		return nil
	case model.CapabilityAuthenticated, model.CapabilityOwner:
		if p == nil {
			return fmt.Errorf("no session: %w", common.ErrUnauthorized)
		}
		return nil
	case model.CapabilityElevated:
		if p == nil || !p.IsElevated() {
			return fmt.Errorf("elevated authority required: %w", common.ErrUnauthorized)
		}
		return nil
	default:
		return fmt.Errorf("unknown capability %d: %w", required, common.ErrUnauthorized)
	}
}

// AuthorizeOwner must fail exactly like a missing session so callers cannot tell the cases apart.
func AuthorizeOwner(p *model.Principal, ownerID int64) error {
	if err := Authorize(p, model.CapabilityOwner); err != nil {
		return err
	}
	if p.UserID != ownerID {
		return fmt.Errorf("not the owner: %w", common.ErrUnauthorized)
	}
	return nil
}
