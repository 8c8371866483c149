// Package tier maps engagement scores to role tiers and computes the
// role-set delta that keeps a member's tier roles consistent with the
// score. Resolution is re-derived from the score every time, never
// incrementally patched, so role state cannot drift.
package tier

import "github.com/Aladore384/guildpulse/internal/domain"

// Resolve classifies points against threshold. A member at exactly the
// threshold is active.
func Resolve(points, threshold int) domain.Tier {
	if points >= threshold {
		return domain.TierActive
	}
	return domain.TierPassive
}

// Pair is the mutually exclusive active/passive role pair governed by
// the tier system.
type Pair struct {
	ActiveRoleID  string
	PassiveRoleID string
}

// Reconcile computes the minimal role delta so that, given the
// member's current holdings of the pair, exactly one of the two roles
// is held and it matches t.
func (p Pair) Reconcile(hasActive, hasPassive bool, t domain.Tier) domain.RoleDelta {
	var d domain.RoleDelta
	switch t {
	case domain.TierActive:
		if !hasActive {
			d.Add = append(d.Add, p.ActiveRoleID)
		}
		if hasPassive {
			d.Remove = append(d.Remove, p.PassiveRoleID)
		}
	case domain.TierPassive:
		if !hasPassive {
			d.Add = append(d.Add, p.PassiveRoleID)
		}
		if hasActive {
			d.Remove = append(d.Remove, p.ActiveRoleID)
		}
	}
	return d
}
