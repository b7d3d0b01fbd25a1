package session

// Tier is the capability tier derived from a session snapshot. It gates
// what a view may show; the database permission layer remains the actual
// enforcement point, this derivation just keeps the two in sync.
type Tier int

const (
	// TierBlocked: no protected content may render, navigation included.
	TierBlocked Tier = iota
	// TierMember: authenticated, administrator flag unset.
	TierMember
	// TierAdministrator: authenticated with the administrator flag set.
	TierAdministrator
)

func (t Tier) String() string {
	switch t {
	case TierMember:
		return "member"
	case TierAdministrator:
		return "administrator"
	default:
		return "blocked"
	}
}

// Derive maps a snapshot to its capability tier. Pure; no state of its own.
func Derive(s Snapshot) Tier {
	if s.State != StateReady || s.Profile == nil {
		return TierBlocked
	}
	if s.Profile.IsAdmin {
		return TierAdministrator
	}
	return TierMember
}
