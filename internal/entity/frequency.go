package entity

// CapTier selects the storage namespace of a frequency-cap entry.
type CapTier string

const (
	// CapDurable entries never expire; owned by a visitor.
	CapDurable CapTier = "once"
	// CapVolatile entries live as long as a session.
	CapVolatile CapTier = "session"
)

// CapScope is one key in the cap store; entries inside it are promotion ids.
type CapScope struct {
	Tier  CapTier
	Owner string
}

func (s CapScope) Key() string { return "promo:cap:" + string(s.Tier) + ":" + s.Owner }
