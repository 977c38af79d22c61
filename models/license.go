package models

// LicenseStrategy is the purchased license tier.
type LicenseStrategy int

const (
	StrategyNone LicenseStrategy = iota
	StrategyStandard
	StrategyPremium
	StrategyDeluxe
)

// String returns the tier name.
func (s LicenseStrategy) String() string {
	switch s {
	case StrategyStandard:
		return "standard"
	case StrategyPremium:
		return "premium"
	case StrategyDeluxe:
		return "deluxe"
	default:
		return "none"
	}
}

// ParseLicenseStrategy maps a tier name back to its value. Unknown names
// map to [StrategyNone].
func ParseLicenseStrategy(s string) LicenseStrategy {
	switch s {
	case "standard":
		return StrategyStandard
	case "premium":
		return StrategyPremium
	case "deluxe":
		return StrategyDeluxe
	default:
		return StrategyNone
	}
}

// License is the locally known, authoritative license state. It is copied
// into every profile before the profile is written or merged.
type License struct {
	IsLicensed      bool
	MaxItemStorage  int
	TotalConnection int
	Strategy        LicenseStrategy
}
