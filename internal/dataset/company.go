package dataset

import "strings"

// MatchTier reports which rule resolved a company name.
type MatchTier int

const (
	TierExact MatchTier = iota + 1
	TierSubstring
)

func (t MatchTier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierSubstring:
		return "substring"
	default:
		return "none"
	}
}

// Match is a resolved company name.
type Match struct {
	Name string
	Tier MatchTier
}

// NormalizeCompany replaces non-breaking spaces, collapses whitespace runs and trims.
func NormalizeCompany(name string) string {
	name = strings.ReplaceAll(name, "\u00a0", " ")
	return strings.Join(strings.Fields(name), " ")
}

// ResolveCompany matches input against known company names. An exact case-insensitive match of the
// normalized forms wins; otherwise the first known name (in the given order) that contains the input,
// or is contained by it, is returned. Substring matches can pick an unintended company when one name
// is a prefix of another ("Acme" vs "Acme International"); callers should surface Tier to operators.
func ResolveCompany(input string, known []string) (Match, bool) {
	needle := strings.ToLower(NormalizeCompany(input))
	if needle == "" {
		return Match{}, false
	}

	for _, name := range known {
		if strings.ToLower(NormalizeCompany(name)) == needle {
			return Match{Name: name, Tier: TierExact}, true
		}
	}

	for _, name := range known {
		candidate := strings.ToLower(NormalizeCompany(name))
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
			return Match{Name: name, Tier: TierSubstring}, true
		}
	}

	return Match{}, false
}
