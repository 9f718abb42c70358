package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCompany(t *testing.T) {
	assert.Equal(t, "Acme Corp", NormalizeCompany("  Acme   Corp \t"))
	assert.Equal(t, "", NormalizeCompany("   "))

	once := NormalizeCompany(" Foo   Bar ")
	assert.Equal(t, once, NormalizeCompany(once))
}

func TestResolveCompany(t *testing.T) {
	known := []string{"Acme International", "Acme", "Beta Foods"}

	t.Run("exact beats earlier substring", func(t *testing.T) {
		m, ok := ResolveCompany("acme", known)
		assert.True(t, ok)
		assert.Equal(t, Match{Name: "Acme", Tier: TierExact}, m)
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		for _, in := range []string{"BETA FOODS", "  beta   foods ", "Beta Foods"} {
			m, ok := ResolveCompany(in, known)
			assert.True(t, ok, in)
			assert.Equal(t, "Beta Foods", m.Name)
			assert.Equal(t, TierExact, m.Tier)
		}
	})

	t.Run("substring in either direction", func(t *testing.T) {
		m, ok := ResolveCompany("beta", known)
		assert.True(t, ok)
		assert.Equal(t, Match{Name: "Beta Foods", Tier: TierSubstring}, m)

		m, ok = ResolveCompany("Beta Foods Ltd", known)
		assert.True(t, ok)
		assert.Equal(t, "Beta Foods", m.Name)
	})

	t.Run("first substring candidate wins", func(t *testing.T) {
		m, ok := ResolveCompany("acme inter", known)
		assert.True(t, ok)
		assert.Equal(t, "Acme International", m.Name)
	})

	t.Run("empty and unknown", func(t *testing.T) {
		_, ok := ResolveCompany("   ", known)
		assert.False(t, ok)

		_, ok = ResolveCompany("Zeta", known)
		assert.False(t, ok)

		_, ok = ResolveCompany("Acme", nil)
		assert.False(t, ok)
	})
}

func TestMatchTierString(t *testing.T) {
	assert.Equal(t, "exact", TierExact.String())
	assert.Equal(t, "substring", TierSubstring.String())
	assert.Equal(t, "none", MatchTier(0).String())
}
