package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "library west", Fold("  Library West "))
	assert.Equal(t, "silver", Fold("SILVER"))
	assert.Equal(t, "", Fold("   "))
}

func TestTokenize(t *testing.T) {
	t.Run("splits on non-alphanumerics", func(t *testing.T) {
		set := Tokenize("MacBook Pro 14-inch")
		assert.ElementsMatch(t, []string{"14", "inch", "macbook", "pro"}, set.Sorted())
	})

	t.Run("deduplicates tokens", func(t *testing.T) {
		set := Tokenize("blue blue Blue")
		assert.Equal(t, []string{"blue"}, set.Sorted())
	})

	t.Run("empty input yields empty set", func(t *testing.T) {
		assert.Empty(t, Tokenize(""))
		assert.Empty(t, Tokenize("  --  "))
	})
}

func TestTokenSet_SetOps(t *testing.T) {
	a := Tokenize("dell xps 13")
	b := Tokenize("dell xps")

	assert.Equal(t, 2, a.Intersection(b))
	assert.Equal(t, 2, b.Intersection(a))
	assert.Equal(t, 3, a.Union(b))
	assert.True(t, a.Contains("dell"))
	assert.False(t, b.Contains("13"))
}
