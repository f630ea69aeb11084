package querykey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type filter struct {
	Status string `json:"status,omitempty"`
	Search string `json:"search,omitempty"`
	Page   int    `json:"page,omitempty"`
}

func TestFactory_Shapes(t *testing.T) {
	k := For("vouchers")
	assert.Equal(t, "vouchers", k.All().String())
	assert.Equal(t, "vouchers/list", k.Lists().String())
	assert.Equal(t, "vouchers/detail", k.Details().String())
	assert.Equal(t, "vouchers/detail/SPR-1", k.Detail("SPR-1").String())
	assert.Equal(t, "vouchers/stats", k.Stats().String())
	assert.Equal(t, `vouchers/list/{"status":"active"}`, k.List(filter{Status: "active"}).String())
	assert.Equal(t, "vouchers/list/{}", k.List(filter{}).String())
}

func TestFactory_EqualFiltersEqualKeys(t *testing.T) {
	k := For("campaigns")
	a := k.List(filter{Status: "active", Page: 1})
	b := k.List(filter{Page: 1, Status: "active"})
	c := k.List(filter{Status: "draft", Page: 1})

	assert.Equal(t, a.String(), b.String())
	assert.NotEqual(t, a.String(), c.String())

	m1 := k.List(map[string]any{"b": 1, "a": 2})
	m2 := k.List(map[string]any{"a": 2, "b": 1})
	assert.Equal(t, m1.String(), m2.String())
}

func TestFactory_Hierarchy(t *testing.T) {
	k := For("customers")
	list := k.List(filter{Search: "ann"})

	assert.True(t, list.HasPrefix(k.Lists()))
	assert.True(t, list.HasPrefix(k.All()))
	assert.False(t, list.HasPrefix(k.Details()))
	assert.True(t, k.Detail("c1").HasPrefix(k.All()))
	assert.False(t, k.Stats().HasPrefix(k.Lists()))
	assert.False(t, For("vouchers").All().HasPrefix(k.All()))
}

func TestKey_EscapesSeparators(t *testing.T) {
	k := For("vouchers").Detail("a/b")
	s := k.String()
	assert.Equal(t, "vouchers/detail/a%2Fb", s)
	assert.Equal(t, k, Parse(s))
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("vouchers/list/x", "vouchers/list"))
	assert.True(t, Matches("vouchers/list", "vouchers/list"))
	assert.False(t, Matches("vouchers/listing", "vouchers/list"))
	assert.False(t, Matches("vouchers", "vouchers/list"))
}

func TestAppend_DoesNotAlias(t *testing.T) {
	base := make(Key, 1, 4)
	base[0] = "logs"
	a := base.Append("x")
	b := base.Append("y")
	assert.Equal(t, "logs/x", a.String())
	assert.Equal(t, "logs/y", b.String())
	assert.Equal(t, Key{"logs"}, base)
	assert.Equal(t, "{}", Canonical(nil))
}
