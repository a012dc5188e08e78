package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListQueryKeyEqualByValue(t *testing.T) {
	approved := true
	a := ListQuery{Page: 1, PerPage: 20, Search: "bolt", Approved: &approved}
	alsoApproved := true
	b := ListQuery{Page: 1, PerPage: 20, Search: "bolt", Approved: &alsoApproved}

	// Pointer fields compare by pointee value.
	assert.Equal(t, a.Key(), b.Key())
}

func TestListQueryKeyDistinguishesSearchCase(t *testing.T) {
	a := ListQuery{Page: 1, PerPage: 20, Search: "Bolt"}
	b := ListQuery{Page: 1, PerPage: 20, Search: "bolt"}

	// Equality is by value: case-distinct search text is a distinct query.
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestListQueryNormalizeTrimsSearch(t *testing.T) {
	q := ListQuery{Page: 1, PerPage: 20, Search: " bolt "}.Normalize()
	assert.Equal(t, "bolt", q.Search)
	assert.Equal(t, ListQuery{Page: 1, PerPage: 20, Search: "bolt"}.Key(), q.Key())
}

func TestListQueryKeyDistinguishesFields(t *testing.T) {
	base := ListQuery{Page: 1, PerPage: 20}
	category := "cat-1"
	approved := false
	withCategory := ListQuery{Page: 1, PerPage: 20, Category: &category}
	withApproved := ListQuery{Page: 1, PerPage: 20, Approved: &approved}

	keys := map[string]bool{
		base.Key():                 true,
		base.WithPage(2).Key():     true,
		base.WithSearch("x").Key(): true,
		withCategory.Key():         true,
		withApproved.Key():         true,
	}
	assert.Len(t, keys, 5)
}

func TestListQueryNormalize(t *testing.T) {
	q := ListQuery{Page: 0, PerPage: -1}.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 20, q.PerPage)
}

func TestListQueryWithSearchResetsPage(t *testing.T) {
	q := ListQuery{Page: 7, PerPage: 20}.WithSearch("bolt")
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, "bolt", q.Search)
}
