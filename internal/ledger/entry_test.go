package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestConcernsProductPrefersForeignKey(t *testing.T) {
	widget := uuid.New()
	gadget := uuid.New()

	linked := Entry{Description: "Cost of Widget Pro", ProductID: &gadget}
	require.False(t, linked.ConcernsProduct(widget, "Widget"), "explicit product id must win over the description")
	require.True(t, linked.ConcernsProduct(gadget, "Gadget"))

	legacy := Entry{Description: "CMV - Widget x2"}
	require.True(t, legacy.ConcernsProduct(widget, "Widget"))
	require.False(t, legacy.ConcernsProduct(widget, "widget"))
	require.False(t, legacy.ConcernsProduct(widget, ""))
}

func TestHasCategory(t *testing.T) {
	cat := uuid.New()
	require.True(t, Entry{CategoryID: &cat}.HasCategory(cat))
	require.False(t, Entry{}.HasCategory(cat))
	require.False(t, Entry{CategoryID: &cat}.HasCategory(uuid.New()))
}

func TestSaleProductPredicateMirrorsConcernsProduct(t *testing.T) {
	// FK first, then the description only when the FK is absent.
	require.Contains(t, saleProductPredicate, "product_id = $3 OR")
	require.Contains(t, saleProductPredicate, "product_id IS NULL")
	// Empty names never match, like ConcernsProduct(id, "").
	require.Contains(t, saleProductPredicate, "$4 <> ''")
	// Case-sensitive substring, like strings.Contains.
	require.Contains(t, saleProductPredicate, "strpos(description, $4) > 0")
	require.NotContains(t, saleProductPredicate, "ILIKE")
	require.NotContains(t, saleProductPredicate, "lower(")
}
