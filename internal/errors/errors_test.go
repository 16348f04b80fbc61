package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDefaults(t *testing.T) {
	t.Parallel()

	err := Newf("something failed").Build()
	require.Error(t, err)
	assert.Equal(t, CategoryGeneric, err.Category)
	assert.Equal(t, "something failed", err.Error())
	assert.False(t, err.Timestamp.IsZero())
}

func TestBuilderMetadata(t *testing.T) {
	t.Parallel()

	base := NewStd("db locked")
	err := New(base).
		Component("datastore").
		Category(CategoryDatabase).
		Priority(PriorityHigh).
		Context("table", "feedback_entries").
		Build()

	assert.Equal(t, "datastore", err.GetComponent())
	assert.Equal(t, string(CategoryDatabase), err.GetCategory())
	assert.Equal(t, PriorityHigh, err.GetPriority())
	assert.Equal(t, "feedback_entries", err.GetContext()["table"])
	assert.True(t, Is(err, base), "wrapped error should match with Is")
}

func TestInvalidPriorityFallsBackToMedium(t *testing.T) {
	t.Parallel()

	err := Newf("x").Priority("urgent!!").Build()
	assert.Equal(t, PriorityMedium, err.GetPriority())
}

func TestIsCategory(t *testing.T) {
	t.Parallel()

	inner := Newf("rate limited").Category(CategoryProviderQuota).Build()
	wrapped := fmt.Errorf("synthesis call: %w", inner)

	assert.True(t, IsCategory(wrapped, CategoryProviderQuota))
	assert.False(t, IsCategory(wrapped, CategoryDatabase))
	assert.False(t, IsCategory(NewStd("plain"), CategoryProviderQuota))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	err := Newf("no such feedback").Category(CategoryNotFound).Build()
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(Newf("boom").Build()))
}

func TestCategoryEquivalenceViaIs(t *testing.T) {
	t.Parallel()

	a := Newf("a").Category(CategoryParse).Build()
	b := Newf("b").Category(CategoryParse).Build()
	assert.True(t, Is(a, b), "errors with the same category compare equal via Is")
}

func TestContextCopyIsIndependent(t *testing.T) {
	t.Parallel()

	err := Newf("x").Context("k", "v").Build()
	ctx := err.GetContext()
	ctx["k"] = "mutated"
	assert.Equal(t, "v", err.GetContext()["k"])
}
