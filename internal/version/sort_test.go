package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSort(t *testing.T) {
	tags := []string{"1.10", "1.2", "2.0", "1.9", "1.2.1", "0.9"}
	sorted := Sort(tags)

	assert.Equal(t, []string{"0.9", "1.2", "1.2.1", "1.9", "1.10", "2.0"}, sorted)
	// Input untouched
	assert.Equal(t, []string{"1.10", "1.2", "2.0", "1.9", "1.2.1", "0.9"}, tags)
}

func TestSortStable(t *testing.T) {
	// "rc" and "ga" compare equal and keep their order
	assert.Equal(t, []string{"rc", "ga", "1.0"}, Sort([]string{"rc", "1.0", "ga"}))
	assert.Equal(t, []string{"ga", "rc", "1.0"}, Sort([]string{"ga", "1.0", "rc"}))
}

func TestSortEmpty(t *testing.T) {
	assert.Empty(t, Sort(nil))
	assert.Equal(t, "", Latest(nil))
}

func TestOutdatedAndNeedsReview(t *testing.T) {
	sorted := Sort([]string{"1.0", "1.1", "1.2"})

	assert.True(t, Outdated(sorted, "1.1"))
	assert.False(t, NeedsReview(sorted, "1.1"))

	assert.False(t, Outdated(sorted, "1.2"))
	assert.False(t, NeedsReview(sorted, "1.2"))

	assert.False(t, Outdated(sorted, "1.3"))
	assert.True(t, NeedsReview(sorted, "1.3"))

	assert.False(t, Outdated(nil, "1.0"))
	assert.True(t, NeedsReview(nil, "1.0"))
}
