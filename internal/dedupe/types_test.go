package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemovalSetAdd(t *testing.T) {
	rs := NewRemovalSet()

	assert.True(t, rs.Add(Removal{Index: 2, SurvivorIndex: 0, Method: MethodFuzzy}))
	assert.True(t, rs.Has(2))
	assert.Equal(t, 1, rs.Len())

	// A record is removed at most once.
	assert.False(t, rs.Add(Removal{Index: 2, SurvivorIndex: 5, Method: MethodExact}))
	assert.Equal(t, 1, rs.Len())

	// A designated survivor can never itself be removed.
	assert.False(t, rs.Add(Removal{Index: 0, SurvivorIndex: 9, Method: MethodTFIDF}))
	assert.False(t, rs.Has(0))
}

func TestRemovalSetListOrdered(t *testing.T) {
	rs := NewRemovalSet()
	rs.Add(Removal{Index: 7, SurvivorIndex: 1, Method: MethodFuzzy})
	rs.Add(Removal{Index: 3, SurvivorIndex: 1, Method: MethodFuzzy})
	rs.Add(Removal{Index: 5, SurvivorIndex: 1, Method: MethodExact})

	list := rs.List()
	assert.Len(t, list, 3)
	assert.Equal(t, []int{3, 5, 7}, []int{list[0].Index, list[1].Index, list[2].Index})
}

func TestRunRecord(t *testing.T) {
	run := testRun(
		testRecord("Metaplanet", "Japan", "Public Company", "1000", "$60M", "3350"),
	)
	rec := run.Record(run.Candidates[0])
	assert.Equal(t, "Metaplanet", rec.CompanyName)
}
