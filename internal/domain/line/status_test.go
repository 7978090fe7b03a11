package line

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestCategoryOf checks the severity boundary table including the unclassified fallback.
func TestCategoryOf(t *testing.T) {
	t.Parallel()

	cases := map[int]Category{
		10: CategoryGoodService,
		9:  CategoryMinorDelays,
		8:  CategoryMajorDelays,
		6:  CategoryMajorDelays,
		5:  CategorySevereDelays,
		2:  CategorySevereDelays,
		1:  CategoryClosure,
		0:  CategoryClosure,
		11: CategoryDisruption,
		-1: CategoryDisruption,
		20: CategoryDisruption,
	}
	for severity, want := range cases {
		require.Equal(t, want, CategoryOf(severity), "severity %d", severity)
	}

	require.Equal(t, "Severe Delays", CategorySevereDelays.String())
	require.Equal(t, "Service Disruption", Category(99).String())
}

// TestStatus covers the derived disruption flag and the status text fallback.
func TestStatus(t *testing.T) {
	t.Parallel()

	s := Status{ID: "central", Name: "Central", Severity: 10}
	require.False(t, s.IsDisrupted())
	require.Equal(t, "Good Service", s.StatusText())

	s.Severity = 2
	s.Description = "Signal failure at Bank"
	require.True(t, s.IsDisrupted())
	require.Equal(t, "Signal failure at Bank", s.StatusText())
}

// TestStatusClone ensures nested slices are copied.
func TestStatusClone(t *testing.T) {
	t.Parallel()

	s := Status{
		ID: "victoria",
		Disruptions: []Disruption{
			{Category: "RealTime", AffectedStops: []string{"Brixton"}},
		},
	}

	c := s.Clone()
	c.Disruptions[0].AffectedStops[0] = "Walthamstow"

	require.Equal(t, "Brixton", s.Disruptions[0].AffectedStops[0])
}

// TestFilter keeps requested order and drops unknown ids.
func TestFilter(t *testing.T) {
	t.Parallel()

	statuses := []Status{{ID: "central"}, {ID: "victoria"}, {ID: "jubilee"}}

	got := Filter(statuses, []string{"victoria", "gone", "central"})
	require.Len(t, got, 2)
	require.Equal(t, "victoria", got[0].ID)
	require.Equal(t, "central", got[1].ID)

	require.Empty(t, Filter(statuses, []string{"gone"}))
}

// TestCachedExpired treats the expiry instant itself as stale.
func TestCachedExpired(t *testing.T) {
	t.Parallel()

	now := time.Unix(1000, 0)
	c := Cached{UpdatedAt: now, ExpiresAt: now.Add(10 * time.Minute)}

	require.False(t, c.Expired(now))
	require.True(t, c.Expired(now.Add(10*time.Minute)))
}

// TestResult covers the variant constructors.
func TestResult(t *testing.T) {
	t.Parallel()

	require.False(t, Loading().Terminal())
	require.True(t, Success(nil).Terminal())

	r := Failure("rate limited", 429)
	require.Equal(t, KindError, r.Kind)
	require.Equal(t, 429, r.StatusCode)
	require.Equal(t, "error", r.Kind.String())
}
