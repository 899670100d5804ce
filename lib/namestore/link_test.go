package namestore

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestLinkNamesExactFirst(t *testing.T) {
	links := LinkNames(
		[]string{"Justin Jefferson", "Amon-Ra St. Brown"},
		[]string{"Amon-Ra St. Brown", "Justin Jefferson"},
	)

	want := []Link{
		{Name: "Amon-Ra St. Brown", External: "Amon-Ra St. Brown", Correlation: 1},
		{Name: "Justin Jefferson", External: "Justin Jefferson", Correlation: 1},
	}
	if diff := cmp.Diff(want, links); diff != "" {
		t.Fatalf("unexpected links (-want +got):\n%s", diff)
	}
}

func TestLinkNamesFuzzy(t *testing.T) {
	links := LinkNames(
		[]string{"Kenneth Walker III", "Patrick Mahomes"},
		[]string{"Kenneth Walker", "P. Mahomes"},
	)
	require.Len(t, links, 2)

	byName := map[string]Link{}
	for _, link := range links {
		byName[link.Name] = link
	}
	require.Equal(t, "Kenneth Walker", byName["Kenneth Walker III"].External)
	require.Equal(t, "P. Mahomes", byName["Patrick Mahomes"].External)

	for _, link := range links {
		require.Greater(t, link.Correlation, 0.5)
		require.Less(t, link.Correlation, 1.0)
	}
}

func TestLinkNamesClaimsEachExternalOnce(t *testing.T) {
	links := LinkNames(
		[]string{"Mike Evans", "Mike Evans Jr."},
		[]string{"Mike Evans"},
	)
	require.Len(t, links, 1)
	require.Equal(t, "Mike Evans", links[0].Name)
	require.Equal(t, 1.0, links[0].Correlation)
}

func TestLinkNamesEmpty(t *testing.T) {
	require.Empty(t, LinkNames(nil, []string{"a"}))
	require.Empty(t, LinkNames([]string{"a"}, nil))
}
