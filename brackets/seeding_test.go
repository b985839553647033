package brackets

import (
	"math/rand"
	"testing"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTeams(n int) []*models.Team {
	teams := make([]*models.Team, n)
	for i := 0; i < n; i++ {
		teams[i] = &models.Team{ID: i + 1, Name: string(rune('A' + i))}
	}
	return teams
}

func TestShuffleTeams_Permutation(t *testing.T) {
	teams := makeTeams(16)
	rng := rand.New(rand.NewSource(42))

	shuffled, err := ShuffleTeams(teams, rng)
	require.NoError(t, err)
	require.Len(t, shuffled, len(teams))

	seen := make(map[int]int)
	for _, team := range shuffled {
		seen[team.ID]++
	}
	for _, team := range teams {
		assert.Equal(t, 1, seen[team.ID], "team %d must appear exactly once", team.ID)
	}
}

func TestShuffleTeams_DoesNotModifyInput(t *testing.T) {
	teams := makeTeams(8)
	original := make([]int, len(teams))
	for i, team := range teams {
		original[i] = team.ID
	}

	_, err := ShuffleTeams(teams, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	for i, team := range teams {
		assert.Equal(t, original[i], team.ID)
	}
}

func TestShuffleTeams_Deterministic(t *testing.T) {
	teams := makeTeams(10)

	first, err := ShuffleTeams(teams, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	second, err := ShuffleTeams(teams, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestShuffleTeams_TooFewTeams(t *testing.T) {
	_, err := ShuffleTeams(makeTeams(1), nil)
	assert.ErrorIs(t, err, ErrInsufficientTeams)

	_, err = ShuffleTeams(nil, nil)
	assert.ErrorIs(t, err, ErrInsufficientTeams)
}
