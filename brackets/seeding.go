package brackets

import (
	"math/rand"
	"time"

	"github.com/Dosada05/bracket-engine/models"
)

// ShuffleTeams returns a uniformly random permutation of teams. A nil rng
// gets a fresh time-seeded source; tests inject a fixed one. The input slice
// is not modified.
func ShuffleTeams(teams []*models.Team, rng *rand.Rand) ([]*models.Team, error) {
	if len(teams) < 2 {
		return nil, ErrInsufficientTeams
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	shuffled := make([]*models.Team, len(teams))
	copy(shuffled, teams)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled, nil
}
