package stats

import (
	"errors"
	"sort"

	"github.com/omarshaarawi/fplforecaster/internal/models"
)

// Positions lists the groups shown to the user, in display order.
// Predictions with any other position label are left out of groupings.
var Positions = []string{"GK", "DEF", "MID", "FWD"}

const TopPerPosition = 5

var ErrNoPlayers = errors.New("no players returned")

// TopByPosition groups predictions by position and keeps the n highest
// rounded predictions of each group.
func TopByPosition(predictions []models.Prediction, n int) []models.PositionGroup {
	groups := groupByPosition(predictions)
	for i := range groups {
		players := groups[i].Players
		sort.SliceStable(players, func(a, b int) bool {
			return players[a].Rounded() > players[b].Rounded()
		})
		if len(players) > n {
			groups[i].Players = players[:n]
		}
	}
	return groups
}

// BestTeam picks captain and vice-captain from the optimiser's squad by
// raw predicted points. The captain's score counts twice in the total.
// Groups hold the whole squad, captain and vice included.
func BestTeam(squad []models.Prediction) (models.BestTeam, error) {
	if len(squad) == 0 {
		return models.BestTeam{}, ErrNoPlayers
	}

	players := append([]models.Prediction(nil), squad...)
	sort.SliceStable(players, func(a, b int) bool {
		return players[a].Points() > players[b].Points()
	})

	var team models.BestTeam
	captain := players[0]
	team.Captain = &captain
	if len(players) > 1 {
		vice := players[1]
		team.ViceCaptain = &vice
	}

	for _, p := range players {
		team.Total += p.Rounded()
	}
	team.Total += captain.Rounded()

	team.Groups = groupByPosition(players)

	return team, nil
}

func groupByPosition(predictions []models.Prediction) []models.PositionGroup {
	groups := make([]models.PositionGroup, len(Positions))
	index := make(map[string]int, len(Positions))
	for i, pos := range Positions {
		groups[i].Position = pos
		index[pos] = i
	}
	for _, p := range predictions {
		if i, ok := index[p.Position]; ok {
			groups[i].Players = append(groups[i].Players, p)
		}
	}
	return groups
}
