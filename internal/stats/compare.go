package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/omarshaarawi/fplforecaster/internal/api/fpl"
	"github.com/omarshaarawi/fplforecaster/internal/models"
)

const nameSimilarityThreshold = 0.6

// FindPrediction looks a player up by name. Names that contain the query
// as an in-order subsequence win, closest first; otherwise the most similar
// name by edit distance is used if it is close enough.
func FindPrediction(predictions []models.Prediction, query string) (models.Prediction, bool) {
	query = strings.TrimSpace(query)
	if query == "" || len(predictions) == 0 {
		return models.Prediction{}, false
	}

	names := make([]string, len(predictions))
	for i, p := range predictions {
		names[i] = p.Name
	}

	if ranks := fuzzy.RankFindNormalizedFold(query, names); len(ranks) > 0 {
		sort.Sort(ranks)
		return predictions[ranks[0].OriginalIndex], true
	}

	bestIndex := -1
	bestSimilarity := 0.0
	for i, name := range names {
		distance := fuzzy.LevenshteinDistance(strings.ToLower(query), strings.ToLower(name))
		maxLen := float64(max(len(query), len(name)))
		similarity := 1 - float64(distance)/maxLen

		if similarity > nameSimilarityThreshold && similarity > bestSimilarity {
			bestSimilarity = similarity
			bestIndex = i
		}
	}
	if bestIndex == -1 {
		return models.Prediction{}, false
	}
	return predictions[bestIndex], true
}

// Compare lists the picked players sharing the selected player's position.
// Picks without a prediction have no score. They take their name and
// position from refs when it knows them, and are shown by id otherwise.
func Compare(selected models.Prediction, picks []models.Pick, predictions []models.Prediction, refs *models.BootstrapResponse) models.Comparison {
	lookup := make(map[int]models.Prediction, len(predictions))
	for _, p := range predictions {
		lookup[p.PlayerID] = p
	}

	cmp := models.Comparison{Selected: selected}
	for _, pick := range picks {
		player := models.ComparedPlayer{
			PlayerID: pick.Element,
			Name:     fmt.Sprintf("Player %d", pick.Element),
		}
		if pred, ok := lookup[pick.Element]; ok {
			player.Name = pred.Name
			player.Position = pred.Position
			player.Predicted = pred.RoundedPredicted
		} else if refs != nil {
			if ref, ok := fpl.FindPlayer(refs, pick.Element); ok {
				player.Name = ref.WebName
				player.Position = fpl.PositionName(refs, ref.ElementType)
			}
		}

		if selected.Position != "" && player.Position != selected.Position {
			continue
		}
		cmp.TeamPlayers = append(cmp.TeamPlayers, player)
	}
	return cmp
}
