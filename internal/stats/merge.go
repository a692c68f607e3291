// Package stats combines roster picks with predicted scores.
package stats

import "github.com/omarshaarawi/fplforecaster/internal/models"

type Result struct {
	Players []models.MergedPlayer
	Total   float64
}

// Merge joins predictions to picks on player id. Predictions for players
// not in picks are dropped. Each kept row's score is scaled by the pick's
// multiplier, which defaults to 1 only when the pick carries none; an
// explicit 0 (benched) keeps the row but zeroes its contribution. Rows
// follow the order of predictions.
func Merge(picks []models.Pick, predictions []models.Prediction) Result {
	byElement := make(map[int]models.Pick, len(picks))
	for _, p := range picks {
		if _, ok := byElement[p.Element]; !ok {
			byElement[p.Element] = p
		}
	}

	res := Result{Players: make([]models.MergedPlayer, 0, len(picks))}
	for _, pred := range predictions {
		pick, ok := byElement[pred.PlayerID]
		if !ok {
			continue
		}

		multiplier := 1
		if pick.Multiplier != nil {
			multiplier = *pick.Multiplier
		}

		res.Players = append(res.Players, models.MergedPlayer{
			Prediction:    pred,
			Multiplier:    multiplier,
			AdjustedScore: pred.Rounded() * float64(multiplier),
		})
	}

	res.Total = Total(res.Players)
	return res
}

// Total sums adjusted scores in slice order.
func Total(players []models.MergedPlayer) float64 {
	var total float64
	for _, p := range players {
		total += p.AdjustedScore
	}
	return total
}

// Split separates counted players from benched ones (multiplier 0).
func Split(players []models.MergedPlayer) (starters, bench []models.MergedPlayer) {
	for _, p := range players {
		if p.Multiplier == 0 {
			bench = append(bench, p)
		} else {
			starters = append(starters, p)
		}
	}
	return starters, bench
}
