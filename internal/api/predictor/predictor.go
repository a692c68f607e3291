package predictor

import (
	"context"
	"fmt"
	"regexp"

	"github.com/omarshaarawi/fplforecaster/internal/api"
	"github.com/omarshaarawi/fplforecaster/internal/models"
)

const (
	bestPerPositionEndpoint = "/bestPerPosition"
	best15Endpoint          = "/best15"
)

var nanSentinel = regexp.MustCompile(`\bNaN\b`)

// Normalize rewrites the bare NaN tokens the prediction service emits for
// missing scores into JSON null so that strict decoding succeeds.
func Normalize(body []byte) []byte {
	return nanSentinel.ReplaceAll(body, []byte("null"))
}

type API struct {
	client *api.Client
}

func NewAPI(client *api.Client) *API {
	return &API{client: client}
}

// GetPredictions returns every predicted player.
func (a *API) GetPredictions(ctx context.Context) ([]models.Prediction, error) {
	return a.fetch(ctx, bestPerPositionEndpoint)
}

// GetBest15 returns the optimiser's recommended squad.
func (a *API) GetBest15(ctx context.Context) ([]models.Prediction, error) {
	return a.fetch(ctx, best15Endpoint)
}

func (a *API) fetch(ctx context.Context, endpoint string) ([]models.Prediction, error) {
	body, err := a.client.GetRaw(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", endpoint, err)
	}

	var preds []models.Prediction
	if err := api.Decode(endpoint, Normalize(body), &preds); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", endpoint, err)
	}
	return preds, nil
}
