package fantasy

import (
	"context"

	"github.com/omarshaarawi/fplforecaster/internal/api/fpl"
	"github.com/omarshaarawi/fplforecaster/internal/api/predictor"
	"github.com/omarshaarawi/fplforecaster/internal/models"
)

// API joins the FPL game API and the prediction service behind one surface.
type API struct {
	fplAPI       *fpl.API
	predictorAPI *predictor.API
}

func NewAPI(fplAPI *fpl.API, predictorAPI *predictor.API) *API {
	return &API{fplAPI: fplAPI, predictorAPI: predictorAPI}
}

func (a *API) GetBootstrap(ctx context.Context) (*models.BootstrapResponse, error) {
	return a.fplAPI.GetBootstrap(ctx)
}

func (a *API) GetPicks(ctx context.Context, teamID, gameweek int) ([]models.Pick, error) {
	return a.fplAPI.GetPicks(ctx, teamID, gameweek)
}

func (a *API) GetPredictions(ctx context.Context) ([]models.Prediction, error) {
	return a.predictorAPI.GetPredictions(ctx)
}

func (a *API) GetBest15(ctx context.Context) ([]models.Prediction, error) {
	return a.predictorAPI.GetBest15(ctx)
}
