package fpl

import (
	"context"
	"errors"
	"fmt"

	"github.com/omarshaarawi/fplforecaster/internal/api"
	"github.com/omarshaarawi/fplforecaster/internal/models"
)

var ErrNoCurrentEvent = errors.New("no current or next event found")

type API struct {
	client *api.Client
}

func NewAPI(client *api.Client) *API {
	return &API{client: client}
}

func (a *API) GetBootstrap(ctx context.Context) (*models.BootstrapResponse, error) {
	var resp models.BootstrapResponse
	if err := a.client.Get(ctx, "/bootstrap-static/", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching bootstrap-static: %w", err)
	}
	return &resp, nil
}

func (a *API) GetPicks(ctx context.Context, teamID, gameweek int) ([]models.Pick, error) {
	var resp models.PicksResponse
	endpoint := fmt.Sprintf("/entry/%d/event/%d/picks/", teamID, gameweek)
	if err := a.client.Get(ctx, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching picks for team %d gameweek %d: %w", teamID, gameweek, err)
	}
	return resp.Picks, nil
}

// CurrentEvent returns the id of the event flagged is_current, falling back
// to the one flagged is_next.
func CurrentEvent(b *models.BootstrapResponse) (int, error) {
	for _, e := range b.Events {
		if e.IsCurrent {
			return e.ID, nil
		}
	}
	for _, e := range b.Events {
		if e.IsNext {
			return e.ID, nil
		}
	}
	return 0, ErrNoCurrentEvent
}

func FindPlayer(b *models.BootstrapResponse, id int) (models.PlayerReference, bool) {
	for _, p := range b.Elements {
		if p.ID == id {
			return p, true
		}
	}
	return models.PlayerReference{}, false
}

// PositionName maps an element_type to the position labels the prediction
// service uses (GK, DEF, MID, FWD). FPL's own "GKP" becomes "GK".
func PositionName(b *models.BootstrapResponse, elementType int) string {
	for _, t := range b.ElementTypes {
		if t.ID != elementType {
			continue
		}
		if t.SingularNameShort == "GKP" {
			return "GK"
		}
		return t.SingularNameShort
	}
	return "Unknown"
}
