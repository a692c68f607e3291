package models

// Prediction is one row from the prediction service. Numeric columns are
// pointers because the service emits NaN for missing values, which is
// normalised to null before decoding.
type Prediction struct {
	PlayerID         int      `json:"player_id"`
	Name             string   `json:"name"`
	Position         string   `json:"position"`
	Team             string   `json:"team"`
	NowCost          *float64 `json:"now_cost"`
	PredictedPoints  *float64 `json:"predicted_points"`
	RoundedPredicted *float64 `json:"rounded_predicted"`
	PredictedP10     *float64 `json:"predicted_p10"`
	PredictedP50     *float64 `json:"predicted_p50"`
	PredictedP90     *float64 `json:"predicted_p90"`
	PredictedRisk    *float64 `json:"predicted_risk"`
}

// Rounded returns the rounded prediction, treating null as 0.
func (p Prediction) Rounded() float64 {
	if p.RoundedPredicted == nil {
		return 0
	}
	return *p.RoundedPredicted
}

// Points returns the raw predicted points, treating null as 0.
func (p Prediction) Points() float64 {
	if p.PredictedPoints == nil {
		return 0
	}
	return *p.PredictedPoints
}

type MergedPlayer struct {
	Prediction
	Multiplier    int     `json:"multiplier"`
	AdjustedScore float64 `json:"adjusted_score"`
}

type TeamScore struct {
	TeamID   int
	Gameweek int
	Players  []MergedPlayer
	Total    float64
}

type ComparedPlayer struct {
	PlayerID  int
	Name      string
	Position  string
	Predicted *float64
}

type Comparison struct {
	Selected    Prediction
	TeamPlayers []ComparedPlayer
}

type PositionGroup struct {
	Position string
	Players  []Prediction
}

type BestTeam struct {
	Captain     *Prediction
	ViceCaptain *Prediction
	Groups      []PositionGroup
	Total       float64
}
