package models

import "time"

type BootstrapResponse struct {
	Events       []Event           `json:"events"`
	Elements     []PlayerReference `json:"elements"`
	ElementTypes []ElementType     `json:"element_types"`
}

type Event struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	DeadlineTime time.Time `json:"deadline_time"`
	IsCurrent    bool      `json:"is_current"`
	IsNext       bool      `json:"is_next"`
	Finished     bool      `json:"finished"`
}

// PlayerReference is a player identity from the bootstrap dataset.
type PlayerReference struct {
	ID          int    `json:"id"`
	WebName     string `json:"web_name"`
	FirstName   string `json:"first_name"`
	SecondName  string `json:"second_name"`
	ElementType int    `json:"element_type"`
}

type ElementType struct {
	ID                int    `json:"id"`
	SingularNameShort string `json:"singular_name_short"`
}

type PicksResponse struct {
	Picks []Pick `json:"picks"`
}

// Pick is one roster slot. A nil Multiplier means the field was absent,
// which is not the same as a benched player's explicit 0.
type Pick struct {
	Element       int  `json:"element"`
	Position      int  `json:"position"`
	Multiplier    *int `json:"multiplier"`
	IsCaptain     bool `json:"is_captain"`
	IsViceCaptain bool `json:"is_vice_captain"`
}
