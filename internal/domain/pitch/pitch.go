// Package pitch contains the unified records served by the relay.
//
// Optional values are pointers: nil marshals to JSON null and means the
// upstream did not provide the value (or it could not be derived). A nil is
// never replaced with zero.
package pitch

// MovementSource records which upstream produced a PitchRecord.
type MovementSource string

// Movement sources.
const (
	SourceLiveFeed MovementSource = "live_feed"
	SourceSavant   MovementSource = "savant"
)

// PitchRecord is one pitch event in the unified schema.
type PitchRecord struct {
	PitchNumber      int            `json:"pitch_number"`
	PitchType        string         `json:"pitch_type"`
	PitchName        string         `json:"pitch_name"`
	ReleaseSpeed     *float64       `json:"release_speed"`
	PlateX           *float64       `json:"plate_x"`
	PlateZ           *float64       `json:"plate_z"`
	ReleasePosX      *float64       `json:"release_pos_x"`
	ReleasePosZ      *float64       `json:"release_pos_z"`
	ReleaseExtension *float64       `json:"release_extension"`
	PfxX             *float64       `json:"pfx_x"`
	PfxZ             *float64       `json:"pfx_z"`
	MovementSource   MovementSource `json:"movement_source"`
	ReleaseSpinRate  *float64       `json:"release_spin_rate"`
	Zone             *float64       `json:"zone"`
	Description      string         `json:"description"`
	IsInPlay         bool           `json:"is_in_play"`
	BatterName       string         `json:"batter_name"`
	Inning           *float64       `json:"inning"`

	*LiveFields
	*SavantFields
}

// LiveFields are only present on records built from the live game feed.
type LiveFields struct {
	SpinDirection        *float64 `json:"spin_direction"`
	Call                 string   `json:"call"`
	IsStrike             bool     `json:"is_strike"`
	IsBall               bool     `json:"is_ball"`
	Count                string   `json:"count"`
	BatterHand           string   `json:"batter_hand"`
	EndSpeed             *float64 `json:"end_speed"`
	PlateTime            *float64 `json:"plate_time"`
	FlightTime           *float64 `json:"flight_time"`
	BreakVerticalInduced *float64 `json:"break_vertical_induced"`
	BreakHorizontal      *float64 `json:"break_horizontal"`
}

// SavantFields are only present on records built from the statcast CSV export.
type SavantFields struct {
	SpinAxis           *float64 `json:"spin_axis"`
	Vx0                *float64 `json:"vx0"`
	Vy0                *float64 `json:"vy0"`
	Vz0                *float64 `json:"vz0"`
	EffectiveSpeed     *float64 `json:"effective_speed"`
	Events             string   `json:"events"`
	Type               string   `json:"type"`
	LaunchSpeed        *float64 `json:"launch_speed"`
	LaunchAngle        *float64 `json:"launch_angle"`
	EstimatedBA        *float64 `json:"estimated_ba_using_speedangle"`
	EstimatedWOBA      *float64 `json:"estimated_woba_using_speedangle"`
	EstimatedSLG       *float64 `json:"estimated_slg_using_speedangle"`
	WOBAValue          *float64 `json:"woba_value"`
	BattedBallType     string   `json:"bb_type"`
	Stand              string   `json:"stand"`
	PitcherThrows      string   `json:"p_throws"`
	Balls              string   `json:"balls"`
	Strikes            string   `json:"strikes"`
	GameDate           string   `json:"game_date"`
	DeltaRunExpectancy *float64 `json:"delta_run_exp"`
	BatSpeed           *float64 `json:"bat_speed"`
	SwingLength        *float64 `json:"swing_length"`
}

// PitcherSearchResult is one entry of the pitcher name search.
type PitcherSearchResult struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Team   string `json:"team"`
	Throws string `json:"throws"`
}

// GameStatus summarizes one scheduled game.
type GameStatus struct {
	GamePk         int    `json:"game_pk"`
	Status         string `json:"status"`
	DetailedStatus string `json:"detailed_status"`
	AwayTeam       string `json:"away_team"`
	HomeTeam       string `json:"home_team"`
	AwayScore      int    `json:"away_score"`
	HomeScore      int    `json:"home_score"`
	Inning         string `json:"inning"`
	Venue          string `json:"venue"`
}

// Side is the team a pitcher plays for, relative to the game.
type Side string

// Sides.
const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// GamePitcher is a pitcher who has appeared in a game.
type GamePitcher struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Side       Side   `json:"side"`
	PitchCount int    `json:"pitch_count"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
