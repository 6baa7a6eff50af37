package statsapi

// Only the fields the relay reads are declared. Optional numerics are
// pointers so a key missing from the feed stays distinguishable from zero.

// PeopleSearch is the /api/v1/people/search response.
type PeopleSearch struct {
	People []Person `json:"people"`
}

// Person is one people-search hit.
type Person struct {
	ID              int      `json:"id"`
	FullName        string   `json:"fullName"`
	PrimaryPosition Position `json:"primaryPosition"`
	CurrentTeam     Team     `json:"currentTeam"`
	PitchHand       Code     `json:"pitchHand"`
}

// Position is a roster position.
type Position struct {
	Abbreviation string `json:"abbreviation"`
}

// Team identifies a club.
type Team struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

// Code is a {code, description} pair.
type Code struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Schedule is the /api/v1/schedule response.
type Schedule struct {
	Dates []ScheduleDate `json:"dates"`
}

// ScheduleDate groups the games of one day.
type ScheduleDate struct {
	Date  string `json:"date"`
	Games []Game `json:"games"`
}

// Game is one scheduled game.
type Game struct {
	GamePk    int        `json:"gamePk"`
	Status    GameStatus `json:"status"`
	Linescore Linescore  `json:"linescore"`
	Teams     GameTeams  `json:"teams"`
	Venue     Venue      `json:"venue"`
}

// GameStatus is the game's state.
type GameStatus struct {
	AbstractGameState string `json:"abstractGameState"`
	DetailedState     string `json:"detailedState"`
}

// Linescore carries the current inning. CurrentInning is absent before the
// first pitch.
type Linescore struct {
	CurrentInning *int   `json:"currentInning"`
	InningHalf    string `json:"inningHalf"`
}

// GameTeams holds both sides of a game.
type GameTeams struct {
	Away GameTeam `json:"away"`
	Home GameTeam `json:"home"`
}

// GameTeam is one side's team and score.
type GameTeam struct {
	Team  Team `json:"team"`
	Score int  `json:"score"`
}

// Venue is where the game is played.
type Venue struct {
	Name string `json:"name"`
}

// LiveFeed is the /api/v1.1/game/{gamePk}/feed/live document.
type LiveFeed struct {
	GamePk   int      `json:"gamePk"`
	LiveData LiveData `json:"liveData"`
}

// LiveData holds the plays of a game.
type LiveData struct {
	Plays Plays `json:"plays"`
}

// Plays lists every plate appearance so far.
type Plays struct {
	AllPlays []Play `json:"allPlays"`
}

// Play is one plate appearance.
type Play struct {
	About      About       `json:"about"`
	Matchup    Matchup     `json:"matchup"`
	PlayEvents []PlayEvent `json:"playEvents"`
}

// About locates a play in the game.
type About struct {
	Inning     *int   `json:"inning"`
	HalfInning string `json:"halfInning"`
}

// Matchup names the batter and pitcher of a play.
type Matchup struct {
	Batter  PlayerRef `json:"batter"`
	Pitcher PlayerRef `json:"pitcher"`
	BatSide *Code     `json:"batSide"`
}

// PlayerRef is a lightweight player reference.
type PlayerRef struct {
	ID       int    `json:"id"`
	FullName string `json:"fullName"`
}

// PlayEvent is one event within a play: a pitch, pickoff, substitution, etc.
type PlayEvent struct {
	IsPitch   *bool        `json:"isPitch"`
	Details   EventDetails `json:"details"`
	Count     Count        `json:"count"`
	PitchData PitchData    `json:"pitchData"`
}

// Pitch reports whether the event is a pitch.
func (e PlayEvent) Pitch() bool { return e.IsPitch != nil && *e.IsPitch }

// EventDetails describes the event's outcome.
type EventDetails struct {
	Description string `json:"description"`
	Call        Code   `json:"call"`
	Type        Code   `json:"type"`
	IsInPlay    bool   `json:"isInPlay"`
	IsStrike    bool   `json:"isStrike"`
	IsBall      bool   `json:"isBall"`
}

// Count is the ball-strike count after the event.
type Count struct {
	Balls   int `json:"balls"`
	Strikes int `json:"strikes"`
	Outs    int `json:"outs"`
}

// PitchData is the tracking data for one pitch.
type PitchData struct {
	StartSpeed  *float64    `json:"startSpeed"`
	EndSpeed    *float64    `json:"endSpeed"`
	Extension   *float64    `json:"extension"`
	PlateTime   *float64    `json:"plateTime"`
	Zone        *float64    `json:"zone"`
	Coordinates Coordinates `json:"coordinates"`
	Breaks      Breaks      `json:"breaks"`
}

// Coordinates holds the 9-parameter trajectory fit plus plate and release
// locations, in feet.
type Coordinates struct {
	AX  *float64 `json:"aX"`
	AY  *float64 `json:"aY"`
	AZ  *float64 `json:"aZ"`
	VX0 *float64 `json:"vX0"`
	VY0 *float64 `json:"vY0"`
	VZ0 *float64 `json:"vZ0"`
	X0  *float64 `json:"x0"`
	Y0  *float64 `json:"y0"`
	Z0  *float64 `json:"z0"`
	PX  *float64 `json:"pX"`
	PZ  *float64 `json:"pZ"`
}

// Breaks holds spin and break measurements.
type Breaks struct {
	SpinRate             *float64 `json:"spinRate"`
	SpinDirection        *float64 `json:"spinDirection"`
	BreakVerticalInduced *float64 `json:"breakVerticalInduced"`
	BreakHorizontal      *float64 `json:"breakHorizontal"`
}
