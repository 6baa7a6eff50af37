// Package normalize maps upstream pitch payloads onto pitch.PitchRecord.
//
// Both mappers are deterministic: the same input always yields the same
// record. Values the upstream does not carry stay nil.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/okian/pitchtrack/internal/adapters/upstream/savant"
	"github.com/okian/pitchtrack/internal/adapters/upstream/statsapi"
	"github.com/okian/pitchtrack/internal/domain/physics"
	"github.com/okian/pitchtrack/internal/domain/pitch"
	"github.com/okian/pitchtrack/pkg/metrics"
)

// defaultBatterHand is reported when the feed omits the batter's side.
const defaultBatterHand = "R"

// Number parses a CSV cell. Empty, unparsable and non-finite values yield nil.
func Number(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// FromLiveEvent builds the seq-th record of a response from a pitch event of
// play. Movement is derived from the event's trajectory fit.
func FromLiveEvent(seq int, play statsapi.Play, ev statsapi.PlayEvent) pitch.PitchRecord {
	pd := ev.PitchData
	co := pd.Coordinates

	mv := physics.DeriveMovement(physics.Kinematics{
		AX: co.AX, AY: co.AY, AZ: co.AZ,
		VX0: co.VX0, VY0: co.VY0, VZ0: co.VZ0,
		Y0: co.Y0,
	})
	metrics.RecordMovementDerivation(string(mv.Outcome))

	hand := defaultBatterHand
	if bs := play.Matchup.BatSide; bs != nil && bs.Code != "" {
		hand = bs.Code
	}

	var inning *float64
	if play.About.Inning != nil {
		inning = pitch.Float(float64(*play.About.Inning))
	}

	return pitch.PitchRecord{
		PitchNumber:      seq,
		PitchType:        ev.Details.Type.Code,
		PitchName:        ev.Details.Type.Description,
		ReleaseSpeed:     pd.StartSpeed,
		PlateX:           co.PX,
		PlateZ:           co.PZ,
		ReleasePosX:      co.X0,
		ReleasePosZ:      co.Z0,
		ReleaseExtension: pd.Extension,
		PfxX:             mv.PfxX,
		PfxZ:             mv.PfxZ,
		MovementSource:   pitch.SourceLiveFeed,
		ReleaseSpinRate:  pd.Breaks.SpinRate,
		Zone:             pd.Zone,
		Description:      ev.Details.Description,
		IsInPlay:         ev.Details.IsInPlay,
		BatterName:       play.Matchup.Batter.FullName,
		Inning:           inning,
		LiveFields: &pitch.LiveFields{
			SpinDirection:        pd.Breaks.SpinDirection,
			Call:                 ev.Details.Call.Description,
			IsStrike:             ev.Details.IsStrike,
			IsBall:               ev.Details.IsBall,
			Count:                strconv.Itoa(ev.Count.Balls) + "-" + strconv.Itoa(ev.Count.Strikes),
			BatterHand:           hand,
			EndSpeed:             pd.EndSpeed,
			PlateTime:            pd.PlateTime,
			FlightTime:           mv.FlightTime,
			BreakVerticalInduced: pd.Breaks.BreakVerticalInduced,
			BreakHorizontal:      pd.Breaks.BreakHorizontal,
		},
	}
}

// FromStatcastRow builds the seq-th record of a response from a CSV row.
func FromStatcastRow(seq int, row savant.Row) pitch.PitchRecord {
	num := func(k string) *float64 { return Number(row[k]) }

	return pitch.PitchRecord{
		PitchNumber:      seq,
		PitchType:        row["pitch_type"],
		PitchName:        row["pitch_name"],
		ReleaseSpeed:     num("release_speed"),
		PlateX:           num("plate_x"),
		PlateZ:           num("plate_z"),
		ReleasePosX:      num("release_pos_x"),
		ReleasePosZ:      num("release_pos_z"),
		ReleaseExtension: num("release_extension"),
		PfxX:             num("pfx_x"),
		PfxZ:             num("pfx_z"),
		MovementSource:   pitch.SourceSavant,
		ReleaseSpinRate:  num("release_spin_rate"),
		Zone:             num("zone"),
		Description:      row["description"],
		IsInPlay:         row["type"] == "X",
		BatterName:       row["player_name"],
		Inning:           num("inning"),
		SavantFields: &pitch.SavantFields{
			SpinAxis:           num("spin_axis"),
			Vx0:                num("vx0"),
			Vy0:                num("vy0"),
			Vz0:                num("vz0"),
			EffectiveSpeed:     num("effective_speed"),
			Events:             row["events"],
			Type:               row["type"],
			LaunchSpeed:        num("launch_speed"),
			LaunchAngle:        num("launch_angle"),
			EstimatedBA:        num("estimated_ba_using_speedangle"),
			EstimatedWOBA:      num("estimated_woba_using_speedangle"),
			EstimatedSLG:       num("estimated_slg_using_speedangle"),
			WOBAValue:          num("woba_value"),
			BattedBallType:     row["bb_type"],
			Stand:              row["stand"],
			PitcherThrows:      row["p_throws"],
			Balls:              row["balls"],
			Strikes:            row["strikes"],
			GameDate:           row["game_date"],
			DeltaRunExpectancy: num("delta_run_exp"),
			BatSpeed:           num("bat_speed"),
			SwingLength:        num("swing_length"),
		},
	}
}
