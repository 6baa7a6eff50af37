package physics_test

import (
	"math"
	"testing"

	"github.com/okian/pitchtrack/internal/domain/physics"
	. "github.com/smartystreets/goconvey/convey"
)

func f(v float64) *float64 { return &v }

func kin(ax, ay, az, vy0, y0 float64) physics.Kinematics {
	return physics.Kinematics{AX: f(ax), AY: f(ay), AZ: f(az), VY0: f(vy0), Y0: f(y0)}
}

func TestDeriveMovement(t *testing.T) {
	Convey("Given a typical fastball with no horizontal acceleration", t, func() {
		m := physics.DeriveMovement(kin(0, -20, -10, -130, 50))

		Convey("Then movement should be derived", func() {
			So(m.Outcome, ShouldEqual, physics.OutcomeDerived)
			So(m.Derived(), ShouldBeTrue)
			So(*m.FlightTime, ShouldBeGreaterThan, 0)
			So(*m.FlightTime, ShouldBeLessThan, 1)
		})

		Convey("Then horizontal movement should be exactly zero", func() {
			So(*m.PfxX, ShouldEqual, 0)
		})

		Convey("Then vertical movement should be positive", func() {
			So(*m.PfxZ, ShouldBeGreaterThan, 0)
		})

		Convey("Then the values should follow the constant-acceleration model", func() {
			disc := 130.0*130.0 + 2*(-20.0)*(physics.PlateFront-50)
			want := (-math.Sqrt(disc) + 130) / -20
			So(*m.FlightTime, ShouldAlmostEqual, want, 1e-12)
			So(*m.PfxZ, ShouldAlmostEqual, (-10+physics.Gravity)/2*want*want, 1e-12)
		})
	})

	Convey("Given a pitch with horizontal acceleration", t, func() {
		m := physics.DeriveMovement(kin(-12, -25, -20, -135, 50))

		Convey("Then pfx_x should carry the sign of ax", func() {
			So(m.Outcome, ShouldEqual, physics.OutcomeDerived)
			So(*m.PfxX, ShouldBeLessThan, 0)
		})
	})

	Convey("Given kinematics with missing inputs", t, func() {
		base := kin(1, -20, -10, -130, 50)
		cases := map[string]physics.Kinematics{
			"ax":  {AY: base.AY, AZ: base.AZ, VY0: base.VY0},
			"ay":  {AX: base.AX, AZ: base.AZ, VY0: base.VY0},
			"az":  {AX: base.AX, AY: base.AY, VY0: base.VY0},
			"vy0": {AX: base.AX, AY: base.AY, AZ: base.AZ},
		}

		for name, k := range cases {
			m := physics.DeriveMovement(k)

			Convey("Then missing "+name+" should yield no movement rather than zero", func() {
				So(m.Outcome, ShouldEqual, physics.OutcomeMissingInput)
				So(m.PfxX, ShouldBeNil)
				So(m.PfxZ, ShouldBeNil)
				So(m.FlightTime, ShouldBeNil)
			})
		}
	})

	Convey("Given kinematics without y0", t, func() {
		k := kin(0, -20, -10, -130, 0)
		k.Y0 = nil
		withDefault := physics.DeriveMovement(kin(0, -20, -10, -130, physics.DefaultY0))

		Convey("Then y0 should fall back to 50 ft", func() {
			m := physics.DeriveMovement(k)
			So(m.Outcome, ShouldEqual, physics.OutcomeDerived)
			So(*m.PfxZ, ShouldEqual, *withDefault.PfxZ)
		})
	})

	Convey("Given a negative discriminant", t, func() {
		m := physics.DeriveMovement(kin(0, 0.001, -10, 0, 40))

		Convey("Then the trajectory should be degenerate", func() {
			So(m.Outcome, ShouldEqual, physics.OutcomeDegenerate)
			So(m.PfxX, ShouldBeNil)
			So(m.PfxZ, ShouldBeNil)
		})
	})

	Convey("Given zero acceleration along y", t, func() {
		m := physics.DeriveMovement(kin(0, 0, -10, -130, 50))

		Convey("Then the trajectory should be degenerate", func() {
			So(m.Outcome, ShouldEqual, physics.OutcomeDegenerate)
			So(m.PfxZ, ShouldBeNil)
		})
	})

	Convey("Given a flight time of at least one second", t, func() {
		m := physics.DeriveMovement(kin(0, 5, -10, -40, 50))

		Convey("Then the solution should be implausible", func() {
			So(m.Outcome, ShouldEqual, physics.OutcomeImplausible)
			So(m.PfxX, ShouldBeNil)
			So(m.PfxZ, ShouldBeNil)
		})
	})

	Convey("Given a release point behind the plate", t, func() {
		t0, ok := physics.FlightTime(-130, 20, 0)
		m := physics.DeriveMovement(kin(0, 20, -10, -130, 0))

		Convey("Then the negative flight time should be implausible", func() {
			So(ok, ShouldBeTrue)
			So(t0, ShouldBeLessThan, 0)
			So(m.Outcome, ShouldEqual, physics.OutcomeImplausible)
			So(m.PfxZ, ShouldBeNil)
		})
	})

	Convey("Given the same kinematics twice", t, func() {
		k := kin(3, -22, -15, -128, 52)

		Convey("Then the derivation should be deterministic", func() {
			So(physics.DeriveMovement(k), ShouldResemble, physics.DeriveMovement(k))
		})
	})
}
