package rules

import (
	"errors"
	"testing"

	"github.com/okian/teampulse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestThresholdsValidate(t *testing.T) {
	Convey("Given the default thresholds", t, func() {
		th := Defaults()

		Convey("Then they validate", func() {
			So(th.Validate(), ShouldBeNil)
			So(th.ImbalanceThreshold, ShouldEqual, 0.6)
			So(th.InactivityLookbackDays, ShouldEqual, 3)
		})

		cases := []struct {
			name   string
			mutate func(*Thresholds)
		}{
			{"zero imbalance threshold", func(t *Thresholds) { t.ImbalanceThreshold = 0 }},
			{"imbalance threshold above one", func(t *Thresholds) { t.ImbalanceThreshold = 1.2 }},
			{"zero lookback", func(t *Thresholds) { t.InactivityLookbackDays = 0 }},
			{"negative overload floor", func(t *Thresholds) { t.OverloadHoursFloor = -1 }},
			{"ceiling above floor", func(t *Thresholds) { t.UnderutilizedHoursCeiling = 6 }},
			{"zero fair load ratio", func(t *Thresholds) { t.FairLoadRatio = 0 }},
			{"zero good work hours", func(t *Thresholds) { t.GoodWorkHours = 0 }},
			{"penalty above one", func(t *Thresholds) { t.HighAlertPenalty = 1.5 }},
			{"inverted status bands", func(t *Thresholds) { t.HealthyScore = 0.9 }},
			{"single alert escalates critical", func(t *Thresholds) { t.CriticalHighAlerts = 1 }},
			{"zero excerpt", func(t *Thresholds) { t.EscalationExcerptRunes = 0 }},
			{"participation floor above one", func(t *Thresholds) { t.ParticipationFloor = 2 }},
		}
		for _, tc := range cases {
			tc := tc
			Convey("When "+tc.name, func() {
				bad := Defaults()
				tc.mutate(&bad)
				err := bad.Validate()

				Convey("Then it is a configuration error", func() {
					So(err, ShouldNotBeNil)
					So(errors.Is(err, ErrInvalidThreshold), ShouldBeTrue)
					So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
				})
			})
		}

		Convey("When the imbalance threshold is exactly one", func() {
			th.ImbalanceThreshold = 1

			Convey("Then it is accepted", func() {
				So(th.Validate(), ShouldBeNil)
			})
		})
	})
}
