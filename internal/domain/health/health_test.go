package health

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/teampulse/internal/domain/aggregate"
	"github.com/okian/teampulse/internal/domain/detect"
	"github.com/okian/teampulse/internal/domain/model"
	"github.com/okian/teampulse/internal/domain/rules"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC)

func contrib(student string, hours float64) model.ContributionRecord {
	return model.ContributionRecord{StudentID: student, Hours: hours, Timestamp: now.Add(-time.Hour)}
}

func high() model.Alert {
	return model.Alert{Severity: model.SeverityHigh, Payload: model.InactivityPayload{}}
}

func medium() model.Alert {
	return model.Alert{Severity: model.SeverityMedium, Payload: model.UrgencyPayload{Count: 1}}
}

func TestAnalyze(t *testing.T) {
	th := rules.Defaults()

	Convey("Given Alice 7h, Bob 1h and Charlie 0h", t, func() {
		m := aggregate.Aggregate("Group_A", []string{"Alice", "Bob", "Charlie"},
			[]model.ContributionRecord{contrib("Alice", 7), contrib("Bob", 1)}, now)
		alerts := detect.Detect(m, nil, nil, th, now)

		Convey("When analyzed", func() {
			r := Analyze(m, alerts, th, now)

			Convey("Then two high alerts score 0.70 and the group is Healthy", func() {
				So(r.HealthScore, ShouldAlmostEqual, 0.70, 1e-9)
				So(r.Status, ShouldEqual, model.StatusHealthy)
				So(r.GroupID, ShouldEqual, "Group_A")
				So(r.GeneratedAt, ShouldEqual, now)
			})

			Convey("Then Alice's load is suggested for Charlie", func() {
				So(len(r.Suggestions), ShouldEqual, 1)
				So(r.Suggestions[0].From, ShouldEqual, "Alice")
				So(r.Suggestions[0].To, ShouldEqual, "Charlie")
				So(r.Suggestions[0].Message, ShouldEqual, "Move some tasks from Alice to Charlie for better balance.")
				So(r.Suggestions[0].Rationale, ShouldEqual, RebalanceRationale)
			})

			Convey("Then the report survives a JSON round trip", func() {
				b, err := json.Marshal(r)
				So(err, ShouldBeNil)
				var back model.GroupHealthReport
				So(json.Unmarshal(b, &back), ShouldBeNil)
				So(back.HealthScore, ShouldEqual, r.HealthScore)
				So(back.Status, ShouldEqual, r.Status)
				So(len(back.Alerts), ShouldEqual, len(r.Alerts))
				for i := range r.Alerts {
					So(back.Alerts[i].Category(), ShouldEqual, r.Alerts[i].Category())
					So(back.Alerts[i].Message, ShouldEqual, r.Alerts[i].Message)
				}
			})
		})
	})

	Convey("Given four members who have all done nothing", t, func() {
		m := aggregate.Aggregate("g", []string{"Alice", "Bob", "Charlie", "Diana"}, nil, now)
		r := Analyze(m, detect.Detect(m, nil, nil, th, now), th, now)

		Convey("Then the single collapsed inactivity alert leaves the group Thriving", func() {
			So(r.Metrics.ParticipationRate, ShouldEqual, 0)
			So(len(r.Alerts), ShouldEqual, 1)
			So(r.HealthScore, ShouldAlmostEqual, 0.85, 1e-9)
			So(r.Status, ShouldEqual, model.StatusThriving)
			So(r.Suggestions, ShouldBeEmpty)
		})
	})
}

func TestScore(t *testing.T) {
	th := rules.Defaults()

	Convey("Given alert mixes", t, func() {
		So(Score(nil, th), ShouldEqual, 1)
		So(Score([]model.Alert{high(), medium()}, th), ShouldEqual, 0.8)
		So(StatusFor(Score([]model.Alert{high(), medium()}, th), th), ShouldEqual, model.StatusThriving)
		So(Score([]model.Alert{medium(), medium()}, th), ShouldEqual, 0.9)
		So(Score([]model.Alert{high(), high(), high(), high()}, th), ShouldEqual, 0.4)
		So(StatusFor(0.4, th), ShouldEqual, model.StatusAtRisk)
		So(StatusFor(0.5, th), ShouldEqual, model.StatusHealthy)

		Convey("Then the score never goes negative", func() {
			many := make([]model.Alert, 10)
			for i := range many {
				many[i] = high()
			}
			So(Score(many, th), ShouldEqual, 0)
			So(StatusFor(0, th), ShouldEqual, model.StatusAtRisk)
		})

		Convey("Then low-severity alerts are free", func() {
			low := model.Alert{Severity: model.SeverityLow, Payload: model.UrgencyPayload{}}
			So(Score([]model.Alert{low}, th), ShouldEqual, 1)
		})
	})
}

func TestRebalance(t *testing.T) {
	th := rules.Defaults()

	Convey("Given ties at both ends", t, func() {
		m := aggregate.Aggregate("g", []string{"a", "b", "c", "d"}, []model.ContributionRecord{
			contrib("a", 6), contrib("b", 6), contrib("c", 1), contrib("d", 1),
		}, now)

		Convey("Then the first member in input order wins each tie", func() {
			s := Rebalance(m, th)
			So(len(s), ShouldEqual, 1)
			So(s[0].From, ShouldEqual, "a")
			So(s[0].To, ShouldEqual, "c")
		})
	})

	Convey("Given nobody above the overload floor", t, func() {
		m := aggregate.Aggregate("g", []string{"a", "b"}, []model.ContributionRecord{contrib("a", 5), contrib("b", 0.5)}, now)

		Convey("Then no suggestion is made", func() {
			So(Rebalance(m, th), ShouldBeEmpty)
		})
	})

	Convey("Given nobody below the underutilized ceiling", t, func() {
		m := aggregate.Aggregate("g", []string{"a", "b"}, []model.ContributionRecord{contrib("a", 9), contrib("b", 2)}, now)

		Convey("Then no suggestion is made", func() {
			So(Rebalance(m, th), ShouldBeEmpty)
		})
	})
}
