package nudge

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/teampulse/internal/domain/aggregate"
	"github.com/okian/teampulse/internal/domain/model"
	"github.com/okian/teampulse/internal/domain/rules"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC)

func contrib(student string, hours float64, daysAgo int) model.ContributionRecord {
	return model.ContributionRecord{
		StudentID: student,
		Hours:     hours,
		Timestamp: now.Add(-time.Duration(daysAgo)*24*time.Hour - time.Hour),
	}
}

func kinds(nudges []model.Nudge) []model.NudgeKind {
	out := make([]model.NudgeKind, len(nudges))
	for i, n := range nudges {
		out[i] = n.Kind
	}
	return out
}

func TestGenerate(t *testing.T) {
	th := rules.Defaults()
	members := []string{"Alice", "Bob", "Charlie"}
	records := []model.ContributionRecord{
		contrib("Alice", 4, 0),
		contrib("Alice", 3, 1),
		contrib("Bob", 1, 4),
	}
	group := aggregate.Aggregate("Group_A", members, records, now)

	Convey("Given a student with no contributions", t, func() {
		nudges, err := Generate("Charlie", group, nil, th)

		Convey("Then the first-contribution and fair-load nudges fire in order", func() {
			So(err, ShouldBeNil)
			So(kinds(nudges), ShouldResemble, []model.NudgeKind{model.NudgeFirstContribution, model.NudgeFairLoad})
			So(nudges[0].Message, ShouldEqual, "You haven't contributed yet. Your team is working on the project now!")
			So(nudges[1].Message, ShouldEqual, "You've contributed 0 hours while the group average is 2.7 hours. Consider taking on additional tasks?")
			So(nudges[1].Params["hours"], ShouldEqual, "0")
		})
	})

	Convey("Given a student idle past the lookback", t, func() {
		nudges, err := Generate("Bob", group, nil, th)

		Convey("Then re-engage carries the exact day count", func() {
			So(err, ShouldBeNil)
			So(nudges[0].Kind, ShouldEqual, model.NudgeReEngage)
			So(nudges[0].Message, ShouldEqual, "It's been 4 days since you last worked. The team might need your help!")
			So(nudges[0].Params["days"], ShouldEqual, "4")
		})

		Convey("And fair load follows because 1h is under half of the average", func() {
			So(kinds(nudges), ShouldResemble, []model.NudgeKind{model.NudgeReEngage, model.NudgeFairLoad})
		})
	})

	Convey("Given a heavy, recent contributor", t, func() {
		nudges, err := Generate("Alice", group, nil, th)

		Convey("Then only positive reinforcement fires", func() {
			So(err, ShouldBeNil)
			So(kinds(nudges), ShouldResemble, []model.NudgeKind{model.NudgeGoodWork})
			So(nudges[0].Message, ShouldEqual, "Great work! You've contributed 7 hours. Keep the momentum!")
			So(nudges[0].Icon, ShouldEqual, "⭐")
		})
	})

	Convey("Given open milestones", t, func() {
		ms := []model.MilestoneRecord{
			{Name: "Done", DueDate: now.Add(-48 * time.Hour), Status: model.MilestoneCompleted},
			{Name: "Testing & QA", DueDate: time.Date(2024, 12, 18, 0, 0, 0, 0, time.UTC), Status: model.MilestoneNotStarted},
			{Name: "Core Features", DueDate: time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), Status: model.MilestoneInProgress},
			{Name: "Core Tie", DueDate: time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), Status: model.MilestoneNotStarted},
		}
		nudges, err := Generate("Alice", group, ms, th)

		Convey("Then the deadline nudge names the nearest open milestone, ties to input order", func() {
			So(err, ShouldBeNil)
			So(kinds(nudges), ShouldResemble, []model.NudgeKind{model.NudgeGoodWork, model.NudgeDeadline})
			So(nudges[1].Message, ShouldEqual, "'Core Features' is due 2024-12-15. Current status: In Progress")
			So(nudges[1].Params["milestone"], ShouldEqual, "Core Features")
		})
	})

	Convey("Given a steady, moderate contributor", t, func() {
		g := aggregate.Aggregate("g", []string{"a", "b"},
			[]model.ContributionRecord{contrib("a", 2, 0), contrib("b", 2, 1)}, now)
		nudges, err := Generate("a", g, []model.MilestoneRecord{{Name: "x", Status: model.MilestoneCompleted}}, th)

		Convey("Then exactly one all-good nudge is returned", func() {
			So(err, ShouldBeNil)
			So(len(nudges), ShouldEqual, 1)
			So(nudges[0].Kind, ShouldEqual, model.NudgeAllGood)
			So(nudges[0].SuggestedAction, ShouldEqual, "Continue with current tasks")
		})
	})

	Convey("Given a student outside the group", t, func() {
		_, err := Generate("Mallory", group, nil, th)

		Convey("Then it is rejected as invalid input", func() {
			So(errors.Is(err, ErrUnknownStudent), ShouldBeTrue)
			So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
		})
	})

	Convey("Given every member across several groups", t, func() {
		groups := []model.GroupMetrics{
			group,
			aggregate.Aggregate("empty", []string{"x", "y"}, nil, now),
			aggregate.Aggregate("even", []string{"p", "q"}, []model.ContributionRecord{contrib("p", 3, 0), contrib("q", 3, 10)}, now),
		}

		Convey("Then no member ever receives an empty list", func() {
			for _, g := range groups {
				for _, s := range g.Students {
					nudges, err := Generate(s.StudentID, g, nil, th)
					So(err, ShouldBeNil)
					So(nudges, ShouldNotBeEmpty)
				}
			}
		})
	})
}

func TestFormatHours(t *testing.T) {
	Convey("Hours drop trailing zeros", t, func() {
		So(FormatHours(7), ShouldEqual, "7")
		So(FormatHours(1.5), ShouldEqual, "1.5")
		So(FormatHours(0), ShouldEqual, "0")
	})
}
