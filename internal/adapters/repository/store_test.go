package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/teampulse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var base = time.Date(2024, 11, 6, 9, 0, 0, 0, time.UTC)

func stores(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore(WithHistoryLimit(3)) },
		"sqlite": func() Store {
			s, err := OpenSQLite(":memory:", WithHistoryLimit(3))
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			return s
		},
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, open := range stores(t) {
		Convey("Given a "+name+" store with one group", t, func() {
			s := open()
			defer s.Close()

			g := model.GroupDescriptor{
				ID:       "Group_A",
				Name:     "Web Development Team",
				Project:  "E-commerce Platform",
				Members:  []string{"Alice", "Bob", "Charlie"},
				Deadline: base.Add(30 * 24 * time.Hour),
				Status:   model.StatusAtRisk,
			}
			So(s.PutGroup(ctx, g), ShouldBeNil)
			So(s.PutGroup(ctx, model.GroupDescriptor{ID: "Group_B", Members: []string{"Eve"}, Status: model.StatusHealthy}), ShouldBeNil)

			Convey("Then groups round-trip and list by id", func() {
				got, err := s.Group(ctx, "Group_A")
				So(err, ShouldBeNil)
				So(got.Name, ShouldEqual, g.Name)
				So(got.Members, ShouldResemble, g.Members)
				So(got.Status, ShouldEqual, model.StatusAtRisk)
				So(got.Deadline.Equal(g.Deadline), ShouldBeTrue)

				all, err := s.Groups(ctx)
				So(err, ShouldBeNil)
				So(len(all), ShouldEqual, 2)
				So(all[0].ID, ShouldEqual, "Group_A")
				So(all[1].ID, ShouldEqual, "Group_B")
			})

			Convey("Then unknown groups are not found", func() {
				_, err := s.Group(ctx, "nope")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
				So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
			})

			Convey("Then a student resolves to their group", func() {
				got, err := s.GroupForStudent(ctx, "Bob")
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, "Group_A")

				_, err = s.GroupForStudent(ctx, "Mallory")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})

			Convey("Then students round-trip", func() {
				So(s.PutStudent(ctx, model.Student{ID: "Alice", Name: "Alice", Email: "alice@example.edu"}), ShouldBeNil)
				st, err := s.Student(ctx, "Alice")
				So(err, ShouldBeNil)
				So(st.Email, ShouldEqual, "alice@example.edu")

				_, err = s.Student(ctx, "Zed")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})

			Convey("When contributions are added", func() {
				So(s.AddContribution(ctx, model.ContributionRecord{ID: "c1", StudentID: "Alice", GroupID: "Group_A", Task: "API", Action: "Coding", Hours: 2.5, Timestamp: base}), ShouldBeNil)
				So(s.AddContribution(ctx, model.ContributionRecord{ID: "c2", StudentID: "Bob", GroupID: "Group_A", Task: "UI", Hours: 1, Timestamp: base.Add(time.Hour)}), ShouldBeNil)
				So(s.AddContribution(ctx, model.ContributionRecord{ID: "c3", StudentID: "Eve", GroupID: "Group_B", Task: "ETL", Hours: 3, Timestamp: base}), ShouldBeNil)

				Convey("Then filters select by group and student in insertion order", func() {
					byGroup, err := s.Contributions(ctx, ContributionFilter{GroupID: "Group_A"})
					So(err, ShouldBeNil)
					So(len(byGroup), ShouldEqual, 2)
					So(byGroup[0].ID, ShouldEqual, "c1")
					So(byGroup[0].Hours, ShouldEqual, 2.5)
					So(byGroup[0].Timestamp.Equal(base), ShouldBeTrue)

					byStudent, err := s.Contributions(ctx, ContributionFilter{StudentID: "Eve"})
					So(err, ShouldBeNil)
					So(len(byStudent), ShouldEqual, 1)

					all, err := s.Contributions(ctx, ContributionFilter{})
					So(err, ShouldBeNil)
					So(len(all), ShouldEqual, 3)
				})

				Convey("Then a repeated id conflicts", func() {
					err := s.AddContribution(ctx, model.ContributionRecord{ID: "c1", StudentID: "Alice", Timestamp: base})
					So(errors.Is(err, ErrConflict), ShouldBeTrue)
				})

				Convey("Then a removed contribution disappears", func() {
					So(s.RemoveContribution(ctx, "c2"), ShouldBeNil)
					left, err := s.Contributions(ctx, ContributionFilter{GroupID: "Group_A"})
					So(err, ShouldBeNil)
					So(len(left), ShouldEqual, 1)
					So(errors.Is(s.RemoveContribution(ctx, "c2"), ErrNotFound), ShouldBeTrue)
				})
			})

			Convey("Then milestones and communications keep insertion order", func() {
				So(s.AddMilestone(ctx, model.MilestoneRecord{GroupID: "Group_A", Name: "Testing & QA", DueDate: base.Add(72 * time.Hour), Status: model.MilestoneNotStarted}), ShouldBeNil)
				So(s.AddMilestone(ctx, model.MilestoneRecord{GroupID: "Group_A", Name: "Requirements", DueDate: base, Status: model.MilestoneCompleted}), ShouldBeNil)
				ms, err := s.Milestones(ctx, "Group_A")
				So(err, ShouldBeNil)
				So(len(ms), ShouldEqual, 2)
				So(ms[0].Name, ShouldEqual, "Testing & QA")
				So(ms[1].Status, ShouldEqual, model.MilestoneCompleted)

				So(s.AddCommunication(ctx, model.CommunicationRecord{GroupID: "Group_A", Sender: "Alice", Recipient: "Bob", Message: "Need help ASAP", Tone: model.ToneUrgent, Timestamp: base}), ShouldBeNil)
				cs, err := s.Communications(ctx, "Group_A")
				So(err, ShouldBeNil)
				So(len(cs), ShouldEqual, 1)
				So(cs[0].Tone, ShouldEqual, model.ToneUrgent)

				none, err := s.Milestones(ctx, "Group_B")
				So(err, ShouldBeNil)
				So(none, ShouldBeEmpty)
			})

			Convey("Then LoadSnapshot bundles a group's records", func() {
				So(s.AddContribution(ctx, model.ContributionRecord{ID: "c9", StudentID: "Alice", GroupID: "Group_A", Hours: 1, Timestamp: base}), ShouldBeNil)
				So(s.AddMilestone(ctx, model.MilestoneRecord{GroupID: "Group_A", Name: "Design", DueDate: base, Status: model.MilestoneInProgress}), ShouldBeNil)

				snap, err := LoadSnapshot(ctx, s, "Group_A")
				So(err, ShouldBeNil)
				So(snap.Group.ID, ShouldEqual, "Group_A")
				So(len(snap.Contributions), ShouldEqual, 1)
				So(len(snap.Milestones), ShouldEqual, 1)

				_, err = LoadSnapshot(ctx, s, "nope")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})

			Convey("Then health history is newest first and pruned to the limit", func() {
				for i := 0; i < 5; i++ {
					So(s.SaveHealthSnapshot(ctx, model.HealthSnapshot{
						ID:          string(rune('a' + i)),
						GroupID:     "Group_A",
						HealthScore: float64(i) / 10,
						Status:      model.StatusAtRisk,
						RecordedAt:  base.Add(time.Duration(i) * time.Minute),
					}), ShouldBeNil)
				}

				h, err := s.HealthHistory(ctx, "Group_A", 0)
				So(err, ShouldBeNil)
				So(len(h), ShouldEqual, 3)
				So(h[0].ID, ShouldEqual, "e")
				So(h[2].ID, ShouldEqual, "c")

				h, err = s.HealthHistory(ctx, "Group_A", 1)
				So(err, ShouldBeNil)
				So(len(h), ShouldEqual, 1)
				So(h[0].HealthScore, ShouldEqual, 0.4)

				_, err = s.HealthHistory(ctx, "Group_A", -1)
				So(errors.Is(err, ErrInvalidLimit), ShouldBeTrue)

				empty, err := s.HealthHistory(ctx, "Group_B", 0)
				So(err, ShouldBeNil)
				So(empty, ShouldBeEmpty)
			})
		})
	}
}

func TestOpen(t *testing.T) {
	Convey("Given the store drivers", t, func() {
		Convey("Then memory and sqlite open and unknown drivers fail", func() {
			m, err := Open(DriverMemory, "")
			So(err, ShouldBeNil)
			So(m.Close(), ShouldBeNil)

			path := filepath.Join(t.TempDir(), "data", "teampulse.db")
			s, err := Open(DriverSQLite, path)
			So(err, ShouldBeNil)
			So(s.PutGroup(context.Background(), model.GroupDescriptor{ID: "g"}), ShouldBeNil)
			So(s.Close(), ShouldBeNil)

			reopened, err := Open(DriverSQLite, path)
			So(err, ShouldBeNil)
			g, err := reopened.Group(context.Background(), "g")
			So(err, ShouldBeNil)
			So(g.ID, ShouldEqual, "g")
			So(reopened.Close(), ShouldBeNil)

			_, err = Open("postgres", "")
			So(errors.Is(err, ErrUnknownDriver), ShouldBeTrue)
		})
	})
}
