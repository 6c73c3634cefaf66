package simulate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/teampulse/internal/adapters/http/api"
	"github.com/okian/teampulse/internal/adapters/identity"
	"github.com/okian/teampulse/internal/adapters/repository"
	service "github.com/okian/teampulse/internal/app"
	"github.com/okian/teampulse/internal/domain/model"
	"github.com/okian/teampulse/internal/sampledata"
	"github.com/okian/teampulse/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestGenerator(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
		members := []member{{"Alice", "Group_A"}, {"Bob", "Group_A"}, {"Eve", "Group_B"}}

		Convey("When the same seed runs twice", func() {
			a := newGenerator(42, now).generate(members, 50, 0.1, "r")
			b := newGenerator(42, now).generate(members, 50, 0.1, "r")

			Convey("Then the output is identical", func() {
				So(a, ShouldResemble, b)
			})
		})

		Convey("When contributions are generated", func() {
			items := newGenerator(7, now).generate(members, 200, 0, "r")

			Convey("Then each is well formed and within two weeks", func() {
				So(items, ShouldHaveLength, 200)
				ids := map[string]bool{}
				for _, it := range items {
					So(it.Hours, ShouldBeGreaterThan, 0)
					So(it.Hours, ShouldBeLessThanOrEqualTo, 8)
					So(it.Task, ShouldNotBeEmpty)
					ts, err := time.Parse(time.RFC3339, it.Timestamp)
					So(err, ShouldBeNil)
					So(ts.After(now.Add(-15*24*time.Hour)), ShouldBeTrue)
					So(ts.After(now), ShouldBeFalse)
					ids[it.ID] = true
				}
				So(ids, ShouldHaveLength, 200)
			})
		})

		Convey("When a duplicate rate is set", func() {
			items := newGenerator(9, now).generate(members, 400, 0.25, "r")
			ids := map[string]bool{}
			for _, it := range items {
				ids[it.ID] = true
			}

			Convey("Then some ids repeat", func() {
				So(len(ids), ShouldBeLessThan, 400)
				So(len(ids), ShouldBeGreaterThan, 200)
			})
		})

		Convey("When there are no members", func() {
			Convey("Then nothing is generated", func() {
				So(newGenerator(1, now).generate(nil, 10, 0, "r"), ShouldBeEmpty)
			})
		})
	})
}

func TestRosterAndConfig(t *testing.T) {
	Convey("Given two groups", t, func() {
		groups := []model.GroupDescriptor{
			{ID: "Group_A", Members: []string{"Alice", "Bob"}},
			{ID: "Group_B", Members: []string{"Eve"}},
		}

		Convey("Then the roster keeps group order and honors the limit", func() {
			So(roster(groups, 0), ShouldResemble, []member{{"Alice", "Group_A"}, {"Bob", "Group_A"}, {"Eve", "Group_B"}})
			So(roster(groups, 2), ShouldHaveLength, 2)
		})
	})

	Convey("Given invalid configs", t, func() {
		bad := []Config{
			{Contributions: -1},
			{Students: -2},
			{DuplicateRate: 1},
			{DuplicateRate: -0.1},
		}

		Convey("Then each is rejected", func() {
			for _, cfg := range bad {
				_, err := Run(context.Background(), cfg)
				So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
			}
		})
	})
}

func newServer(t *testing.T, auth *identity.Provider) (*httptest.Server, *service.Service) {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	if err := sampledata.Load(ctx, store, sampledata.Build(time.Now())); err != nil {
		t.Fatal(err)
	}
	svc := service.New(
		service.WithStore(store),
		service.WithWorkerCount(4),
		service.WithQueueSize(1000),
	)
	if err := svc.Start(ctx); err != nil {
		t.Fatal(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc, auth).Register(ctx, mux)
	return httptest.NewServer(mux), svc
}

func TestRunAgainstServer(t *testing.T) {
	Convey("Given a running seeded server", t, func() {
		srv, svc := newServer(t, nil)
		defer srv.Close()
		defer svc.Stop()

		Convey("When a simulation runs", func() {
			stats, err := Run(context.Background(), Config{
				BaseURL:       srv.URL,
				Contributions: 120,
				DuplicateRate: 0.1,
				Workers:       6,
				Settle:        5 * time.Second,
				Seed:          99,
			})

			Convey("Then every submission is answered and analytics verify", func() {
				So(err, ShouldBeNil)
				So(stats.Groups, ShouldEqual, 3)
				So(stats.Students, ShouldEqual, 12)
				So(stats.Submitted, ShouldEqual, 120)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.Accepted+stats.Duplicate+stats.Rejected, ShouldEqual, 120)
				So(stats.Duplicate, ShouldBeGreaterThan, 0)
				So(stats.ReportsFetched, ShouldEqual, 3)
				So(stats.SnapshotsSeen, ShouldBeGreaterThan, 0)
			})
		})
	})

	Convey("Given a server with auth enabled", t, func() {
		auth, err := identity.NewProvider("simulation-secret-123")
		So(err, ShouldBeNil)
		srv, svc := newServer(t, auth)
		defer srv.Close()
		defer svc.Stop()

		Convey("When the simulation has no token", func() {
			_, err := Run(context.Background(), Config{BaseURL: srv.URL, Contributions: 5, Seed: 1})

			Convey("Then listing groups fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "401")
			})
		})

		Convey("When the simulation carries a staff token", func() {
			token, err := auth.Issue("prof", model.RoleInstructor)
			So(err, ShouldBeNil)
			stats, err := Run(context.Background(), Config{
				BaseURL: srv.URL, Token: token, Contributions: 20, Students: 4, Seed: 3, Settle: 5 * time.Second,
			})

			Convey("Then it completes with the limited roster", func() {
				So(err, ShouldBeNil)
				So(stats.Students, ShouldEqual, 4)
				So(stats.Failed, ShouldEqual, 0)
			})
		})
	})
}
