package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/teampulse/internal/adapters/identity"
	service "github.com/okian/teampulse/internal/app"
	"github.com/okian/teampulse/internal/cli"
	"github.com/okian/teampulse/internal/domain/model"
)

func run(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	root := cli.NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeedAndInspect(t *testing.T) {
	Convey("Given an empty sqlite database", t, func() {
		dsn := filepath.Join(t.TempDir(), "course.db")
		store := []string{"--driver", "sqlite", "--dsn", dsn}
		with := func(args ...string) []string { return append(args, store...) }

		Convey("When seed runs against the memory store", func() {
			_, err := run("seed")

			Convey("Then it refuses", func() {
				So(errors.Is(err, cli.ErrNeedsPersistentStore), ShouldBeTrue)
			})
		})

		Convey("When the sample course is seeded twice", func() {
			out, err := run(with("seed")...)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "seeded 3 groups, 12 students, 36 contributions")
			_, err = run(with("seed")...)
			So(err, ShouldBeNil)

			Convey("Then the overview lists every group once", func() {
				out, err := run(with("report")...)
				So(err, ShouldBeNil)
				So(strings.Count(out, "Group_A"), ShouldEqual, 1)
				So(out, ShouldContainSubstring, "Web Development Team")
				So(out, ShouldContainSubstring, "Mobile App Team")
			})

			Convey("Then a single report decodes as JSON", func() {
				out, err := run(with("report", "Group_C", "--json")...)
				So(err, ShouldBeNil)
				var r service.GroupReport
				So(json.Unmarshal([]byte(out), &r), ShouldBeNil)
				So(r.Group.ID, ShouldEqual, "Group_C")
				So(r.Report.HealthScore, ShouldEqual, 1)
				So(r.Assessment, ShouldNotBeEmpty)
			})

			Convey("Then a single report prints member metrics", func() {
				out, err := run(with("report", "Group_A")...)
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Alice")
				So(out, ShouldContainSubstring, "Diana")
				So(out, ShouldContainSubstring, "never")
			})

			Convey("Then an unknown group is an error", func() {
				_, err := run(with("report", "Group_Z")...)
				So(errors.Is(err, service.ErrUnknownGroup), ShouldBeTrue)
			})

			Convey("Then the feed shows the at-risk group", func() {
				out, err := run(with("feed")...)
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Support Web Development Team")
				So(out, ShouldContainSubstring, "3 groups:")
			})

			Convey("Then nudges resolve the student's group", func() {
				out, err := run(with("nudges", "Alice", "--json")...)
				So(err, ShouldBeNil)
				var n service.StudentNudges
				So(json.Unmarshal([]byte(out), &n), ShouldBeNil)
				So(n.GroupID, ShouldEqual, "Group_A")
			})
		})
	})
}

func TestToken(t *testing.T) {
	Convey("Given the token command", t, func() {
		Convey("When no secret is configured", func() {
			_, err := run("token", "--subject", "Alice")

			Convey("Then it fails", func() {
				So(errors.Is(err, identity.ErrNoSecret), ShouldBeTrue)
			})
		})

		Convey("When the role is unknown", func() {
			_, err := run("token", "--subject", "Alice", "--role", "janitor", "--secret", "s3cret-s3cret")

			Convey("Then it fails", func() {
				So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When a secret is given", func() {
			out, err := run("token", "--subject", "prof", "--role", "instructor", "--secret", "s3cret-s3cret")
			So(err, ShouldBeNil)

			Convey("Then the token verifies with the same secret", func() {
				p, err := identity.NewProvider("s3cret-s3cret")
				So(err, ShouldBeNil)
				id, err := p.Verify(strings.TrimSpace(out))
				So(err, ShouldBeNil)
				So(id.Subject, ShouldEqual, "prof")
				So(id.Role, ShouldEqual, model.RoleInstructor)
			})
		})

		Convey("When the subject is missing", func() {
			_, err := run("token", "--secret", "s3cret-s3cret")

			Convey("Then cobra rejects it", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
