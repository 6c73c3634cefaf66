package render

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/teampulse/internal/domain/model"
	"github.com/okian/teampulse/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type stubRenderer struct {
	text  string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (s *stubRenderer) Render(ctx context.Context, _ Kind, _ Params) (string, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.err
}

func fullParams() Params {
	return Params{
		ParamStudent:      "Bob",
		ParamDays:         "4",
		ParamHours:        "1",
		ParamGroupAverage: "2.7",
		ParamMilestone:    "Core Features",
		ParamDueDate:      "2024-12-15",
		ParamStatus:       "In Progress",
		ParamGroup:        "Web Development Team",
		ParamScore:        "0.70",
		ParamIssues:       "Alice is overloaded",
	}
}

func TestTemplateRenderer(t *testing.T) {
	ctx := context.Background()
	r := NewTemplateRenderer()

	Convey("Given the deterministic templates", t, func() {
		Convey("Then every kind renders non-empty text", func() {
			for _, k := range Kinds {
				text, err := r.Render(ctx, k, fullParams())
				So(err, ShouldBeNil)
				So(strings.TrimSpace(text), ShouldNotBeEmpty)
			}
		})

		Convey("Then nudge templates reproduce the analyzer wording", func() {
			text, err := r.Render(ctx, KindReEngage, Params{ParamDays: "4"})
			So(err, ShouldBeNil)
			So(text, ShouldEqual, "It's been 4 days since you last worked. The team might need your help!")

			text, err = r.Render(ctx, KindDeadline, Params{ParamMilestone: "Core Features", ParamDueDate: "2024-12-15", ParamStatus: "In Progress"})
			So(err, ShouldBeNil)
			So(text, ShouldEqual, "'Core Features' is due 2024-12-15. Current status: In Progress")
		})

		Convey("Then the group assessment switches on issues", func() {
			p := Params{ParamGroup: "Data Analytics Team", ParamStatus: "Thriving", ParamScore: "1.00", ParamIssues: ""}
			text, err := r.Render(ctx, KindGroupAssessment, p)
			So(err, ShouldBeNil)
			So(text, ShouldContainSubstring, "functioning well")
		})

		Convey("Then a missing parameter or unknown kind fails", func() {
			_, err := r.Render(ctx, KindFairLoad, Params{ParamHours: "1"})
			So(err, ShouldNotBeNil)

			_, err = r.Render(ctx, Kind("haiku"), nil)
			So(errors.Is(err, ErrUnknownKind), ShouldBeTrue)
		})
	})
}

func TestFallback(t *testing.T) {
	ctx := context.Background()

	Convey("Given a healthy primary renderer", t, func() {
		primary := &stubRenderer{text: "Hey Bob, jump back in!"}
		f := NewFallback(primary)

		Convey("Then its text is used", func() {
			text, err := f.Render(ctx, KindReEngage, Params{ParamDays: "4"})
			So(err, ShouldBeNil)
			So(text, ShouldEqual, "Hey Bob, jump back in!")
			So(f.Provider(), ShouldEqual, "custom")
		})
	})

	Convey("Given a failing primary renderer", t, func() {
		f := NewFallback(&stubRenderer{err: ErrUnavailable})

		Convey("Then the template answers and no error escapes", func() {
			text, err := f.Render(ctx, KindReEngage, Params{ParamDays: "4"})
			So(err, ShouldBeNil)
			So(text, ShouldEqual, "It's been 4 days since you last worked. The team might need your help!")
		})
	})

	Convey("Given a primary renderer slower than the timeout", t, func() {
		f := NewFallback(&stubRenderer{text: "late", delay: time.Second}, WithTimeout(20*time.Millisecond))

		Convey("Then the template answers promptly", func() {
			start := time.Now()
			text, err := f.Render(ctx, KindAllGood, nil)
			So(err, ShouldBeNil)
			So(text, ShouldEqual, "You're on track. Keep collaborating with your team.")
			So(time.Since(start), ShouldBeLessThan, 500*time.Millisecond)
		})
	})

	Convey("Given a primary renderer returning blank text", t, func() {
		f := NewFallback(&stubRenderer{text: "   "})

		Convey("Then blank text is treated as a failure", func() {
			text, _ := f.Render(ctx, KindAllGood, nil)
			So(text, ShouldEqual, "You're on track. Keep collaborating with your team.")
		})
	})

	Convey("Given template-only rendering with missing parameters", t, func() {
		f := NewFallback(nil)

		Convey("Then the caller's message is used", func() {
			text, err := f.Render(ctx, KindFairLoad, Params{ParamMessage: "exact analyzer text"})
			So(err, ShouldBeNil)
			So(text, ShouldEqual, "exact analyzer text")
		})

		Convey("Then without a message the default phrase is used", func() {
			text, err := f.Render(ctx, Kind("unknown"), nil)
			So(err, ShouldBeNil)
			So(text, ShouldEqual, DefaultPhrase)
		})

		Convey("Then it reports itself as available", func() {
			So(f.Available(ctx), ShouldBeTrue)
			So(f.Provider(), ShouldEqual, "template")
		})
	})

	Convey("Given a nudge", t, func() {
		n := model.Nudge{Kind: model.NudgeGoodWork, Message: "Great work! You've contributed 7 hours. Keep the momentum!",
			Params: map[string]string{ParamHours: "7"}}

		Convey("Then its params carry the message without aliasing the nudge", func() {
			p := NudgeParams(n)
			So(p[ParamMessage], ShouldEqual, n.Message)
			So(p[ParamHours], ShouldEqual, "7")
			_, leaked := n.Params[ParamMessage]
			So(leaked, ShouldBeFalse)
		})
	})
}

func TestOllamaRenderer(t *testing.T) {
	ctx := context.Background()

	Convey("Given an Ollama server that answers", t, func() {
		var got ollamaRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/tags":
				w.WriteHeader(http.StatusOK)
			case "/api/generate":
				_ = json.NewDecoder(r.Body).Decode(&got)
				_ = json.NewEncoder(w).Encode(ollamaResponse{Model: "llama3.2", Response: "  Keep going, Bob!  "})
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer srv.Close()

		o := NewOllamaRenderer(OllamaConfig{Endpoint: srv.URL + "/", Timeout: time.Second})

		Convey("Then the phrase is trimmed and the request is well formed", func() {
			text, err := o.Render(ctx, KindReEngage, Params{ParamDays: "4", ParamMessage: "skip me"})
			So(err, ShouldBeNil)
			So(text, ShouldEqual, "Keep going, Bob!")
			So(got.Model, ShouldEqual, DefaultOllamaModel)
			So(got.Stream, ShouldBeFalse)
			So(got.System, ShouldEqual, studentSystem)
			So(got.Prompt, ShouldContainSubstring, "- days: 4")
			So(got.Prompt, ShouldNotContainSubstring, "skip me")
			So(got.Options.NumPredict, ShouldEqual, 150)
		})

		Convey("Then it reports itself as available", func() {
			So(o.Available(ctx), ShouldBeTrue)
		})

		Convey("Then unknown kinds are rejected before any call", func() {
			_, err := o.Render(ctx, Kind("haiku"), nil)
			So(errors.Is(err, ErrUnknownKind), ShouldBeTrue)
		})
	})

	Convey("Given an Ollama server that keeps failing", t, func() {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		}))
		defer srv.Close()

		o := NewOllamaRenderer(OllamaConfig{Endpoint: srv.URL, Timeout: time.Second, MaxRetries: 2})

		Convey("Then every attempt is used before giving up", func() {
			_, err := o.Render(ctx, KindAllGood, nil)
			So(errors.Is(err, ErrRetryExhausted), ShouldBeTrue)
			So(errors.Is(err, model.ErrExternalService), ShouldBeTrue)
			So(calls.Load(), ShouldEqual, int32(3))
		})
	})

	Convey("Given an Ollama server that answers too slowly", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()

		o := NewOllamaRenderer(OllamaConfig{Endpoint: srv.URL, Timeout: 30 * time.Millisecond})

		Convey("Then the call times out", func() {
			_, err := o.Render(ctx, KindAllGood, nil)
			So(errors.Is(err, ErrTimeout), ShouldBeTrue)
		})
	})

	Convey("Given no Ollama server at all", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		o := NewOllamaRenderer(OllamaConfig{Endpoint: url, Timeout: time.Second})

		Convey("Then it is unavailable and the fallback still answers", func() {
			So(o.Available(ctx), ShouldBeFalse)
			_, err := o.Render(ctx, KindAllGood, nil)
			So(errors.Is(err, ErrUnavailable), ShouldBeTrue)

			f := NewFallback(o)
			So(f.Available(ctx), ShouldBeFalse)
			So(f.Provider(), ShouldEqual, "ollama")
			text, err := f.Render(ctx, KindAllGood, nil)
			So(err, ShouldBeNil)
			So(text, ShouldEqual, "You're on track. Keep collaborating with your team.")
		})
	})
}
