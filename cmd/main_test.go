package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/teampulse/internal/config"
	"github.com/okian/teampulse/internal/domain/model"
	"github.com/okian/teampulse/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestBuilders(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		cfg := config.New()

		convey.Convey("When auth is built", func() {
			auth, err := buildAuth(cfg)

			convey.Convey("Then it is disabled", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(auth.Enabled(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When auth is enabled with a secret", func() {
			cfg.Auth.Enabled = true
			cfg.Auth.JWTSecret = "0123456789abcdef"
			auth, err := buildAuth(cfg)

			convey.Convey("Then tokens can be issued", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(auth.Enabled(), convey.ShouldBeTrue)
				tok, err := auth.Issue("prof", model.RoleInstructor)
				convey.So(err, convey.ShouldBeNil)
				convey.So(tok, convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When auth is enabled without a secret", func() {
			cfg.Auth.Enabled = true
			_, err := buildAuth(cfg)

			convey.Convey("Then building fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the renderer is built", func() {
			r := buildRenderer(cfg)

			convey.Convey("Then templates are used", func() {
				convey.So(r.Provider(), convey.ShouldEqual, "template")
			})
		})

		convey.Convey("When the ollama renderer is configured", func() {
			cfg.Renderer.Provider = config.ProviderOllama
			r := buildRenderer(cfg)

			convey.Convey("Then ollama is the primary", func() {
				convey.So(r.Provider(), convey.ShouldEqual, "ollama")
			})
		})
	})
}

func TestServiceWiring(t *testing.T) {
	convey.Convey("Given a seeded sqlite configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.Store.Driver = config.DriverSQLite
		cfg.Store.DSN = filepath.Join(t.TempDir(), "teampulse.db")
		cfg.SeedSampleData = true
		cfg.WorkerCount = 2
		cfg.RefreshIntervalSeconds = 0

		svc, err := buildService(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		auth, err := buildAuth(cfg)
		convey.So(err, convey.ShouldBeNil)
		srv := httptest.NewServer(newMux(ctx, svc, auth))
		defer srv.Close()

		get := func(path string) *http.Response {
			resp, err := http.Get(srv.URL + path)
			convey.So(err, convey.ShouldBeNil)
			return resp
		}

		convey.Convey("When the routes are requested", func() {
			convey.Convey("Then docs, probes and analytics answer", func() {
				for _, path := range []string{
					"/livez", "/stats", "/healthz", "/openapi.yaml", "/api-docs",
					"/groups", "/groups/Group_A/report", "/instructor/summary",
					"/students/Alice/nudges",
				} {
					resp := get(path)
					_ = resp.Body.Close()
					convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				}
			})
		})

		convey.Convey("When a contribution is posted", func() {
			resp, err := http.Post(srv.URL+"/contributions", "application/json",
				strings.NewReader(`{"student_id":"Diana","task":"UI Design","hours":2}`))
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()

			convey.Convey("Then it is accepted", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusAccepted)
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		cfg := config.New()
		svc, err := buildService(context.Background(), cfg)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then a single update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(context.Background(), svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loops end with their context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				startServiceMetricsUpdater(ctx, svc)
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("metrics updaters did not stop")
			}
		})
	})
}

func TestRunRejectsBadConfig(t *testing.T) {
	convey.Convey("Given an invalid environment", t, func() {
		_ = os.Setenv("TEAMPULSE_QUEUE_SIZE", "0")
		defer func() { _ = os.Unsetenv("TEAMPULSE_QUEUE_SIZE") }()

		convey.Convey("When run starts", func() {
			err := run(context.Background())

			convey.Convey("Then it fails before serving", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "queue_size")
			})
		})
	})
}
