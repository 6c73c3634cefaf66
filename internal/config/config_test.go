package config_test

import (
	"testing"
	"time"

	"github.com/okian/teampulse/internal/config"
	"github.com/okian/teampulse/internal/domain/rules"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 0)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.Store.Driver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.Renderer.Provider, convey.ShouldEqual, config.ProviderTemplate)
			convey.So(cfg.Auth.Enabled, convey.ShouldBeFalse)
			convey.So(cfg.Thresholds, convey.ShouldResemble, rules.Defaults())
		})

		convey.Convey("Then durations are derived from the raw fields", func() {
			convey.So(cfg.RefreshInterval(), convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.Auth.TokenTTL(), convey.ShouldEqual, 24*time.Hour)
			convey.So(cfg.Renderer.Timeout(), convey.ShouldEqual, 3*time.Second)
		})

		convey.Convey("Then the defaults validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
