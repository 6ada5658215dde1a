package config_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/pizarra/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DBDriver, convey.ShouldEqual, config.DriverSQLite)
			convey.So(cfg.MarkerSize, convey.ShouldEqual, 60)
			convey.So(cfg.MobileBreakpoint, convey.ShouldEqual, 768)
			convey.So(cfg.MaxSelection, convey.ShouldEqual, 11)
			convey.So(cfg.DefaultFormation, convey.ShouldEqual, "4-4-2")
			convey.So(cfg.DirectoryPreload, convey.ShouldEqual, 100)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("When the driver is unknown", func() {
			cfg.DBDriver = "oracle"
			err := cfg.Validate()

			convey.Convey("Then validation fails with ErrInvalidConfig", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the memory driver has no dsn", func() {
			cfg.DBDriver = config.DriverMemory
			cfg.DBDSN = ""

			convey.Convey("Then the config is still valid", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When postgres has no dsn", func() {
			cfg.DBDriver = config.DriverPostgres
			cfg.DBDSN = ""

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the marker size is not positive", func() {
			cfg.MarkerSize = 0

			convey.Convey("Then validation fails", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When max selection is zero", func() {
			cfg.MaxSelection = 0

			convey.Convey("Then validation fails", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})
	})
}
