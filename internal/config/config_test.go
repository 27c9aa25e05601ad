package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"empath/internal/config"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given a default Config", t, func() {
		cfg := config.New()

		Convey("Then the defaults should be sensible", func() {
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.TrialType, ShouldEqual, "vid")
			So(cfg.LogPattern, ShouldEqual, "UCLAEmpAcc")
			So(cfg.RatingsTable, ShouldEqual, "EA-timing.csv")
			So(cfg.DurationsTable, ShouldEqual, "EA-vid-lengths.csv")
			So(cfg.RunsPerSubject, ShouldEqual, 3)
			So(cfg.WorkerCount, ShouldBeGreaterThan, 0)
			So(cfg.Validate(), ShouldBeNil)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given the loader", t, func() {
		ctx := context.Background()

		Convey("When no file or env overrides are present", func() {
			t.Setenv("EMPATH_CONFIG", "")
			cfg, err := config.Load(ctx)

			So(err, ShouldBeNil)
			So(cfg.TrialType, ShouldEqual, "vid")
		})

		Convey("When env overrides are present", func() {
			t.Setenv("EMPATH_CONFIG", "")
			t.Setenv("EMPATH_TRIAL_TYPE", "cvid")
			t.Setenv("EMPATH_WORKER_COUNT", "2")

			cfg, err := config.Load(ctx)

			So(err, ShouldBeNil)
			So(cfg.TrialType, ShouldEqual, "cvid")
			So(cfg.WorkerCount, ShouldEqual, 2)
		})

		Convey("When a YAML file is provided", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "empath.yaml")
			yaml := "data_dir: /study/data\nassets_dir: /study/assets\nruns_per_subject: 2\n"
			So(os.WriteFile(path, []byte(yaml), 0o600), ShouldBeNil)
			t.Setenv("EMPATH_CONFIG", path)

			cfg, err := config.Load(ctx)

			So(err, ShouldBeNil)
			So(cfg.DataDir, ShouldEqual, "/study/data")
			So(cfg.AssetsDir, ShouldEqual, "/study/assets")
			So(cfg.RunsPerSubject, ShouldEqual, 2)
		})

		Convey("When an override is invalid", func() {
			t.Setenv("EMPATH_CONFIG", "")
			t.Setenv("EMPATH_DATA_DIR", "")

			_, err := config.Load(ctx)

			So(err, ShouldNotBeNil)
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the config file is missing", func() {
			t.Setenv("EMPATH_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

			_, err := config.Load(ctx)

			So(err, ShouldNotBeNil)
			So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
		})
	})
}
