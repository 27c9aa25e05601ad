package eventlog_test

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"empath/internal/domain/eventlog"

	. "github.com/smartystreets/goconvey/convey"
)

func stimLine(trial int, kind, code string, time int64) string {
	return strings.Join([]string{
		"subj01", strconv.Itoa(trial), kind, code,
		strconv.FormatInt(time, 10), "0", "1", "40000", "1", "0", "40000", "other", "0",
	}, "\t")
}

func respLine(trial int, code string, time int64) string {
	return strings.Join([]string{
		"subj01", strconv.Itoa(trial), "Response", code,
		strconv.FormatInt(time, 10), "0", "1",
	}, "\t")
}

func TestParse(t *testing.T) {
	Convey("Given a well-formed behavioral log", t, func() {
		log := strings.Join([]string{
			"Scenario - EA task",   // header, no type marker
			"Event Type\tCode\t..", // column banner, skipped
			stimLine(1, "Picture", "MRI_start", 900),
			respLine(1, "104", 1000),
			stimLine(2, "Video", "vid_1", 3000),
			respLine(3, "102", 21000),
			stimLine(4, "Picture", "rating_7", 22000),
			respLine(5, "103", 41000),
			stimLine(6, "Picture", "rating_3", 42000),
		}, "\n")

		Convey("When parsed", func() {
			l, err := eventlog.Parse(strings.NewReader(log), "test.log")

			Convey("Then the streams are partitioned and anchored", func() {
				So(err, ShouldBeNil)
				So(l.Pictures, ShouldHaveLength, 3)
				So(l.Videos, ShouldHaveLength, 1)
				So(l.Responses, ShouldHaveLength, 3)
				So(l.AnchorTime, ShouldEqual, 1000)
				So(l.Pictures[1].Code, ShouldEqual, "rating_7")
				So(l.Videos[0].Trial, ShouldEqual, 2)
				So(l.Videos[0].Duration, ShouldEqual, 40000)
			})
		})
	})

	Convey("Given a log with repeated response trials", t, func() {
		log := strings.Join([]string{
			stimLine(0, "Picture", "MRI_start", 900),
			respLine(1, "104", 1000),
			respLine(1, "102", 1100),
			respLine(1, "102", 1200),
			respLine(2, "103", 2000),
			respLine(2, "103", 2100),
			respLine(3, "102", 3000),
		}, "\n")

		Convey("When parsed", func() {
			l, err := eventlog.Parse(strings.NewReader(log), "test.log")

			Convey("Then only the first event per trial index is retained, in order", func() {
				So(err, ShouldBeNil)
				So(l.Responses, ShouldHaveLength, 3)
				So(l.Responses[0].Trial, ShouldEqual, 1)
				So(l.Responses[1].Trial, ShouldEqual, 2)
				So(l.Responses[2].Trial, ShouldEqual, 3)
				So(l.Responses[0].Time, ShouldEqual, 1000)
				So(l.Responses[1].Time, ShouldEqual, 2000)
			})
		})
	})

	Convey("Given a log whose first Picture is not the anchor", t, func() {
		log := strings.Join([]string{
			stimLine(1, "Picture", "rating_5", 900),
			respLine(1, "102", 1000),
		}, "\n")

		Convey("When parsed", func() {
			_, err := eventlog.Parse(strings.NewReader(log), "test.log")

			Convey("Then it fails with the missing-anchor kind", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, eventlog.ErrMissingAnchor), ShouldBeTrue)
			})
		})
	})

	Convey("Given a log with no response events", t, func() {
		log := stimLine(1, "Picture", "MRI_start", 900)

		Convey("When parsed", func() {
			_, err := eventlog.Parse(strings.NewReader(log), "test.log")

			Convey("Then it fails with the missing-anchor kind", func() {
				So(errors.Is(err, eventlog.ErrMissingAnchor), ShouldBeTrue)
			})
		})
	})

	Convey("Given a log with a truncated Picture line", t, func() {
		log := strings.Join([]string{
			"subj01\t1\tPicture\tMRI_start\t900", // too few fields
		}, "\n")

		Convey("When parsed", func() {
			_, err := eventlog.Parse(strings.NewReader(log), "test.log")

			Convey("Then it fails with the unreadable-log kind", func() {
				So(errors.Is(err, eventlog.ErrUnreadableLog), ShouldBeTrue)
			})
		})
	})

	Convey("Given a log with a non-numeric time field", t, func() {
		log := strings.Join([]string{
			stimLine(1, "Picture", "MRI_start", 900),
			"subj01\tx\tResponse\t104\t1000\t0\t1",
		}, "\n")

		Convey("When parsed", func() {
			_, err := eventlog.Parse(strings.NewReader(log), "test.log")

			Convey("Then it fails with the unreadable-log kind", func() {
				So(errors.Is(err, eventlog.ErrUnreadableLog), ShouldBeTrue)
			})
		})
	})
}

func TestRead(t *testing.T) {
	Convey("Given a path that does not exist", t, func() {
		_, err := eventlog.Read("/nonexistent/task.log")

		Convey("Then Read fails with the unreadable-log kind", func() {
			So(errors.Is(err, eventlog.ErrUnreadableLog), ShouldBeTrue)
		})
	})
}
