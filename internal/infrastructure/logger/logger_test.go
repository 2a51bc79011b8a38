package logger

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given the logger package", t, func() {
		Convey("When creating a console-only logger", func() {
			log, err := New("info", "")

			Convey("It should log without panicking", func() {
				So(err, ShouldBeNil)
				So(log, ShouldNotBeNil)
				So(func() { log.Infof("task %s done", "dump") }, ShouldNotPanic)
			})
		})

		Convey("When creating a logger with a file sink", func() {
			tempDir, err := os.MkdirTemp("", "logger_test")
			So(err, ShouldBeNil)
			defer os.RemoveAll(tempDir)

			logFile := filepath.Join(tempDir, "pgporter.log")
			log, err := New("debug", logFile)

			Convey("It should create the file on first write", func() {
				So(err, ShouldBeNil)
				log.Infof("stage boundary")
				log.Close()

				_, statErr := os.Stat(logFile)
				So(statErr, ShouldBeNil)
			})
		})

		Convey("When the log level is unknown", func() {
			log, err := New("chatty", "")

			Convey("It should fall back to info", func() {
				So(err, ShouldBeNil)
				So(log, ShouldNotBeNil)
			})
		})
	})
}
