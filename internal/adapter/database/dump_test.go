package database

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/pgporter/pgporter/internal/domain"
)

func TestDumpArgs(t *testing.T) {
	Convey("Given a resolved secret", t, func() {
		secret := &domain.Secret{
			Username: "backup_ro",
			Password: "hunter2",
			Host:     "orders-prod.abc.rds.amazonaws.com",
			Port:     5432,
		}

		Convey("When building the pg_dump invocation", func() {
			args := dumpArgs(secret, "orders", "", "/tmp/orders.dmp")

			Convey("It should use verbose tar format with host, user, dbname and file", func() {
				So(args, ShouldResemble, []string{
					"-v", "-Ft",
					"-h", "orders-prod.abc.rds.amazonaws.com",
					"-U", "backup_ro",
					"-d", "orders",
					"-f", "/tmp/orders.dmp",
				})
			})

			Convey("It should never include the password", func() {
				for _, a := range args {
					So(a, ShouldNotContainSubstring, "hunter2")
				}
			})
		})

		Convey("When extra parameters are supplied", func() {
			args := dumpArgs(secret, "orders", "--schema=public --no-owner", "/tmp/orders.dmp")

			Convey("They should be appended after the standard flags", func() {
				So(args[len(args)-2], ShouldEqual, "--schema=public")
				So(args[len(args)-1], ShouldEqual, "--no-owner")
			})
		})
	})
}
