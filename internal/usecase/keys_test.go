package usecase

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDumpKey(t *testing.T) {
	Convey("Given a dump run at a known instant", t, func() {
		at := time.Date(2026, 8, 25, 14, 30, 5, 0, time.UTC)

		Convey("The key follows instance/db/year/month/dump-name", func() {
			key := DumpKey("orders-prod", "orders", at)
			So(key, ShouldEqual, "orders-prod/orders/2026/08/dump_orders_20260825_143005.dmp")
		})

		Convey("Single-digit months keep their leading zero", func() {
			key := DumpKey("orders-prod", "orders", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
			So(key, ShouldEqual, "orders-prod/orders/2026/01/dump_orders_20260102_030405.dmp")
		})

		Convey("Artifact suffixes append to the composed key", func() {
			key := DumpKey("orders-prod", "orders", at)
			So(key+ExtEncrypted, ShouldEndWith, ".dmp.encrypted")
			So(key+ExtMD5, ShouldEndWith, ".dmp.md5")
			So(key+ExtEncryptedMD5, ShouldEndWith, ".dmp.encrypted.md5")
		})
	})
}
