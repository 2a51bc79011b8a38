package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/pgporter/pgporter/internal/domain"
)

func TestLocalStore(t *testing.T) {
	Convey("Given a local store", t, func() {
		ctx := context.Background()

		baseDir, err := os.MkdirTemp("", "local_store_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(baseDir)

		store, err := NewLocal(baseDir)
		So(err, ShouldBeNil)

		source := filepath.Join(baseDir, "source.dmp")
		So(os.WriteFile(source, []byte("dump bytes"), 0644), ShouldBeNil)

		Convey("Upload places the artifact under its key path", func() {
			err := store.Upload(ctx, source, "inst/db/2026/08/dump.dmp", domain.UploadOptions{Replace: true})
			So(err, ShouldBeNil)

			content, err := os.ReadFile(filepath.Join(baseDir, "inst", "db", "2026", "08", "dump.dmp"))
			So(err, ShouldBeNil)
			So(string(content), ShouldEqual, "dump bytes")
		})

		Convey("Upload with replace=false refuses to overwrite", func() {
			So(store.Upload(ctx, source, "k.dmp", domain.UploadOptions{Replace: true}), ShouldBeNil)

			err := store.Upload(ctx, source, "k.dmp", domain.UploadOptions{Replace: false})
			So(errors.Is(err, domain.ErrKeyExists), ShouldBeTrue)
		})

		Convey("Download copies the object to a fresh temp file", func() {
			So(store.Upload(ctx, source, "k.dmp", domain.UploadOptions{Replace: true}), ShouldBeNil)

			path, err := store.Download(ctx, "k.dmp")
			So(err, ShouldBeNil)
			defer os.Remove(path)

			content, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(content), ShouldEqual, "dump bytes")
		})

		Convey("ListKeys filters by prefix", func() {
			So(store.Upload(ctx, source, "a/one.dmp", domain.UploadOptions{Replace: true}), ShouldBeNil)
			So(store.Upload(ctx, source, "b/two.dmp", domain.UploadOptions{Replace: true}), ShouldBeNil)

			keys, err := store.ListKeys(ctx, "a/")
			So(err, ShouldBeNil)
			So(keys, ShouldResemble, []string{"a/one.dmp"})
		})

		Convey("OldKeys returns keys modified before the cutoff", func() {
			So(store.Upload(ctx, source, "old.dmp", domain.UploadOptions{Replace: true}), ShouldBeNil)

			past := time.Now().Add(-48 * time.Hour)
			So(os.Chtimes(filepath.Join(baseDir, "old.dmp"), past, past), ShouldBeNil)

			keys, err := store.OldKeys(ctx, "", time.Now().Add(-24*time.Hour))
			So(err, ShouldBeNil)
			So(keys, ShouldContain, "old.dmp")
		})

		Convey("Delete removes the object", func() {
			So(store.Upload(ctx, source, "k.dmp", domain.UploadOptions{Replace: true}), ShouldBeNil)
			So(store.Delete(ctx, "k.dmp"), ShouldBeNil)

			keys, err := store.ListKeys(ctx, "")
			So(err, ShouldBeNil)
			So(keys, ShouldNotContain, "k.dmp")
		})
	})
}
