package compressor

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestGzip(t *testing.T) {
	Convey("Given a gzip compressor", t, func() {
		g := NewGzip()

		tempDir, err := os.MkdirTemp("", "gzip_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		content := []byte("id\tname\n1\tfoo\n2\t\n")
		source := filepath.Join(tempDir, "export.tsv")
		So(os.WriteFile(source, content, 0644), ShouldBeNil)

		Convey("Compress then Decompress round-trips the content", func() {
			compressed := filepath.Join(tempDir, "export.tsv.gz")
			restored := filepath.Join(tempDir, "restored.tsv")

			So(g.Compress(source, compressed), ShouldBeNil)

			file, err := os.Open(compressed)
			So(err, ShouldBeNil)
			_, err = gzip.NewReader(file)
			file.Close()
			So(err, ShouldBeNil)

			So(g.Decompress(compressed, restored), ShouldBeNil)

			got, err := os.ReadFile(restored)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, content)
		})

		Convey("Compress of a missing source fails", func() {
			err := g.Compress(filepath.Join(tempDir, "missing"), filepath.Join(tempDir, "out.gz"))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "failed to open source file")
		})

		Convey("Decompress of a non-gzip file fails", func() {
			err := g.Decompress(source, filepath.Join(tempDir, "out"))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "failed to create gzip reader")
		})

		Convey("An invalid compression level is rejected at compress time", func() {
			bad := NewGzipLevel(42)
			err := bad.Compress(source, filepath.Join(tempDir, "out.gz"))
			So(err, ShouldNotBeNil)
		})
	})
}
