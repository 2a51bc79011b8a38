package compressor

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
)

// Gzip compresses export artifacts before upload and unpacks gzipped
// imports. Level defaults to gzip.BestCompression; exports are written
// once and stored for a long time.
type Gzip struct {
	level int
}

func NewGzip() *Gzip {
	return &Gzip{level: gzip.BestCompression}
}

func NewGzipLevel(level int) *Gzip {
	return &Gzip{level: level}
}

func (g *Gzip) Compress(sourcePath, destPath string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer source.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create dest file: %w", err)
	}
	defer dest.Close()

	writer, err := gzip.NewWriterLevel(dest, g.level)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}

	if _, err := io.Copy(writer, source); err != nil {
		writer.Close()
		return fmt.Errorf("failed to compress: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to flush gzip stream: %w", err)
	}

	return nil
}

func (g *Gzip) Decompress(sourcePath, destPath string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer source.Close()

	reader, err := gzip.NewReader(source)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer reader.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create dest file: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, reader); err != nil {
		return fmt.Errorf("failed to decompress: %w", err)
	}

	return nil
}
