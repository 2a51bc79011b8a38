package checksum

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/pgporter/pgporter/internal/domain"
)

type Logger interface {
	Infof(template string, args ...interface{})
}

// MD5 computes streaming content digests. Dumps can run to many
// gigabytes, so files are never read whole into memory.
type MD5 struct {
	log Logger
}

func NewMD5(log Logger) *MD5 {
	return &MD5{log: log}
}

func (h *MD5) Sum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", domain.ErrHashFailed, path, err)
	}
	defer file.Close()

	digest := md5.New()
	if _, err := io.Copy(digest, file); err != nil {
		return "", fmt.Errorf("%w: read %s: %v", domain.ErrHashFailed, path, err)
	}

	return hex.EncodeToString(digest.Sum(nil)), nil
}

// WriteDigest stores the hex digest in a sibling ".md5" file so the
// checksum travels the same upload and cleanup path as the artifact it
// describes. Returns the digest file's path.
func (h *MD5) WriteDigest(path string) (string, error) {
	h.log.Infof("Calculating MD5 hash for file [%s]", path)

	sum, err := h.Sum(path)
	if err != nil {
		return "", err
	}
	h.log.Infof("File MD5: [%s]", sum)

	digestPath := path + ".md5"
	if err := os.WriteFile(digestPath, []byte(sum), 0600); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", domain.ErrHashFailed, digestPath, err)
	}

	return digestPath, nil
}
