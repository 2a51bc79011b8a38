package encryptor

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/kms"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/pgporter/pgporter/internal/domain"
)

type fakeKMS struct {
	plaintext []byte
	wrapped   []byte
	err       error
}

func (f *fakeKMS) GenerateDataKey(ctx context.Context, params *kms.GenerateDataKeyInput, optFns ...func(*kms.Options)) (*kms.GenerateDataKeyOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	// Hand out a copy; Encrypt wipes the plaintext key after use.
	pt := make([]byte, len(f.plaintext))
	copy(pt, f.plaintext)
	return &kms.GenerateDataKeyOutput{Plaintext: pt, CiphertextBlob: f.wrapped}, nil
}

type nopLogger struct{}

func (nopLogger) Infof(template string, args ...interface{})  {}
func (nopLogger) Errorf(template string, args ...interface{}) {}

func TestKMSEncryptor(t *testing.T) {
	Convey("Given a KMS encryptor", t, func() {
		ctx := context.Background()

		tempDir, err := os.MkdirTemp("", "kms_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		source := filepath.Join(tempDir, "orders.dmp")
		plaintext := []byte("dump contents that must not appear in the clear")
		So(os.WriteFile(source, plaintext, 0644), ShouldBeNil)

		dataKey := bytes.Repeat([]byte{0x42}, 32)
		wrapped := []byte("wrapped-data-key")

		Convey("When encryption succeeds", func() {
			e := &KMS{
				client: &fakeKMS{plaintext: dataKey, wrapped: wrapped},
				keyARN: "arn:aws:kms:us-east-1:123:key/abc",
				log:    nopLogger{},
			}

			encryptedPath, err := e.Encrypt(ctx, source)

			Convey("It should produce the .encrypted artifact", func() {
				So(err, ShouldBeNil)
				So(encryptedPath, ShouldEqual, source+".encrypted")
				defer os.Remove(encryptedPath)

				raw, readErr := os.ReadFile(encryptedPath)
				So(readErr, ShouldBeNil)

				Convey("The ciphertext should not contain the plaintext", func() {
					So(bytes.Contains(raw, plaintext), ShouldBeFalse)
				})

				Convey("The header should carry the wrapped key and decrypt back", func() {
					rest := raw[len(magic):]
					keyLen := binary.BigEndian.Uint32(rest[:4])
					So(keyLen, ShouldEqual, uint32(len(wrapped)))
					rest = rest[4:]
					So(rest[:keyLen], ShouldResemble, wrapped)
					rest = rest[keyLen:]

					iv := rest[:aes.BlockSize]
					ciphertext := rest[aes.BlockSize:]

					block, blockErr := aes.NewCipher(dataKey)
					So(blockErr, ShouldBeNil)
					decrypted := make([]byte, len(ciphertext))
					cipher.NewCTR(block, iv).XORKeyStream(decrypted, ciphertext)
					So(decrypted, ShouldResemble, plaintext)
				})
			})
		})

		Convey("When KMS refuses the data key", func() {
			e := &KMS{
				client: &fakeKMS{err: errors.New("AccessDeniedException")},
				keyARN: "arn:aws:kms:us-east-1:123:key/abc",
				log:    nopLogger{},
			}

			_, err := e.Encrypt(ctx, source)

			Convey("It should fail with the encryption error and leave no artifact", func() {
				So(errors.Is(err, domain.ErrEncryptionFailed), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "AccessDeniedException")

				_, statErr := os.Stat(source + ".encrypted")
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})
	})
}
