package encryptor

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"

	"github.com/pgporter/pgporter/internal/domain"
)

// Artifact layout: magic, big-endian uint32 length of the KMS-wrapped
// data key, the wrapped key, a 16-byte IV, then the AES-256-CTR stream.
// KMS Encrypt caps plaintext at 4 KiB, so dumps are envelope-encrypted
// with a per-artifact data key. Integrity is covered by the
// .encrypted.md5 artifact produced alongside.
var magic = []byte("PGPORTER1\n")

type kmsAPI interface {
	GenerateDataKey(ctx context.Context, params *kms.GenerateDataKeyInput, optFns ...func(*kms.Options)) (*kms.GenerateDataKeyOutput, error)
}

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// KMS encrypts local artifacts under a KMS customer master key.
type KMS struct {
	client kmsAPI
	keyARN string
	log    Logger
}

func NewKMS(awsCfg aws.Config, keyARN string, log Logger) *KMS {
	return &KMS{
		client: kms.NewFromConfig(awsCfg),
		keyARN: keyARN,
		log:    log,
	}
}

// Encrypt writes sourcePath+".encrypted" and returns its path. On any
// failure the partial output is removed; the artifact is whole or absent.
func (e *KMS) Encrypt(ctx context.Context, sourcePath string) (string, error) {
	e.log.Infof("Encrypting file [%s] with key [%s]", sourcePath, e.keyARN)

	out, err := e.client.GenerateDataKey(ctx, &kms.GenerateDataKeyInput{
		KeyId:   aws.String(e.keyARN),
		KeySpec: types.DataKeySpecAes256,
	})
	if err != nil {
		e.log.Errorf("KMS data key generation failed: %v", err)
		return "", fmt.Errorf("%w: generate data key: %v", domain.ErrEncryptionFailed, err)
	}
	defer wipe(out.Plaintext)

	encryptedPath := sourcePath + ".encrypted"
	if err := encryptFile(sourcePath, encryptedPath, out.Plaintext, out.CiphertextBlob); err != nil {
		os.Remove(encryptedPath)
		return "", fmt.Errorf("%w: %v", domain.ErrEncryptionFailed, err)
	}

	return encryptedPath, nil
}

func encryptFile(sourcePath, destPath string, dataKey, wrappedKey []byte) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer source.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dest.Close()

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return err
	}

	if err := writeHeader(dest, wrappedKey, iv); err != nil {
		return err
	}

	block, err := aes.NewCipher(dataKey)
	if err != nil {
		return err
	}

	writer := cipher.StreamWriter{S: cipher.NewCTR(block, iv), W: dest}
	if _, err := io.Copy(writer, source); err != nil {
		return err
	}

	return dest.Sync()
}

func writeHeader(w io.Writer, wrappedKey, iv []byte) error {
	if _, err := w.Write(magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(wrappedKey))); err != nil {
		return err
	}
	if _, err := w.Write(wrappedKey); err != nil {
		return err
	}
	_, err := w.Write(iv)
	return err
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
