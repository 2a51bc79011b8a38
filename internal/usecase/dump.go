package usecase

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pgporter/pgporter/internal/domain"
)

// SecretResolver turns a secret name into parsed credentials.
type SecretResolver interface {
	ResolveSecret(ctx context.Context, name string) (*domain.Secret, error)
}

// Dump extracts a database dump, checksums it, encrypts it, checksums
// the ciphertext, and uploads the three derived artifacts under one
// templated key. Local temp files are removed after a successful upload;
// on failure they are left behind for inspection, matching the
// no-rollback policy of the whole pipeline.
type Dump struct {
	secrets   SecretResolver
	dumper    domain.Dumper
	hasher    domain.Hasher
	encryptor domain.Encryptor
	store     domain.ObjectStore
	cleaner   *Cleaner
	logger    Logger

	dbName      string
	secretName  string
	extraParams string

	now func() time.Time
}

func NewDump(
	secrets SecretResolver,
	dumper domain.Dumper,
	hasher domain.Hasher,
	encryptor domain.Encryptor,
	store domain.ObjectStore,
	cleaner *Cleaner,
	logger Logger,
	dbName, secretName, extraParams string,
) *Dump {
	return &Dump{
		secrets:     secrets,
		dumper:      dumper,
		hasher:      hasher,
		encryptor:   encryptor,
		store:       store,
		cleaner:     cleaner,
		logger:      logger,
		dbName:      dbName,
		secretName:  secretName,
		extraParams: extraParams,
		now:         time.Now,
	}
}

func (uc *Dump) Execute(ctx context.Context) error {
	start := uc.now()

	secret, err := uc.secrets.ResolveSecret(ctx, uc.secretName)
	if err != nil {
		return err
	}

	dumpFile, err := os.CreateTemp("", "pgporter_dump_*.dmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", domain.ErrDumpFailed, err)
	}
	dumpFile.Close()
	dumpPath := dumpFile.Name()
	uc.logger.Infof("Dump temporary file name: [%s]", dumpPath)

	if err := uc.dumper.Dump(ctx, secret, uc.dbName, uc.extraParams, dumpPath); err != nil {
		return err
	}

	dumpDigestPath, err := uc.hasher.WriteDigest(dumpPath)
	if err != nil {
		return err
	}

	encryptedPath, err := uc.encryptor.Encrypt(ctx, dumpPath)
	if err != nil {
		return err
	}
	uc.logger.Infof("Encrypted file: [%s]", encryptedPath)

	encryptedDigestPath, err := uc.hasher.WriteDigest(encryptedPath)
	if err != nil {
		return err
	}

	key := DumpKey(secret.InstanceIdentifier, uc.dbName, start)
	uc.logger.Infof("Dump key name: [%s]", key)

	artifacts := []struct {
		path string
		ext  string
	}{
		{encryptedPath, ExtEncrypted},
		{dumpDigestPath, ExtMD5},
		{encryptedDigestPath, ExtEncryptedMD5},
	}

	for _, a := range artifacts {
		remote := key + a.ext
		uc.logger.Infof("Transferring [%s] as [%s]", a.path, remote)
		opts := domain.UploadOptions{Replace: true}
		if err := uc.store.Upload(ctx, a.path, remote, opts); err != nil {
			return fmt.Errorf("%w: upload %s: %v", domain.ErrTransferFailed, remote, err)
		}
	}

	keys, err := uc.store.ListKeys(ctx, key)
	if err != nil {
		uc.logger.Warnf("Could not list uploaded keys: %v", err)
	} else {
		uc.logger.Infof("Uploaded artifacts: %v", keys)
	}

	for _, path := range []string{dumpPath, encryptedPath, dumpDigestPath, encryptedDigestPath} {
		uc.cleaner.Remove(path)
	}

	uc.logger.Infof("Dump of [%s] completed in %s: [%s]", uc.dbName, time.Since(start).Round(time.Second), key)
	return nil
}
