package usecase

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pgporter/pgporter/internal/domain"
)

// ConnSpec names one side of a transfer: the secret holding its
// credentials plus optional overrides.
type ConnSpec struct {
	SecretName string
	Overrides  domain.ConnectionOverrides
}

// RowCopy moves the result set of a query from one database into a
// table on another. The full result set is materialized in memory; use
// Export/Import for bulk volumes.
//
// Ordering: fetch, then pre-operator, then insert, then post-operator.
// On an empty result set the insert and the post-operator are skipped
// but the pre-operator has already run. Destination-side pre-operators
// are not rolled back when a later stage fails, so they must be
// idempotent.
type RowCopy struct {
	factory domain.ConnectionFactory
	source  ConnSpec
	dest    ConnSpec
	logger  Logger

	sql    string
	params []any

	destTable   string
	destColumns []string
	pre, post   string
}

func NewRowCopy(
	factory domain.ConnectionFactory,
	source, dest ConnSpec,
	logger Logger,
	sql string, params []any,
	destTable string, destColumns []string,
	pre, post string,
) *RowCopy {
	return &RowCopy{
		factory:     factory,
		source:      source,
		dest:        dest,
		logger:      logger,
		sql:         sql,
		params:      params,
		destTable:   destTable,
		destColumns: destColumns,
		pre:         pre,
		post:        post,
	}
}

func (uc *RowCopy) Execute(ctx context.Context) error {
	uc.logger.Infof("Extracting query: %s", uc.sql)

	src, err := uc.factory.Resolve(ctx, uc.source.SecretName, uc.source.Overrides)
	if err != nil {
		return err
	}
	defer src.Close(ctx)

	rows, err := src.Fetch(ctx, uc.sql, uc.params...)
	if err != nil {
		return fmt.Errorf("%w: fetch: %v", domain.ErrTransferFailed, err)
	}
	uc.logger.Infof("Fetched %d row(s)", len(rows))

	dst, err := uc.factory.Resolve(ctx, uc.dest.SecretName, uc.dest.Overrides)
	if err != nil {
		return err
	}
	defer dst.Close(ctx)

	if uc.pre != "" {
		uc.logger.Infof("Running pre-operator.")
		if err := dst.Run(ctx, uc.pre); err != nil {
			return fmt.Errorf("%w: pre-operator: %v", domain.ErrTransferFailed, err)
		}
	}

	if len(rows) == 0 {
		uc.logger.Infof("Empty result set; skipping insert into [%s]", uc.destTable)
		return nil
	}

	inserted, err := dst.BulkInsert(ctx, uc.destTable, uc.destColumns, rows)
	if err != nil {
		return fmt.Errorf("%w: insert into %s: %v", domain.ErrTransferFailed, uc.destTable, err)
	}
	uc.logger.Infof("Inserted %d row(s) into [%s]", inserted, uc.destTable)

	if uc.post != "" {
		uc.logger.Infof("Running post-operator.")
		if err := dst.Run(ctx, uc.post); err != nil {
			return fmt.Errorf("%w: post-operator: %v", domain.ErrTransferFailed, err)
		}
	}

	return nil
}

// Export streams a query's rows server-side into a local flat file,
// optionally gzips it, and uploads the result under the configured key.
type Export struct {
	factory    domain.ConnectionFactory
	source     ConnSpec
	store      domain.ObjectStore
	compressor domain.Compressor
	cleaner    *Cleaner
	logger     Logger

	sql           string
	key           string
	compress      bool
	replace       bool
	encryptAtRest bool
}

func NewExport(
	factory domain.ConnectionFactory,
	source ConnSpec,
	store domain.ObjectStore,
	compressor domain.Compressor,
	cleaner *Cleaner,
	logger Logger,
	sql, key string,
	compress, replace, encryptAtRest bool,
) *Export {
	return &Export{
		factory:       factory,
		source:        source,
		store:         store,
		compressor:    compressor,
		cleaner:       cleaner,
		logger:        logger,
		sql:           sql,
		key:           key,
		compress:      compress,
		replace:       replace,
		encryptAtRest: encryptAtRest,
	}
}

func (uc *Export) Execute(ctx context.Context) error {
	uc.logger.Infof("Extracting query: %s", uc.sql)

	conn, err := uc.factory.Resolve(ctx, uc.source.SecretName, uc.source.Overrides)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	plain, err := os.CreateTemp("", "pgporter_export_*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", domain.ErrTransferFailed, err)
	}
	plainPath := plain.Name()
	defer uc.cleaner.Remove(plainPath)

	uc.logger.Infof("Starting COPY to [%s].", plainPath)
	count, err := conn.CopyOut(ctx, plain, uc.sql)
	if err != nil {
		plain.Close()
		return fmt.Errorf("%w: copy out: %v", domain.ErrTransferFailed, err)
	}
	if err := plain.Close(); err != nil {
		return fmt.Errorf("%w: flush export file: %v", domain.ErrTransferFailed, err)
	}
	uc.logger.Infof("File created with %d row(s).", count)

	uploadPath := plainPath
	if uc.compress {
		compressedPath := plainPath + ".gz"
		uc.logger.Infof("Start to compress file [%s]", compressedPath)
		if err := uc.compressor.Compress(plainPath, compressedPath); err != nil {
			return fmt.Errorf("%w: compress: %v", domain.ErrTransferFailed, err)
		}
		defer uc.cleaner.Remove(compressedPath)
		uploadPath = compressedPath
	}

	uc.logger.Infof("Starting to transfer file as [%s]", uc.key)
	opts := domain.UploadOptions{Replace: uc.replace, EncryptAtRest: uc.encryptAtRest}
	if err := uc.store.Upload(ctx, uploadPath, uc.key, opts); err != nil {
		if errors.Is(err, domain.ErrKeyExists) {
			return err
		}
		return fmt.Errorf("%w: upload %s: %v", domain.ErrTransferFailed, uc.key, err)
	}

	keys, err := uc.store.ListKeys(ctx, uc.key)
	if err != nil {
		uc.logger.Warnf("Could not list uploaded keys: %v", err)
	} else {
		uc.logger.Infof("Uploaded: %v", keys)
	}

	return nil
}

// Import downloads a flat file, skips its single header line and
// streams the remainder into a table through one committed COPY. Keys
// ending in ".gz" are unpacked before the header skip.
type Import struct {
	factory    domain.ConnectionFactory
	dest       ConnSpec
	store      domain.ObjectStore
	compressor domain.Compressor
	cleaner    *Cleaner
	logger     Logger

	key         string
	destTable   string
	destColumns []string
	pre, post   string
}

func NewImport(
	factory domain.ConnectionFactory,
	dest ConnSpec,
	store domain.ObjectStore,
	compressor domain.Compressor,
	cleaner *Cleaner,
	logger Logger,
	key, destTable string, destColumns []string,
	pre, post string,
) *Import {
	return &Import{
		factory:     factory,
		dest:        dest,
		store:       store,
		compressor:  compressor,
		cleaner:     cleaner,
		logger:      logger,
		key:         key,
		destTable:   destTable,
		destColumns: destColumns,
		pre:         pre,
		post:        post,
	}
}

func (uc *Import) Execute(ctx context.Context) error {
	uc.logger.Infof("Downloading [%s] for COPY into [%s]", uc.key, uc.destTable)

	localPath, err := uc.store.Download(ctx, uc.key)
	if err != nil {
		return fmt.Errorf("%w: download %s: %v", domain.ErrTransferFailed, uc.key, err)
	}
	defer uc.cleaner.Remove(localPath)

	if strings.HasSuffix(uc.key, ".gz") {
		plainPath := localPath + ".plain"
		uc.logger.Infof("Decompressing [%s]", uc.key)
		if err := uc.compressor.Decompress(localPath, plainPath); err != nil {
			return fmt.Errorf("%w: decompress %s: %v", domain.ErrTransferFailed, uc.key, err)
		}
		defer uc.cleaner.Remove(plainPath)
		localPath = plainPath
	}

	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", domain.ErrTransferFailed, localPath, err)
	}
	defer file.Close()

	// The first line is a header, never data. Skip exactly one line
	// however long the file is.
	reader := bufio.NewReader(file)
	if _, err := reader.ReadString('\n'); err != nil && err != io.EOF {
		return fmt.Errorf("%w: skip header: %v", domain.ErrTransferFailed, err)
	}

	conn, err := uc.factory.Resolve(ctx, uc.dest.SecretName, uc.dest.Overrides)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	if uc.pre != "" {
		uc.logger.Infof("Running pre-operator.")
		if err := conn.Run(ctx, uc.pre); err != nil {
			return fmt.Errorf("%w: pre-operator: %v", domain.ErrTransferFailed, err)
		}
	}

	uc.logger.Infof("Start to copy file to database, destination table: [%s]", uc.destTable)
	count, err := conn.CopyIn(ctx, reader, uc.destTable, uc.destColumns)
	if err != nil {
		return fmt.Errorf("%w: copy into %s: %v", domain.ErrTransferFailed, uc.destTable, err)
	}
	uc.logger.Infof("Loaded %d row(s) into [%s]", count, uc.destTable)

	if uc.post != "" {
		uc.logger.Infof("Running post-operator [%s].", uc.post)
		rows, err := conn.Fetch(ctx, uc.post)
		if err != nil {
			return fmt.Errorf("%w: post-operator: %v", domain.ErrTransferFailed, err)
		}
		if len(rows) > 0 && len(rows[0]) > 0 {
			uc.logger.Infof("Post operator result: %v", rows[0][0])
		}
	}

	uc.logger.Infof("File uploaded to database.")
	return nil
}
