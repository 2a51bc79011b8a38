package database

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pgporter/pgporter/internal/domain"
)

// PgDump invokes the pg_dump binary. The password is placed in the child
// process environment only; it never appears on the command line and the
// parent environment is left untouched.
type PgDump struct {
	log Logger
}

func NewPgDump(log Logger) *PgDump {
	return &PgDump{log: log}
}

func (d *PgDump) Dump(ctx context.Context, secret *domain.Secret, dbName, extraParams, outputPath string) error {
	args := dumpArgs(secret, dbName, extraParams, outputPath)
	d.log.Infof("Dumping database [%s] from host [%s] to [%s]", dbName, secret.Host, outputPath)

	cmd := exec.CommandContext(ctx, "pg_dump", args...)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+secret.Password)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: pg_dump: %v: %s", domain.ErrDumpFailed, err, string(output))
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("%w: dump file missing after pg_dump: %v", domain.ErrDumpFailed, err)
	}
	d.log.Infof("Dump file size: %dMb", info.Size()>>20)

	return nil
}

func dumpArgs(secret *domain.Secret, dbName, extraParams, outputPath string) []string {
	args := []string{
		"-v",
		"-Ft",
		"-h", secret.Host,
		"-U", secret.Username,
		"-d", dbName,
		"-f", outputPath,
	}
	if extraParams != "" {
		args = append(args, strings.Fields(extraParams)...)
	}
	return args
}
