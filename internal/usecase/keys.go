package usecase

import (
	"fmt"
	"time"
)

// Artifact suffixes appended to a composed dump key.
const (
	ExtEncrypted    = ".encrypted"
	ExtMD5          = ".md5"
	ExtEncryptedMD5 = ".encrypted.md5"
)

// DumpKey composes the remote key for one dump run:
//
//	{instanceIdentifier}/{dbName}/{year}/{month}/dump_{dbName}_{YYYYMMDD_HHMMSS}.dmp
//
// Year and month come from the wall clock at run start, so one run's
// artifacts always land under the same key.
func DumpKey(instanceIdentifier, dbName string, now time.Time) string {
	dumpName := fmt.Sprintf("dump_%s_%s.dmp", dbName, now.Format("20060102_150405"))
	return fmt.Sprintf("%s/%s/%s/%s/%s",
		instanceIdentifier, dbName, now.Format("2006"), now.Format("01"), dumpName)
}
