package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade ID using SHA256.
// Formula: SHA256(run_id|instrument|side|entry_time_ms)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(
	runID string,
	instrument string,
	side string,
	entryTimeMs int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d",
		runID,
		instrument,
		side,
		entryTimeMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
