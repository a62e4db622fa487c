package services

import (
	"fmt"
	"time"
)

const bytesPerMB = 1024 * 1024

func formatMB(bytes uint64) string {
	return fmt.Sprintf("%.2f MB", float64(bytes)/bytesPerMB)
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// Throughput returns MB/s for size bytes moved in elapsed.
// A zero elapsed time reports zero rather than infinity.
func Throughput(size int64, elapsed time.Duration) float64 {
	if elapsed <= 0 || size <= 0 {
		return 0
	}
	return float64(size) / bytesPerMB / elapsed.Seconds()
}

func formatThroughput(mbps float64) string {
	return fmt.Sprintf("%.2f MB/s", mbps)
}
