package formatter

import (
	"fmt"
	"io"
	"time"
)

// printScanBanner prints the scan timestamp and duration above a table.
func printScanBanner(w io.Writer, scanTime time.Time, scanDuration time.Duration) {
	fmt.Fprintf(w, "Scan time: %s (completed in %.2f seconds)\n",
		scanTime.Format("2006-01-02 15:04:05"),
		scanDuration.Seconds())
}
