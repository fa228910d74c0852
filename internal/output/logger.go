package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteSuccessLog replaces the file at fileName with one URI per line.
func WriteSuccessLog(fileName string, uris []string) error {
	if dir := filepath.Dir(fileName); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating log directory: %w", err)
		}
	}
	var b strings.Builder
	for _, uri := range uris {
		b.WriteString(uri)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(fileName, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("error writing log file: %w", err)
	}
	return nil
}

// SummaryLine is the closing message of a batch run.
func SummaryLine(elapsed time.Duration, succeeded, total int, logPath string) string {
	if succeeded == 0 {
		return fmt.Sprintf("Nothing downloaded (0 of %d) in %s", total, elapsed.Round(time.Millisecond))
	}
	return fmt.Sprintf("Downloaded %d of %d in %s, log saved to %s", succeeded, total, elapsed.Round(time.Millisecond), logPath)
}

func ShowSummary(elapsed time.Duration, succeeded, total int, logPath string) {
	line := SummaryLine(elapsed, succeeded, total, logPath)
	fmt.Println()
	switch {
	case succeeded == 0:
		PrintWarning("  " + line)
	case succeeded < total:
		PrintSuccess2("  " + line)
		PrintError(fmt.Sprintf("  Failed %d of %d", total-succeeded, total))
	default:
		PrintSuccess2("  " + line)
	}
	fmt.Println()
}
