// pattern: Functional Core

package discovery

import "venvscout/internal/venv"

// RootResult is the outcome of scanning one search path.
type RootResult struct {
	Root         string                       // Search path as configured
	Environments []venv.DiscoveredEnvironment // Environments first reached from this root
	Duplicates   int                          // Environments already reported under an earlier root
	Err          error                        // Validation or cancellation error, if any
}

// Total counts environments across all results.
func Total(results []RootResult) int {
	n := 0
	for _, r := range results {
		n += len(r.Environments)
	}
	return n
}
