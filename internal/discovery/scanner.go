// pattern: Imperative Shell

package discovery

import (
	"context"
	"path/filepath"

	"venvscout/internal/venv"
)

// Scanner runs a Finder over several search paths.
type Scanner struct {
	finder *venv.Finder
}

// NewScanner creates a Scanner backed by finder.
func NewScanner(finder *venv.Finder) *Scanner {
	return &Scanner{finder: finder}
}

// ScanAll scans each root in order. A root that cannot be scanned records
// its error and the next root is still scanned. Environments reachable from
// more than one root are reported under the first, compared by resolved path.
func (s *Scanner) ScanAll(ctx context.Context, roots []string, maxDepth int, rep venv.Reporter) []RootResult {
	results := make([]RootResult, 0, len(roots))
	seen := make(map[string]bool)

	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			results = append(results, RootResult{Root: root, Err: err})
			continue
		}

		envs, err := s.finder.Find(ctx, root, maxDepth, rep)
		result := RootResult{Root: root, Err: err}
		for _, env := range envs {
			// Resolve symlinks to get canonical path
			resolved, err := filepath.EvalSymlinks(env.Path)
			if err != nil {
				resolved = env.Path
			}
			if seen[resolved] {
				result.Duplicates++
				continue
			}
			seen[resolved] = true
			result.Environments = append(result.Environments, env)
		}
		results = append(results, result)
	}

	return results
}
