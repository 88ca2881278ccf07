package venv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func pairs(envs []DiscoveredEnvironment) map[string]string {
	out := make(map[string]string, len(envs))
	for _, e := range envs {
		out[e.Path] = e.ProjectName
	}
	return out
}

func TestFind_Example(t *testing.T) {
	root := filepath.Join(t.TempDir(), "root")
	makeEnv(t, filepath.Join(root, "a"))
	makeEnv(t, filepath.Join(root, "b", "c"))

	envs, err := NewFinder(testLogger(t)).Find(context.Background(), root, 3, nil)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}

	want := []DiscoveredEnvironment{
		{ProjectName: "root", Path: filepath.Join(root, "a")},
		{ProjectName: "b", Path: filepath.Join(root, "b", "c")},
	}
	if len(envs) != len(want) {
		t.Fatalf("got %d environments, want %d: %+v", len(envs), len(want), envs)
	}
	for i := range want {
		if envs[i].ProjectName != want[i].ProjectName || envs[i].Path != want[i].Path {
			t.Errorf("env %d = %+v, want %+v", i, envs[i], want[i])
		}
	}
}

func TestFind_ProjectNameIsParentOfEnvironment(t *testing.T) {
	root := t.TempDir()
	env := filepath.Join(root, "work", "webapp", ".venv")
	makeEnv(t, env)

	envs, err := NewFinder(nil).Find(context.Background(), root, 3, nil)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(envs) != 1 {
		t.Fatalf("got %d environments, want 1", len(envs))
	}
	if envs[0].Path != env || envs[0].ProjectName != "webapp" {
		t.Errorf("got %+v", envs[0])
	}
}

func TestFind_DoesNotDescendIntoEnvironment(t *testing.T) {
	root := t.TempDir()
	outer := filepath.Join(root, "proj", "myenv")
	makeEnv(t, outer)
	makeEnv(t, filepath.Join(outer, "lib", "nested"))

	envs, err := NewFinder(nil).Find(context.Background(), root, 5, nil)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(envs) != 1 || envs[0].Path != outer {
		t.Fatalf("got %+v, want only %s", envs, outer)
	}
}

func TestFind_ScansSiblingsOfEnvironment(t *testing.T) {
	root := t.TempDir()
	makeEnv(t, filepath.Join(root, "proj", "a-env"))
	makeEnv(t, filepath.Join(root, "proj", "b-env"))
	makeEnv(t, filepath.Join(root, "proj", "sub", "c-env"))

	envs, err := NewFinder(nil).Find(context.Background(), root, 3, nil)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(envs) != 3 {
		t.Fatalf("got %d environments, want 3: %+v", len(envs), envs)
	}
}

func TestFind_DepthBound(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "x", "y", "z", "env")
	makeEnv(t, deep)
	makeEnv(t, filepath.Join(root, "top"))

	finder := NewFinder(nil)

	shallow, err := finder.Find(context.Background(), root, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := pairs(shallow)[deep]; ok {
		t.Errorf("depth 2 should not reach %s", deep)
	}

	full, err := finder.Find(context.Background(), root, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := pairs(full)[deep]; !ok {
		t.Errorf("depth 3 should reach %s", deep)
	}
}

func TestFind_DepthZeroChecksDirectChildren(t *testing.T) {
	root := t.TempDir()
	makeEnv(t, filepath.Join(root, "env"))
	makeEnv(t, filepath.Join(root, "p", "env"))

	envs, err := NewFinder(nil).Find(context.Background(), root, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 1 || envs[0].Path != filepath.Join(root, "env") {
		t.Fatalf("got %+v", envs)
	}
}

func TestFind_MonotonicInDepth(t *testing.T) {
	root := t.TempDir()
	makeEnv(t, filepath.Join(root, "a"))
	makeEnv(t, filepath.Join(root, "b", "c"))
	makeEnv(t, filepath.Join(root, "b", "d", "e", "f"))
	makeEnv(t, filepath.Join(root, "g", "h", "i", "j", "k"))
	makeDir(t, filepath.Join(root, "empty", "deeper", "still"))

	finder := NewFinder(nil)
	prev := map[string]string{}
	for depth := 0; depth <= 6; depth++ {
		envs, err := finder.Find(context.Background(), root, depth, nil)
		if err != nil {
			t.Fatal(err)
		}
		got := pairs(envs)
		for path, name := range prev {
			if got[path] != name {
				t.Errorf("depth %d lost %s (%s)", depth, path, name)
			}
		}
		prev = got
	}
	if len(prev) != 4 {
		t.Errorf("depth 6 found %d environments, want 4", len(prev))
	}
}

func TestFind_MissingRoot(t *testing.T) {
	rec := &recorder{}
	envs, err := NewFinder(nil).Find(context.Background(), filepath.Join(t.TempDir(), "nope"), 3, rec)

	var pathErr *InvalidPathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("expected *InvalidPathError, got %v", err)
	}
	if envs != nil {
		t.Errorf("expected no results, got %+v", envs)
	}
	if len(rec.lines) != 0 || len(rec.progress) != 0 {
		t.Errorf("expected no events, got %d lines, %d progress", len(rec.lines), len(rec.progress))
	}
}

func TestFind_RootIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := NewFinder(nil).Find(context.Background(), file, 3, nil)
	var pathErr *InvalidPathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("expected *InvalidPathError, got %v", err)
	}
	if pathErr.Reason != "not a directory" {
		t.Errorf("Reason = %q", pathErr.Reason)
	}
}

func TestFind_NegativeDepth(t *testing.T) {
	_, err := NewFinder(nil).Find(context.Background(), t.TempDir(), -1, nil)
	if !errors.Is(err, ErrInvalidDepth) {
		t.Fatalf("expected ErrInvalidDepth, got %v", err)
	}
}

func TestFind_MarkerMustBeFile(t *testing.T) {
	root := t.TempDir()
	makeDir(t, filepath.Join(root, "proj", "fake", MarkerFile))

	envs, err := NewFinder(nil).Find(context.Background(), root, 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 0 {
		t.Fatalf("a pyvenv.cfg directory is not a marker, got %+v", envs)
	}
}

func TestFind_IgnoresFiles(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	envs, err := NewFinder(nil).Find(context.Background(), root, 3, rec)
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 0 || len(rec.progress) != 0 {
		t.Errorf("files should not be visited: envs=%v progress=%v", envs, rec.progress)
	}
}

func TestFind_EmitsLogLinesAndProgress(t *testing.T) {
	root := t.TempDir()
	makeEnv(t, filepath.Join(root, "a"))
	makeDir(t, filepath.Join(root, "b", "c"))

	rec := &recorder{}
	if _, err := NewFinder(nil).Find(context.Background(), root, 3, rec); err != nil {
		t.Fatal(err)
	}

	for _, line := range []string{
		"scanning: " + root,
		"scanning: " + filepath.Join(root, "a"),
		"scanning: " + filepath.Join(root, "b", "c"),
		"found environment: " + filepath.Base(root) + " (" + filepath.Join(root, "a") + ")",
	} {
		if !rec.hasLine(line) {
			t.Errorf("missing log line %q in %q", line, rec.lines)
		}
	}

	// a, b and c are visited; one progress event per processed entry.
	if len(rec.progress) != 3 {
		t.Fatalf("got %d progress events, want 3", len(rec.progress))
	}
	last := rec.progress[len(rec.progress)-1]
	if last.Visited != 3 || last.Processed != 3 || last.Percent != 100 {
		t.Errorf("last progress = %+v", last)
	}
	for _, p := range rec.progress {
		if p.Percent < 0 || p.Percent > 100 {
			t.Errorf("percent out of range: %+v", p)
		}
	}
}

func TestFind_SkipsUnreadableDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced the same way")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	makeEnv(t, filepath.Join(locked, "hidden"))
	makeEnv(t, filepath.Join(root, "open", "env"))
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	rec := &recorder{}
	envs, err := NewFinder(nil).Find(context.Background(), root, 3, rec)
	if err != nil {
		t.Fatalf("access errors must not fail the scan: %v", err)
	}
	if len(envs) != 1 || envs[0].Path != filepath.Join(root, "open", "env") {
		t.Errorf("got %+v", envs)
	}
	if !rec.hasLine("cannot access: " + locked) {
		t.Errorf("missing access diagnostic in %q", rec.lines)
	}
}

func TestFind_FollowsSymlinkedEnvironment(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	elsewhere := t.TempDir()
	makeEnv(t, filepath.Join(elsewhere, "realenv"))
	makeDir(t, filepath.Join(root, "proj"))
	if err := os.Symlink(filepath.Join(elsewhere, "realenv"), filepath.Join(root, "proj", "venv")); err != nil {
		t.Fatal(err)
	}

	envs, err := NewFinder(nil).Find(context.Background(), root, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 1 || envs[0].Path != filepath.Join(root, "proj", "venv") || envs[0].ProjectName != "proj" {
		t.Fatalf("got %+v", envs)
	}
}

func TestFind_SymlinkLoopTerminates(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	makeEnv(t, filepath.Join(root, "a", "env"))
	if err := os.Symlink(root, filepath.Join(root, "a", "back")); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	envs, err := NewFinder(nil).Find(context.Background(), root, 50, rec)
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 1 {
		t.Fatalf("got %+v, want one environment", envs)
	}
	if !rec.hasLine("skipping symlink loop: " + filepath.Join(root, "a", "back")) {
		t.Errorf("missing loop diagnostic in %q", rec.lines)
	}
}

func TestFind_CancelledContext(t *testing.T) {
	root := t.TempDir()
	makeEnv(t, filepath.Join(root, "a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	envs, err := NewFinder(nil).Find(ctx, root, 3, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if envs != nil {
		t.Errorf("cancelled scan returned results: %+v", envs)
	}
}

func TestFind_CancelMidScan(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d"} {
		makeDir(t, filepath.Join(root, name, "x"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rep := ReporterFuncs{OnProgress: func(p Progress) {
		if p.Processed == 1 {
			cancel()
		}
	}}

	_, err := NewFinder(nil).Find(ctx, root, 3, rep)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFind_ReadDetails(t *testing.T) {
	root := t.TempDir()
	makeEnv(t, filepath.Join(root, "p", "env"))

	finder := NewFinder(nil)
	finder.ReadDetails = true
	envs, err := finder.Find(context.Background(), root, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 1 || envs[0].Config == nil {
		t.Fatalf("expected details, got %+v", envs)
	}
	if envs[0].Config.Version != "3.12.1" {
		t.Errorf("Version = %q", envs[0].Config.Version)
	}
}

func TestPercent(t *testing.T) {
	cases := []struct{ processed, visited, want int }{
		{0, 0, 0},
		{1, 2, 50},
		{3, 3, 100},
		{5, 4, 100},
	}
	for _, c := range cases {
		if got := percent(c.processed, c.visited); got != c.want {
			t.Errorf("percent(%d, %d) = %d, want %d", c.processed, c.visited, got, c.want)
		}
	}
}
