package fsops

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"path"
	"strings"

	"github.com/apimsync/apimsync/pkg/errors"
)

// ChangeStatus classifies a path touched by a commit.
type ChangeStatus int

// Change statuses, mapped from git's one-letter codes.
const (
	ChangeAdded ChangeStatus = iota
	ChangeModified
	ChangeDeleted
)

// Change is one file touched by a commit, relative to the repository
// root, slash-separated.
type Change struct {
	Path   string
	Status ChangeStatus
}

// ChangedFiles lists the files touched by commit, comparing it against
// its first parent (or against the empty tree for a root commit).
func ChangedFiles(ctx context.Context, repoDir, commit string) ([]Change, error) {
	out, err := git(ctx, repoDir, "diff-tree", "--no-commit-id", "--name-status", "--root", "-r", "--diff-merges=first-parent", commit)
	if err != nil {
		return nil, err
	}
	var changes []Change
	for line := range strings.Lines(string(out)) {
		line = strings.TrimRight(line, "\n")
		status, p, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		c := Change{Path: p}
		switch {
		case strings.HasPrefix(status, "A"):
			c.Status = ChangeAdded
		case strings.HasPrefix(status, "D"):
			c.Status = ChangeDeleted
		case strings.HasPrefix(status, "R"):
			// Renames arrive as "Rnnn\told\tnew": record the old path as
			// deleted and the new one as added.
			oldPath, newPath, hasNew := strings.Cut(p, "\t")
			if hasNew {
				changes = append(changes, Change{Path: oldPath, Status: ChangeDeleted})
				c.Path = newPath
				c.Status = ChangeAdded
			} else {
				c.Status = ChangeModified
			}
		default:
			c.Status = ChangeModified
		}
		changes = append(changes, c)
	}
	return changes, nil
}

// ParentCommit resolves the first parent of commit. ok is false for a
// root commit.
func ParentCommit(ctx context.Context, repoDir, commit string) (string, bool, error) {
	out, err := git(ctx, repoDir, "rev-parse", "--verify", "--quiet", commit+"^")
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return strings.TrimSpace(string(out)), true, nil
}

func gitShow(ctx context.Context, repoDir, commit, relPath string) ([]byte, error) {
	out, err := git(ctx, repoDir, "show", commit+":"+relPath)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "%s not in commit %s", relPath, commit)
		}
		return nil, err
	}
	return out, nil
}

// gitListTree lists the immediate subdirectory names of relPath in
// commit.
func gitListTree(ctx context.Context, repoDir, commit, relPath string) ([]string, error) {
	spec := commit + ":" + relPath
	out, err := git(ctx, repoDir, "ls-tree", "-d", "--name-only", spec)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, n := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if n != "" {
			names = append(names, n)
		}
	}
	return names, nil
}

// gitListFiles lists every file below relPath in commit, relative to
// relPath.
func gitListFiles(ctx context.Context, repoDir, commit, relPath string) ([]string, error) {
	spec := commit + ":" + relPath
	out, err := git(ctx, repoDir, "ls-tree", "-r", "--name-only", spec)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, f := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if f != "" {
			files = append(files, path.Clean(f))
		}
	}
	return files, nil
}

func git(ctx context.Context, repoDir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if isGitNotFound(msg) || isExitStatus(err, 1) && msg == "" {
			return nil, errors.New(errors.ErrCodeNotFound, "git %s: %s", strings.Join(args, " "), msg)
		}
		return nil, fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), msg, err)
	}
	return stdout.Bytes(), nil
}

func isGitNotFound(stderr string) bool {
	lower := strings.ToLower(stderr)
	return strings.Contains(lower, "does not exist") ||
		strings.Contains(lower, "not a valid object name") ||
		strings.Contains(lower, "exists on disk, but not in") ||
		strings.Contains(lower, "needed a single revision")
}

func isExitStatus(err error, code int) bool {
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.ExitCode() == code
	}
	return false
}
