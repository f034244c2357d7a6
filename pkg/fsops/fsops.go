// Package fsops abstracts file access for the publisher so the same
// traversal reads either the working tree or the contents of a git
// commit. The git side shells out to the git CLI; it is a deliberately
// narrow adapter, not a general git client.
package fsops

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apimsync/apimsync/pkg/errors"
)

// Operations is the file-access handle the publisher traverses with.
// Paths given to ReadFile and SubDirectories are absolute (below the
// service directory); ServiceFiles yields paths relative to the service
// directory, slash-separated.
type Operations struct {
	// ReadFile reads one file. A missing file yields an error satisfying
	// [IsNotExist].
	ReadFile func(ctx context.Context, path string) ([]byte, error)

	// SubDirectories lists the immediate subdirectories of dir, sorted.
	SubDirectories func(ctx context.Context, dir string) ([]string, error)

	// ServiceFiles enumerates every file under the service directory.
	ServiceFiles func(ctx context.Context) ([]string, error)
}

// IsNotExist reports whether err marks a missing file under either
// backing.
func IsNotExist(err error) bool {
	return os.IsNotExist(err) || errors.Is(err, errors.ErrCodeNotFound)
}

// Empty returns Operations over an empty tree. The publisher uses it as
// the "previous" side when no parent commit exists.
func Empty() Operations {
	return Operations{
		ReadFile: func(_ context.Context, path string) ([]byte, error) {
			return nil, os.ErrNotExist
		},
		SubDirectories: func(context.Context, string) ([]string, error) { return nil, nil },
		ServiceFiles:   func(context.Context) ([]string, error) { return nil, nil },
	}
}

// Local returns Operations over the live filesystem rooted at serviceDir.
func Local(serviceDir string) Operations {
	return Operations{
		ReadFile: func(_ context.Context, path string) ([]byte, error) {
			return os.ReadFile(path)
		},
		SubDirectories: func(_ context.Context, dir string) ([]string, error) {
			entries, err := os.ReadDir(dir)
			if err != nil {
				if os.IsNotExist(err) {
					return nil, nil
				}
				return nil, err
			}
			var dirs []string
			for _, e := range entries {
				if e.IsDir() {
					dirs = append(dirs, filepath.Join(dir, e.Name()))
				}
			}
			return dirs, nil
		},
		ServiceFiles: func(_ context.Context) ([]string, error) {
			var files []string
			err := filepath.WalkDir(serviceDir, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() {
					rel, relErr := filepath.Rel(serviceDir, path)
					if relErr != nil {
						return relErr
					}
					files = append(files, filepath.ToSlash(rel))
				}
				return nil
			})
			if err != nil {
				if os.IsNotExist(err) {
					return nil, nil
				}
				return nil, err
			}
			sort.Strings(files)
			return files, nil
		},
	}
}

// Commit returns Operations over the tree of a git commit. repoDir is the
// repository root; serviceDir is the service directory as an absolute path
// below it. Paths are translated to repo-relative form before hitting git.
func Commit(repoDir, commit, serviceDir string) Operations {
	toRepoRel := func(p string) (string, bool) {
		rel, err := filepath.Rel(repoDir, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			return "", false
		}
		return filepath.ToSlash(rel), true
	}

	return Operations{
		ReadFile: func(ctx context.Context, path string) ([]byte, error) {
			rel, ok := toRepoRel(path)
			if !ok {
				return nil, errors.New(errors.ErrCodeNotFound, "path %s outside repository", path)
			}
			return gitShow(ctx, repoDir, commit, rel)
		},
		SubDirectories: func(ctx context.Context, dir string) ([]string, error) {
			rel, ok := toRepoRel(dir)
			if !ok {
				return nil, nil
			}
			names, err := gitListTree(ctx, repoDir, commit, rel)
			if err != nil {
				return nil, err
			}
			var dirs []string
			for _, n := range names {
				dirs = append(dirs, filepath.Join(dir, n))
			}
			return dirs, nil
		},
		ServiceFiles: func(ctx context.Context) ([]string, error) {
			rel, ok := toRepoRel(serviceDir)
			if !ok {
				return nil, nil
			}
			files, err := gitListFiles(ctx, repoDir, commit, rel)
			if err != nil {
				return nil, err
			}
			sort.Strings(files)
			return files, nil
		},
	}
}
