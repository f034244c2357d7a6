package publish

import (
	"context"
	"io"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/apimsync/apimsync/pkg/apim"
	"github.com/apimsync/apimsync/pkg/config"
	"github.com/apimsync/apimsync/pkg/fsops"
	"github.com/apimsync/apimsync/pkg/layout"
	"github.com/apimsync/apimsync/pkg/memo"
	"github.com/apimsync/apimsync/pkg/registry"
)

// Publisher applies a tree snapshot - or the diff between two commits of
// it - to the live service.
//
// Every key is processed through a memoised future, so a resource is put
// or deleted at most once even when reached from several dependents. Puts
// wait for their predecessors in the current snapshot; deletes wait for
// their successors in the previous one.
type Publisher struct {
	Client     *apim.Client
	ServiceDir string
	// RepoDir is the git repository root containing ServiceDir. Needed
	// only when CommitID is set.
	RepoDir string
	// CommitID switches the publisher to diff mode: only the files
	// touched by the commit are processed, and the commit's first parent
	// becomes the "previous" side.
	CommitID string
	Matcher  *config.Matcher
	Logger   *log.Logger
	// DryRun computes the plan and logs the operations without touching
	// the service.
	DryRun bool

	current  fsops.Operations
	previous fsops.Operations
	relCur   *Relationships
	relPrev  *Relationships
	target   map[string]registry.Key

	futures         memo.Map[string, struct{}]
	currentRevision memo.Map[string, string]
}

// Run computes the set of keys to process and drives the ordered puts and
// deletes.
func (p *Publisher) Run(ctx context.Context) error {
	if p.Logger == nil {
		p.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if err := p.prepare(ctx); err != nil {
		return err
	}
	p.Logger.Info("publishing", "resources", len(p.target), "diff", p.CommitID != "")

	g, ctx := errgroup.WithContext(ctx)
	for _, key := range sortedKeys(p.target) {
		g.Go(func() error {
			return p.process(ctx, key)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	p.Logger.Info("publish finished", "resources", len(p.target))
	return nil
}

// prepare resolves the file operations for both sides, builds their
// relationship maps, and computes the set of keys to process.
func (p *Publisher) prepare(ctx context.Context) error {
	if p.CommitID == "" {
		p.current = fsops.Local(p.ServiceDir)
		p.previous = fsops.Empty()
	} else {
		p.current = fsops.Commit(p.RepoDir, p.CommitID, p.ServiceDir)
		parent, ok, err := fsops.ParentCommit(ctx, p.RepoDir, p.CommitID)
		if err != nil {
			return err
		}
		if ok {
			p.previous = fsops.Commit(p.RepoDir, parent, p.ServiceDir)
		} else {
			p.previous = fsops.Empty()
		}
	}

	curParser := &Parser{ServiceDir: p.ServiceDir, Ops: p.current}
	prevParser := &Parser{ServiceDir: p.ServiceDir, Ops: p.previous}

	var err error
	if p.relCur, err = BuildRelationships(ctx, curParser); err != nil {
		return err
	}
	if p.relPrev, err = BuildRelationships(ctx, prevParser); err != nil {
		return err
	}

	p.target = make(map[string]registry.Key)
	if p.CommitID == "" {
		for _, key := range p.relCur.ParsedKeys() {
			p.target[key.Fold()] = key
		}
		return nil
	}

	changes, err := fsops.ChangedFiles(ctx, p.RepoDir, p.CommitID)
	if err != nil {
		return err
	}
	for _, change := range changes {
		rel, ok := p.serviceRelative(change.Path)
		if !ok {
			continue
		}
		parser := curParser
		if change.Status == fsops.ChangeDeleted {
			parser = prevParser
		}
		key, ok, err := parser.Parse(ctx, rel)
		if err != nil {
			return err
		}
		if ok {
			p.target[key.Fold()] = key
		}
	}
	return nil
}

// serviceRelative rebases a repo-relative change path against the service
// directory.
func (p *Publisher) serviceRelative(repoRel string) (string, bool) {
	if p.RepoDir == "" {
		return repoRel, true
	}
	abs := filepath.Join(p.RepoDir, filepath.FromSlash(repoRel))
	return layout.RelativeToService(p.ServiceDir, abs)
}

// process runs the memoised put-or-delete future for key. Keys outside
// the target set still traverse - they order their neighbours - but
// perform no I/O of their own.
func (p *Publisher) process(ctx context.Context, key registry.Key) error {
	_, err := p.futures.Do(ctx, key.Fold(), func(ctx context.Context) (struct{}, error) {
		if p.isInFileSystem(ctx, key) {
			return struct{}{}, p.processPut(ctx, key)
		}
		return struct{}{}, p.processDelete(ctx, key)
	})
	return err
}

func (p *Publisher) processPut(ctx context.Context, key registry.Key) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, pred := range p.relCur.Predecessors(key) {
		g.Go(func() error {
			return p.process(gctx, pred)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if _, ok := p.target[key.Fold()]; !ok {
		return nil
	}
	return p.putResource(ctx, key)
}

func (p *Publisher) processDelete(ctx context.Context, key registry.Key) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, succ := range p.relPrev.Successors(key) {
		g.Go(func() error {
			return p.process(gctx, succ)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if _, ok := p.target[key.Fold()]; !ok {
		return nil
	}
	return p.deleteResource(ctx, key)
}

// isInFileSystem reports whether the current snapshot holds any artefact
// of key: its information file, its policy file, or - for API kinds - a
// specification file.
func (p *Publisher) isInFileSystem(ctx context.Context, key registry.Key) bool {
	if path, ok := layout.InformationFile(p.ServiceDir, key); ok {
		if p.fileExists(ctx, path) {
			return true
		}
	}
	if path, ok := layout.PolicyFile(p.ServiceDir, key); ok {
		if p.fileExists(ctx, path) {
			return true
		}
	}
	if key.Kind.API {
		if _, _, ok := p.findSpecificationFile(ctx, key); ok {
			return true
		}
	}
	// Kinds without any file artefact of their own (API operations) are
	// never parsed; they count as present when the current relationships
	// register them as the parent of a policy file below their directory.
	if !key.Kind.HasInformationFile() && !key.Kind.IsPolicy() && !key.Kind.API {
		return p.relCur.Contains(key)
	}
	return false
}

func (p *Publisher) fileExists(ctx context.Context, path string) bool {
	_, err := p.current.ReadFile(ctx, path)
	return err == nil
}

func sortedKeys(m map[string]registry.Key) []registry.Key {
	folds := make([]string, 0, len(m))
	for f := range m {
		folds = append(folds, f)
	}
	sort.Strings(folds)
	keys := make([]registry.Key, len(folds))
	for i, f := range folds {
		keys[i] = m[f]
	}
	return keys
}
