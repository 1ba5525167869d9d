package menu

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/hashicorp/go-multierror"
	cnst "github.com/lanzaboote/lanzatool/internal/constants"
	internalUtils "github.com/lanzaboote/lanzatool/internal/utils"
	"github.com/lanzaboote/lanzatool/pkg/generation"
	"github.com/lanzaboote/lanzatool/pkg/profile"
	"github.com/spectrocloud-labs/herd"
	"github.com/twpayne/go-vfs/v4"
)

// Builder resolves the generations behind a set of profiles and turns them
// into boot menu entries. Each profile is resolved by its own DAG op; a
// profile failing to resolve does not prevent the menu from being built out
// of the others.
type Builder struct {
	FS       vfs.FS // defaults to vfs.OSFS
	Profiles []profile.Profile

	mu          sync.Mutex
	generations []*generation.Generation
	entries     []Entry
	errs        *multierror.Error
}

func (b *Builder) fs() vfs.FS {
	if b.FS == nil {
		return vfs.OSFS
	}
	return b.FS
}

// Register adds one resolve op per profile and the build-menu op to g.
func (b *Builder) Register(g *herd.Graph) error {
	b.mu.Lock()
	b.generations, b.entries, b.errs = nil, nil, nil
	b.mu.Unlock()

	seen := map[string]int{}
	deps := make([]string, 0, len(b.Profiles))
	for _, p := range b.Profiles {
		name := fmt.Sprintf("%s-%d", cnst.OpResolveGeneration, p.Version)
		// Profiles compare equal on version alone, op names must not.
		if n := seen[name]; n > 0 {
			seen[name]++
			name = fmt.Sprintf("%s-%d", name, n)
		} else {
			seen[name] = 1
		}
		if err := g.Add(name, herd.WithCallback(b.resolveOp(p))); err != nil {
			return err
		}
		deps = append(deps, name)
	}

	return g.Add(cnst.OpBuildMenu,
		herd.WithWeakDeps(deps...),
		herd.WeakDeps,
		herd.WithCallback(func(_ context.Context) error {
			b.mu.Lock()
			defer b.mu.Unlock()
			slices.SortFunc(b.generations, generation.Compare)
			b.entries = make([]Entry, 0, len(b.generations))
			for _, gen := range b.generations {
				b.entries = append(b.entries, NewEntry(gen))
			}
			internalUtils.Log.Debug().Int("entries", len(b.entries)).Msg("Built boot menu")
			return nil
		}))
}

func (b *Builder) resolveOp(p profile.Profile) func(context.Context) error {
	return func(_ context.Context) error {
		l := internalUtils.Log.With().Str("path", p.Path).Uint64("version", p.Version).Logger()

		gen, err := generation.FromProfileFS(b.fs(), p)
		if err != nil {
			l.Warn().Err(err).Msg("resolving generation")
			b.mu.Lock()
			b.errs = multierror.Append(b.errs, err)
			b.mu.Unlock()
			return err
		}

		specialisations := gen.Specialisations()
		l.Debug().Int("specialisations", len(specialisations)).Msg("Resolved generation")

		b.mu.Lock()
		b.generations = append(b.generations, gen)
		b.generations = append(b.generations, specialisations...)
		b.mu.Unlock()
		return nil
	}
}

// Generations returns the resolved generations in order, once the graph ran.
func (b *Builder) Generations() []*generation.Generation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.generations)
}

// Entries returns the menu built by the last run.
func (b *Builder) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.entries)
}

// Err returns the resolution errors of the last run, nil if all profiles
// resolved.
func (b *Builder) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errs.ErrorOrNil()
}

// Build registers b on a fresh graph and runs it. Entries of the profiles
// that resolved are returned along with the aggregated errors of the others.
func (b *Builder) Build(ctx context.Context) ([]Entry, error) {
	g := herd.DAG(herd.EnableInit)
	if err := b.Register(g); err != nil {
		return nil, err
	}

	runErr := g.Run(ctx)
	internalUtils.Log.Debug().Msg(WriteDAG(g))

	if err := b.Err(); err != nil {
		return b.Entries(), err
	}
	return b.Entries(), runErr
}

// WriteDAG renders the layers of the resolution graph, one op per line with
// its error and whether it ran, for dry runs and debug output.
func WriteDAG(g *herd.Graph) (out string) {
	for i, layer := range g.Analyze() {
		out += fmt.Sprintf("%d.\n", i+1)
		for _, op := range layer {
			if op.Error != nil {
				out += fmt.Sprintf(" <%s> (error: %s) (background: %t) (weak: %t) (run: %t)\n", op.Name, op.Error.Error(), op.Background, op.WeakDeps, op.Executed)
			} else {
				out += fmt.Sprintf(" <%s> (background: %t) (weak: %t) (run: %t)\n", op.Name, op.Background, op.WeakDeps, op.Executed)
			}
		}
	}
	return
}
