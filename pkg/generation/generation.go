package generation

import (
	"cmp"
	"path/filepath"
	"strconv"

	"github.com/lanzaboote/lanzatool/internal/constants"
	"github.com/lanzaboote/lanzatool/pkg/bootspec"
	"github.com/lanzaboote/lanzatool/pkg/profile"
	"github.com/twpayne/go-vfs/v4"
)

// Generation is the system a profile points to, described by its bootspec.
// The version comes from the profile, the bootspec does not carry it.
//
// A Generation is either the base generation of a version or a named
// specialisation of it. Values are immutable once built.
type Generation struct {
	version        uint64
	specialisation string
	specialised    bool
	bootspec       *bootspec.Bootspec
}

// FromProfile loads the bootspec of profile from the host filesystem.
func FromProfile(p profile.Profile) (*Generation, error) {
	return FromProfileFS(vfs.OSFS, p)
}

// FromProfileFS loads <profile>/bootspec/boot.v1.json from fs. Failures are
// returned as *bootspec.Error with the attempted path.
func FromProfileFS(fs vfs.FS, p profile.Profile) (*Generation, error) {
	bs, err := bootspec.Load(fs, BootspecPath(p))
	if err != nil {
		return nil, err
	}
	return &Generation{
		version:  p.Version,
		bootspec: bs,
	}, nil
}

// BootspecPath is where the bootspec of the generation behind p lives.
func BootspecPath(p profile.Profile) string {
	return filepath.Join(p.Path, constants.BootspecRelPath)
}

// Specialise returns a sibling of g with the same version booting bs under
// name. bs is copied, g is not modified. bs must not be nil: a nil bs
// yields a generation whose Bootspec is nil.
func (g *Generation) Specialise(name string, bs *bootspec.Bootspec) *Generation {
	return &Generation{
		version:        g.version,
		specialisation: name,
		specialised:    true,
		bootspec:       bs.Clone(),
	}
}

// Specialisations derives one Generation per specialisation declared in the
// bootspec of g, ordered by name.
func (g *Generation) Specialisations() []*Generation {
	names := g.bootspec.SpecialisationNames()
	out := make([]*Generation, 0, len(names))
	for _, name := range names {
		out = append(out, g.Specialise(name, g.bootspec.Specialisations[name]))
	}
	return out
}

// IsSpecialized returns the specialisation name, if g is one.
func (g *Generation) IsSpecialized() (string, bool) {
	return g.specialisation, g.specialised
}

func (g *Generation) Version() uint64 {
	return g.version
}

// Bootspec returns a copy of the bootspec of g.
func (g *Generation) Bootspec() *bootspec.Bootspec {
	return g.bootspec.Clone()
}

// String renders the version only. Callers wanting the specialisation in a
// label use IsSpecialized.
func (g *Generation) String() string {
	return strconv.FormatUint(g.version, 10)
}

// Compare orders generations by version, then base generation first, then
// by specialisation name.
func Compare(a, b *Generation) int {
	if c := cmp.Compare(a.version, b.version); c != 0 {
		return c
	}
	if a.specialised != b.specialised {
		if !a.specialised {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.specialisation, b.specialisation)
}
