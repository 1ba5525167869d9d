package menu

import (
	"fmt"

	"github.com/lanzaboote/lanzatool/pkg/generation"
)

// Entry is one line of the boot menu.
type Entry struct {
	ID             string   `json:"id" yaml:"id"`
	Title          string   `json:"title" yaml:"title"`
	Version        uint64   `json:"version" yaml:"version"`
	Specialisation string   `json:"specialisation,omitempty" yaml:"specialisation,omitempty"`
	Kernel         string   `json:"kernel" yaml:"kernel"`
	Initrd         string   `json:"initrd,omitempty" yaml:"initrd,omitempty"`
	Init           string   `json:"init" yaml:"init"`
	KernelParams   []string `json:"kernelParams" yaml:"kernelParams"`
}

// NewEntry builds the menu entry of g. A generation without bootspec gets
// an entry without boot paths.
func NewEntry(g *generation.Generation) Entry {
	e := Entry{
		ID:      fmt.Sprintf("nixos-generation-%s", g),
		Title:   fmt.Sprintf("Generation %s", g),
		Version: g.Version(),
	}
	if bs := g.Bootspec(); bs != nil {
		e.Kernel = bs.V1.Kernel
		e.Initrd = bs.V1.InitrdPath()
		e.Init = bs.V1.Init
		e.KernelParams = bs.V1.KernelParams
		if bs.V1.Label != "" {
			e.Title = fmt.Sprintf("%s, %s", e.Title, bs.V1.Label)
		}
	}
	if name, ok := g.IsSpecialized(); ok {
		e.ID = fmt.Sprintf("%s-specialisation-%s", e.ID, name)
		e.Title = fmt.Sprintf("%s (%s)", e.Title, name)
		e.Specialisation = name
	}
	return e
}
