package menu_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/lanzaboote/lanzatool/pkg/bootspec"
	"github.com/lanzaboote/lanzatool/pkg/menu"
	"github.com/lanzaboote/lanzatool/pkg/profile"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spectrocloud-labs/herd"
	"github.com/twpayne/go-vfs/v4"
	"github.com/twpayne/go-vfs/v4/vfst"
	"gopkg.in/yaml.v3"
)

func bootspecFor(version int, specialisations ...string) string {
	doc := map[string]interface{}{
		bootspec.V1Key: v1(fmt.Sprintf("/nix/store/system-%d", version), fmt.Sprintf("NixOS %d", version)),
	}
	if len(specialisations) > 0 {
		specs := map[string]interface{}{}
		for _, s := range specialisations {
			specs[s] = map[string]interface{}{
				bootspec.V1Key: v1(fmt.Sprintf("/nix/store/system-%d-%s", version, s), s),
			}
		}
		doc[bootspec.SpecialisationKey] = specs
	}
	out, err := json.Marshal(doc)
	Expect(err).ToNot(HaveOccurred())
	return string(out)
}

func v1(toplevel, label string) map[string]interface{} {
	return map[string]interface{}{
		"system":       "x86_64-linux",
		"init":         toplevel + "/init",
		"initrd":       toplevel + "/initrd",
		"kernel":       toplevel + "/kernel",
		"kernelParams": []string{"init=" + toplevel + "/init"},
		"label":        label,
		"toplevel":     toplevel,
	}
}

var _ = Describe("menu", func() {
	var fs vfs.FS
	var cleanup func()

	BeforeEach(func() {
		var err error
		fs, cleanup, err = vfst.NewTestFS(map[string]interface{}{
			"/profiles/system-1-link/bootspec/boot.v1.json": bootspecFor(1),
			"/profiles/system-3-link/bootspec/boot.v1.json": bootspecFor(3, "recovery"),
			"/profiles/system-5-link/bootspec/boot.v1.json": bootspecFor(5),
			"/profiles/system-7-link/bootspec/boot.v1.json": "garbage",
			"/profiles/system-9-link":                       &vfst.Dir{Perm: 0o755},
		})
		Expect(err).ToNot(HaveOccurred())
	})
	AfterEach(func() {
		cleanup()
	})

	profiles := func(versions ...uint64) []profile.Profile {
		out := []profile.Profile{}
		for _, v := range versions {
			p, err := profile.FromPath(fmt.Sprintf("/profiles/system-%d-link", v))
			Expect(err).ToNot(HaveOccurred())
			out = append(out, p)
		}
		return out
	}

	Context("Builder", func() {
		It("registers one op per profile and the menu op", func() {
			g := herd.DAG(herd.EnableInit)
			b := &menu.Builder{FS: fs, Profiles: profiles(1, 3, 5)}
			Expect(b.Register(g)).To(Succeed())

			dag := g.Analyze()
			Expect(dag).To(HaveLen(3), menu.WriteDAG(g))
			Expect(dag[0][0].Name).To(Equal("init"))
			Expect(dag[1]).To(HaveLen(3), menu.WriteDAG(g))
			Expect(dag[2]).To(HaveLen(1), menu.WriteDAG(g))
			Expect(dag[2][0].Name).To(Equal("build-menu"))
			Expect(dag[2][0].WeakDeps).To(BeTrue())
			Expect(menu.WriteDAG(g)).To(MatchRegexp(`<build-menu> .*\(weak: true\)`))
		})

		It("does not collide on profiles sharing a version", func() {
			g := herd.DAG(herd.EnableInit)
			b := &menu.Builder{FS: fs, Profiles: []profile.Profile{
				{Version: 1, Path: "/profiles/system-1-link"},
				{Version: 1, Path: "/other/system-1-link"},
			}}
			Expect(b.Register(g)).To(Succeed())
			Expect(menu.WriteDAG(g)).To(ContainSubstring("resolve-generation-1-1"))
		})

		It("builds ordered entries including specialisations", func() {
			b := &menu.Builder{FS: fs, Profiles: profiles(5, 1, 3)}
			entries, err := b.Build(context.Background())
			Expect(err).ToNot(HaveOccurred())

			ids := []string{}
			for _, e := range entries {
				ids = append(ids, e.ID)
			}
			Expect(ids).To(Equal([]string{
				"nixos-generation-1",
				"nixos-generation-3",
				"nixos-generation-3-specialisation-recovery",
				"nixos-generation-5",
			}))
			Expect(entries[2].Specialisation).To(Equal("recovery"))
			Expect(entries[2].Version).To(Equal(uint64(3)))
			Expect(entries[2].Init).To(Equal("/nix/store/system-3-recovery/init"))
			Expect(entries[2].Title).To(Equal("Generation 3, recovery (recovery)"))
			Expect(b.Generations()).To(HaveLen(4))
		})

		It("builds the menu from the profiles that resolved and aggregates the errors", func() {
			b := &menu.Builder{FS: fs, Profiles: profiles(1, 7, 9)}
			entries, err := b.Build(context.Background())
			Expect(err).To(HaveOccurred())

			var merr *multierror.Error
			Expect(errors.As(err, &merr)).To(BeTrue())
			Expect(merr.Errors).To(HaveLen(2))
			Expect(errors.Is(err, bootspec.ErrFormat)).To(BeTrue())
			Expect(errors.Is(err, bootspec.ErrIO)).To(BeTrue())

			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Version).To(Equal(uint64(1)))
		})

		It("builds an empty menu without profiles", func() {
			b := &menu.Builder{FS: fs}
			entries, err := b.Build(context.Background())
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})
	})

	Context("NewEntry", func() {
		It("does not dereference a missing bootspec", func() {
			b := &menu.Builder{FS: fs, Profiles: profiles(1)}
			_, err := b.Build(context.Background())
			Expect(err).ToNot(HaveOccurred())
			base := b.Generations()[0]

			var e menu.Entry
			Expect(func() { e = menu.NewEntry(base.Specialise("empty", nil)) }).ToNot(Panic())
			Expect(e.ID).To(Equal("nixos-generation-1-specialisation-empty"))
			Expect(e.Version).To(Equal(uint64(1)))
			Expect(e.Kernel).To(BeEmpty())
		})
	})

	Context("Write", func() {
		var entries []menu.Entry

		BeforeEach(func() {
			b := &menu.Builder{FS: fs, Profiles: profiles(3)}
			var err error
			entries, err = b.Build(context.Background())
			Expect(err).ToNot(HaveOccurred())
		})

		It("renders text", func() {
			var buf bytes.Buffer
			Expect(menu.Write(&buf, entries, menu.FormatText)).To(Succeed())
			Expect(buf.String()).To(ContainSubstring("VERSION"))
			Expect(buf.String()).To(ContainSubstring("nixos-generation-3-specialisation-recovery"))
		})

		It("renders yaml", func() {
			var buf bytes.Buffer
			Expect(menu.Write(&buf, entries, menu.FormatYAML)).To(Succeed())
			var out []menu.Entry
			Expect(yaml.Unmarshal(buf.Bytes(), &out)).To(Succeed())
			Expect(out).To(Equal(entries))
		})

		It("renders json", func() {
			var buf bytes.Buffer
			Expect(menu.Write(&buf, entries, menu.FormatJSON)).To(Succeed())
			var out []menu.Entry
			Expect(json.Unmarshal(buf.Bytes(), &out)).To(Succeed())
			Expect(out).To(Equal(entries))
		})

		It("rejects unknown formats", func() {
			Expect(menu.Write(&bytes.Buffer{}, entries, "xml")).ToNot(Succeed())
		})
	})
})
