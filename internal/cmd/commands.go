package cmd

import (
	"fmt"
	"os"

	cnst "github.com/lanzaboote/lanzatool/internal/constants"
	"github.com/lanzaboote/lanzatool/internal/utils"
	"github.com/lanzaboote/lanzatool/internal/version"
	"github.com/lanzaboote/lanzatool/pkg/generation"
	"github.com/lanzaboote/lanzatool/pkg/menu"
	"github.com/lanzaboote/lanzatool/pkg/profile"
	"github.com/spectrocloud-labs/herd"
	"github.com/twpayne/go-vfs/v4"
	"github.com/urfave/cli/v2"
)

var outputFlag = &cli.StringFlag{
	Name:    "output",
	Aliases: []string{"o"},
	Usage:   "output format: text, yaml or json",
	Value:   menu.FormatText,
}

var Commands = []*cli.Command{
	{
		Name:  "list",
		Usage: "list the boot menu entries of all system generations",
		Description: `
Discovers the system profiles, resolves the generation behind each of them and
prints one entry per generation and specialisation.
`,
		Flags: []cli.Flag{
			outputFlag,
			&cli.BoolFlag{
				Name:    "dry-run",
				EnvVars: []string{"LANZATOOL_DRY_RUN"},
				Usage:   "only print the resolution graph",
			},
		},
		Action: func(c *cli.Context) error {
			dir := setting(c, "profiles-dir", cnst.EnvProfilesDir)
			profiles, err := utils.DiscoverProfiles(vfs.OSFS, dir)
			if err != nil {
				return fmt.Errorf("discovering profiles in %s: %w", dir, err)
			}
			utils.Log.Debug().Str("dir", dir).Int("profiles", len(profiles)).Msg("Discovered profiles")

			b := &menu.Builder{FS: vfs.OSFS, Profiles: profiles}

			if c.Bool("dry-run") {
				g := herd.DAG(herd.EnableInit)
				if err := b.Register(g); err != nil {
					return err
				}
				fmt.Fprint(c.App.Writer, menu.WriteDAG(g))
				return nil
			}

			entries, err := b.Build(c.Context)
			if werr := menu.Write(c.App.Writer, entries, c.String("output")); werr != nil {
				return werr
			}
			return err
		},
	},
	{
		Name:      "show",
		Usage:     "resolve a single profile",
		ArgsUsage: "<profile-path>",
		Flags:     []cli.Flag{outputFlag},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one profile path", 2)
			}
			p, err := profile.FromPath(c.Args().First())
			if err != nil {
				return err
			}
			gen, err := generation.FromProfile(p)
			if err != nil {
				return err
			}
			entries := []menu.Entry{menu.NewEntry(gen)}
			for _, s := range gen.Specialisations() {
				entries = append(entries, menu.NewEntry(s))
			}
			return menu.Write(c.App.Writer, entries, c.String("output"))
		},
	},
	{
		Name:  "status",
		Usage: "show secure boot and EFI system partition state",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "esp",
				EnvVars: []string{cnst.EnvESP},
				Usage:   "EFI system partition mountpoint, read from fstab when unset",
			},
			&cli.StringFlag{
				Name:  "fstab",
				Value: cnst.DefaultFstab,
			},
		},
		Action: func(c *cli.Context) error {
			esp := setting(c, "esp", cnst.EnvESP)
			if esp == "" {
				found, err := utils.FindESP(c.String("fstab"))
				if err != nil {
					utils.Log.Warn().Err(err).Msg("locating ESP")
				}
				esp = found
			}

			fmt.Fprintf(c.App.Writer, "Secure Boot: %s\n", enabled(utils.SecureBootEnabled()))
			if esp == "" {
				fmt.Fprintln(c.App.Writer, "ESP: unknown")
				return nil
			}
			mounted, err := utils.IsMounted(esp)
			if err != nil {
				return fmt.Errorf("checking mount status of %s: %w", esp, err)
			}
			fmt.Fprintf(c.App.Writer, "ESP: %s (mounted: %t)\n", esp, mounted)
			return nil
		},
	},
	{
		Name:  "version",
		Usage: "version",
		Action: func(c *cli.Context) error {
			v := version.Get()
			utils.Log.Info().Str("commit", v.GitCommit).Str("compiled with", v.GoVersion).Str("version", v.Version).Msg("lanzatool")
			return nil
		},
	},
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

// Before loads the env config file and sets up logging. Flags that read
// from the environment are evaluated after it ran.
func Before(c *cli.Context) error {
	utils.SetLogger(c.Bool("debug"))
	if err := utils.LoadConfig(c.String("config")); err != nil {
		return err
	}
	// the config file may have enabled debug output
	utils.SetLogger(c.Bool("debug"))
	return nil
}

// Flags are the global flags of the application.
var Flags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		EnvVars: []string{cnst.EnvConfigFile},
		Value:   cnst.DefaultConfigFile,
		Usage:   "env file with LANZATOOL_* settings",
	},
	&cli.StringFlag{
		Name:    "profiles-dir",
		EnvVars: []string{cnst.EnvProfilesDir},
		Value:   cnst.DefaultProfilesDir,
	},
	&cli.BoolFlag{
		Name:    "debug",
		EnvVars: []string{cnst.EnvDebug},
	},
}

// setting returns the value of a string flag, falling back to env when the
// flag was neither given nor set in the environment at startup. env may have
// been populated from the config file by Before.
func setting(c *cli.Context, flag, env string) string {
	if c.IsSet(flag) {
		return c.String(flag)
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return c.String(flag)
}
