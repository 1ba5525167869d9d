package main

import (
	"fmt"
	"os"

	"github.com/lanzaboote/lanzatool/internal/cmd"
	"github.com/lanzaboote/lanzatool/internal/version"
	"github.com/urfave/cli/v2"
)

// Resolve and list the generations of a NixOS system for the boot menu.
func main() {
	app := cli.NewApp()
	app.Name = "lanzatool"
	app.Usage = "resolve system generations and their bootspecs"
	app.Version = version.Get().String()
	app.Authors = []*cli.Author{{Name: "Lanzaboote authors"}}
	app.Copyright = "lanzaboote authors"
	app.Flags = cmd.Flags
	app.Before = cmd.Before
	app.Commands = cmd.Commands

	err := app.Run(os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
