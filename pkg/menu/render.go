package menu

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Write renders entries to w in the given format.
func Write(w io.Writer, entries []Entry, format string) error {
	switch format {
	case FormatText, "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tSPECIALISATION\tID\tKERNEL\tPARAMS")
		for _, e := range entries {
			spec := e.Specialisation
			if spec == "" {
				spec = "-"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Version, spec, e.ID, e.Kernel, strings.Join(e.KernelParams, " "))
		}
		return tw.Flush()
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	default:
		return fmt.Errorf("unknown output format %q, valid formats are %s, %s and %s", format, FormatText, FormatYAML, FormatJSON)
	}
}
