package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"git.home.luguber.info/inful/staticrender/internal/version"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct {
	JSON bool `name:"json" help:"Print version information as JSON"`
}

func (v *VersionCmd) Run(_ *Global, _ *CLI) error {
	info := version.Get()
	if v.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Println(info.String())
	return nil
}
