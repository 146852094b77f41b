package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sheetmirror/pkg/domain/model"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Resources holds the workbook table configuration
type Resources struct {
	Path string
}

// Flags returns CLI flags for resource table configuration
func (c *Resources) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "resources",
			Usage:       "TOML file overriding the built-in workbook table",
			Destination: &c.Path,
			Sources:     cli.EnvVars("SHEETMIRROR_RESOURCES"),
		},
	}
}

type resourceFile struct {
	Resources []resourceRow `toml:"resources"`
}

type resourceRow struct {
	Name string `toml:"name"`
	Env  string `toml:"env"`
	File string `toml:"file"`
}

// Load returns the workbook table: the built-in table when no file is
// configured, otherwise the rows from the TOML file.
func (c *Resources) Load() ([]model.Resource, error) {
	if c.Path == "" {
		return model.DefaultResources(), nil
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read resources file", goerr.V("path", c.Path))
	}

	var rf resourceFile
	if err := toml.Unmarshal(data, &rf); err != nil {
		return nil, goerr.Wrap(err, "failed to parse resources file", goerr.V("path", c.Path))
	}
	if len(rf.Resources) == 0 {
		return nil, goerr.New("resources file defines no resources", goerr.V("path", c.Path))
	}

	resources := make([]model.Resource, 0, len(rf.Resources))
	for _, row := range rf.Resources {
		if row.Name == "" || row.Env == "" || row.File == "" {
			return nil, goerr.New("resource row needs name, env and file",
				goerr.V("path", c.Path),
				goerr.V("row", row),
			)
		}
		resources = append(resources, model.Resource{
			Name:     row.Name,
			EnvVar:   row.Env,
			Filename: row.File,
		})
	}
	return resources, nil
}
