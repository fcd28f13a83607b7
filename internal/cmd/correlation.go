package cmd

import (
	"github.com/spf13/pflag"

	"github.com/scan-io-git/scanio-correlator/pkg/shared/config"
)

// CorrelationOptions are the command line overrides of the correlation directive.
type CorrelationOptions struct {
	Framework   string `json:"framework,omitempty"`
	ProjectRoot string `json:"project_root,omitempty"`
	StaticRoot  string `json:"static_root,omitempty"`
	DynamicRoot string `json:"dynamic_root,omitempty"`
}

// AddCorrelationFlags registers the flags shared by the commands that load a project.
func AddCorrelationFlags(fs *pflag.FlagSet, o *CorrelationOptions) {
	fs.StringVarP(&o.Framework, "framework", "f", "", "Framework of the application: SPRING_MVC, JSP, NONE or DETECT (default from config)")
	fs.StringVarP(&o.ProjectRoot, "project-root", "r", "", "Root folder of the application sources (default from config or the git repository of --source-folder)")
	fs.StringVar(&o.StaticRoot, "static-root", "", "Prefix stripped from source file paths (default is the project root)")
	fs.StringVar(&o.DynamicRoot, "dynamic-root", "", "Context path stripped from observed URLs, e.g. /petclinic")
}

// ResolveCorrelation overlays the set options on the configured correlation directive
// and validates the result. cfg is never modified.
func ResolveCorrelation(cfg *config.Config, o CorrelationOptions) (config.Correlation, error) {
	var c config.Correlation
	if cfg != nil {
		c = cfg.Correlation
		c.PartialMappings = append(c.PartialMappings[:0:0], cfg.Correlation.PartialMappings...)
	}

	c.Framework = config.SetThen(o.Framework, c.Framework)
	c.ProjectRoot = config.SetThen(o.ProjectRoot, c.ProjectRoot)
	c.StaticRoot = config.SetThen(o.StaticRoot, c.StaticRoot)
	c.DynamicRoot = config.SetThen(o.DynamicRoot, c.DynamicRoot)

	if err := config.ValidateCorrelationConfig(&c); err != nil {
		return c, err
	}
	return c, nil
}
