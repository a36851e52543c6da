// Package config loads seqid settings. Default() gives a working baseline,
// Load reads a JSON or YAML file on top of it, and FromEnv overlays SEQID_*
// variables.
//
// Example:
//
//	cfg, err := config.Load("/etc/seqid.yaml")
//	if err != nil {
//	    return err
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	rt, err := runtime.Open(ctx, runtime.Options{Config: cfg})
package config
