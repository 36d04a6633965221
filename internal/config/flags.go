package config

// Overrides carries command-line settings that take precedence over the
// config file. Zero values leave the file/default value in place.
type Overrides struct {
	ConfigPath string
	Debug      bool
	LogFile    string
	Format     string
	SolidName  string
	Degrees    bool
}

// apply applies CLI overrides to the config.
func (o Overrides) apply(cfg *Config) {
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.LogFile != "" {
		cfg.Logging.LogFile = o.LogFile
	}
	if o.Format != "" {
		cfg.Output.Format = o.Format
	}
	if o.SolidName != "" {
		cfg.Output.SolidName = o.SolidName
	}
	if o.Degrees {
		cfg.Transform.AngleUnit = AngleDegrees
	}
}
