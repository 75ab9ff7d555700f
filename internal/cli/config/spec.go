package config

// CLIConfig is the configuration for ispstatus-cli.
type CLIConfig struct {
	Server string `yaml:"server"`
	Prefix string `yaml:"prefix"`
	APIKey string `yaml:"api_key"`
	Output string `yaml:"output"` // table, json, yaml

	// CAFile is a PEM bundle trusted in addition to the system roots.
	CAFile string `yaml:"ca_file,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server: "http://localhost:3000",
		Prefix: "/isp-status",
		Output: "table",
	}
}
