package main

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const envPrefix = "HOSTSFILE_WEBHOOK_"

type Config struct {
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`

	Backend            string `yaml:"backend"`
	HostsFile          string `yaml:"hostsFile"`
	ConfigMapNamespace string `yaml:"configMapNamespace"`
	ConfigMapName      string `yaml:"configMapName"`

	ListenAddress  string `yaml:"listenAddress"`
	MetricsAddress string `yaml:"metricsAddress"`

	EntryComment  string   `yaml:"entryComment"`
	DomainFilters []string `yaml:"domainFilters"`
}

func defaultConfig() Config {
	return Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Backend:            "disk",
		ConfigMapNamespace: "default",
		ConfigMapName:      "external-dns-hostsfile",
		ListenAddress:      ":8888",
		MetricsAddress:     ":8080",
		EntryComment:       "managed by external-dns",
	}
}

type stringSetting struct {
	flag  string
	usage string
	field func(*Config) *string
}

var stringSettings = []stringSetting{
	{"log-level", "Log level: trace, debug, info, warn, error", func(c *Config) *string { return &c.LogLevel }},
	{"log-format", "Log format: text or json", func(c *Config) *string { return &c.LogFormat }},
	{"backend", "Backend to persist hostsfile, options: disk, configmap", func(c *Config) *string { return &c.Backend }},
	{"hosts-file", "Path to the hosts file to update", func(c *Config) *string { return &c.HostsFile }},
	{"configmap-namespace", "Namespace for the configmap backend", func(c *Config) *string { return &c.ConfigMapNamespace }},
	{"configmap-name", "Name of the configmap to use for the configmap backend", func(c *Config) *string { return &c.ConfigMapName }},
	{"listen-address", "Address of the external-dns webhook API", func(c *Config) *string { return &c.ListenAddress }},
	{"metrics-address", "Address serving /healthz and /metrics", func(c *Config) *string { return &c.MetricsAddress }},
	{"entry-comment", "Comment written after every managed entry, empty for none", func(c *Config) *string { return &c.EntryComment }},
}

const domainFilterFlag = "domain-filter"

func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// bindConfigFlags registers a flag per setting on fs, writing into flags.
func bindConfigFlags(fs *pflag.FlagSet, flags *Config) {
	defaults := defaultConfig()
	for _, s := range stringSettings {
		fs.StringVar(s.field(flags), s.flag, *s.field(&defaults), fmt.Sprintf("%s (env %s)", s.usage, envName(s.flag)))
	}
	fs.StringSliceVar(&flags.DomainFilters, domainFilterFlag, nil, fmt.Sprintf("Limit records to these domains (env %s)", envName(domainFilterFlag)))
}

// resolveConfig layers the settings: defaults, then the YAML file at path
// (if any), then environment variables, then flags set on the command line.
func resolveConfig(fs *pflag.FlagSet, flags *Config, path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	for _, s := range stringSettings {
		if v, ok := os.LookupEnv(envName(s.flag)); ok {
			*s.field(&cfg) = v
		}
		if fs.Changed(s.flag) {
			*s.field(&cfg) = *s.field(flags)
		}
	}

	if v, ok := os.LookupEnv(envName(domainFilterFlag)); ok && v != "" {
		cfg.DomainFilters = strings.Split(v, ",")
	}
	if fs.Changed(domainFilterFlag) {
		cfg.DomainFilters = flags.DomainFilters
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Backend {
	case "disk":
		if c.HostsFile == "" {
			return fmt.Errorf("you must provide a path to the hosts file when using the disk backend")
		}
	case "configmap":
		if c.ConfigMapNamespace == "" || c.ConfigMapName == "" {
			return fmt.Errorf("you must provide a namespace and name for the configmap when using the configmap backend")
		}
	default:
		return fmt.Errorf("unknown backend %s, supported backends are: disk, configmap", c.Backend)
	}
	return nil
}

func setupLogging(level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(lvl)

	switch format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q, supported formats are: text, json", format)
	}
	return nil
}
