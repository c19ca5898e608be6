package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-pdf-areas/internal/layout"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultOCRLanguage = "eng"
	DefaultOCRScale    = 3.0
	DefaultEnvFile     = ".env"

	// EnvPrefix is prepended to every environment variable
	EnvPrefix = "MCP_PDF_AREAS"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the area extraction server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// PDF configuration
	PDFDirectory string
	MaxFileSize  int64 // Maximum PDF file size in bytes
	ContentHash  bool  // Hash file content into the cache fingerprint

	// OCR configuration
	OCRLanguage string  // tesseract languages joined with '+'
	OCRScale    float64 // raster pixels per document unit

	// Extraction heuristics
	Tolerance    float64
	LineFactor   float64
	ShortRuleMax float64
	PairSmall    float64
	PairSpread   float64
	PairCluster  float64

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	EnvFile    string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	tuning := layout.DefaultTuning()
	return &Config{
		Mode:         ModeStdio,
		Host:         DefaultHost,
		Port:         DefaultPort,
		PDFDirectory: currentDir,
		MaxFileSize:  DefaultMaxFileSize,
		OCRLanguage:  DefaultOCRLanguage,
		OCRScale:     DefaultOCRScale,
		Tolerance:    layout.DefaultTolerance,
		LineFactor:   tuning.LineFactor,
		ShortRuleMax: tuning.ShortRuleMax,
		PairSmall:    tuning.PairSmallSampleFactor,
		PairSpread:   tuning.PairUniformSpread,
		PairCluster:  tuning.PairClusterFactor,
		Version:      "1.0.0",
		ServerName:   "mcp-pdf-areas",
		LogLevel:     DefaultLogLevel,
		EnvFile:      DefaultEnvFile,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	if err := loadEnvFile(envFileFromArgs(cfg.EnvFile)); err != nil {
		return nil, err
	}

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadEnvFile loads variables from path without overriding ones already set.
// A missing default file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if path == DefaultEnvFile {
			return nil
		}
		return fmt.Errorf("env file not found: %s", path)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("cannot load env file %s: %w", path, err)
	}
	return nil
}

// envFileFromArgs finds --env-file before flags are parsed, since the file
// feeds the environment the flags default from
func envFileFromArgs(fallback string) string {
	if v := os.Getenv(EnvPrefix + "_ENVFILE"); v != "" {
		fallback = v
	}
	args := os.Args[1:]
	for i, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--env-file="):
			return strings.TrimPrefix(arg, "--env-file=")
		case arg == "--env-file" && i+1 < len(args):
			return args[i+1]
		}
	}
	return fallback
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("contenthash", cfg.ContentHash)
	viper.SetDefault("ocrlang", cfg.OCRLanguage)
	viper.SetDefault("ocrscale", cfg.OCRScale)
	viper.SetDefault("tolerance", cfg.Tolerance)
	viper.SetDefault("linefactor", cfg.LineFactor)
	viper.SetDefault("shortrule", cfg.ShortRuleMax)
	viper.SetDefault("pairsmall", cfg.PairSmall)
	viper.SetDefault("pairspread", cfg.PairSpread)
	viper.SetDefault("paircluster", cfg.PairCluster)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing PDF files")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	addExtractionFlags(pflag.CommandLine, cfg)
	pflag.String("env-file", cfg.EnvFile, "File with environment variables to load")
}

// extractionKeys are the settings shared by the server and the command line tool
var extractionKeys = []string{
	"maxfilesize", "contenthash", "ocrlang", "ocrscale", "tolerance",
	"linefactor", "shortrule", "pairsmall", "pairspread", "paircluster",
}

func addExtractionFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.Bool("contenthash", cfg.ContentHash, "Include a hash of the file content in the cache fingerprint")
	fs.String("ocrlang", cfg.OCRLanguage, "Tesseract languages, e.g. 'eng' or 'eng+deu'")
	fs.Float64("ocrscale", cfg.OCRScale, "Raster pixels per document unit for OCR areas")
	fs.Float64("tolerance", cfg.Tolerance, "How far text may overhang an area, in document units")
	fs.Float64("linefactor", cfg.LineFactor, "Largest line gap, in line heights, still read as a wrapped line")
	fs.Float64("shortrule", cfg.ShortRuleMax, "Longest rule, in document units, read as a fraction bar")
	fs.Float64("pairsmall", cfg.PairSmall, "Pair threshold in line heights when fewer than 4 values")
	fs.Float64("pairspread", cfg.PairSpread, "Relative gap spread below which pairing is disabled")
	fs.Float64("paircluster", cfg.PairCluster, "Pair threshold relative to the smallest gap")
}

func populateExtraction(v *viper.Viper, cfg *Config) {
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.ContentHash = v.GetBool("contenthash")
	cfg.OCRLanguage = v.GetString("ocrlang")
	cfg.OCRScale = v.GetFloat64("ocrscale")
	cfg.Tolerance = v.GetFloat64("tolerance")
	cfg.LineFactor = v.GetFloat64("linefactor")
	cfg.ShortRuleMax = v.GetFloat64("shortrule")
	cfg.PairSmall = v.GetFloat64("pairsmall")
	cfg.PairSpread = v.GetFloat64("pairspread")
	cfg.PairCluster = v.GetFloat64("paircluster")
}

// ExtractionFlags binds the extraction settings to a command's own flag set
type ExtractionFlags struct {
	flags *pflag.FlagSet
	v     *viper.Viper
}

// NewExtractionFlags adds the extraction settings and --env-file to fs
func NewExtractionFlags(fs *pflag.FlagSet) *ExtractionFlags {
	cfg := DefaultConfig()
	addExtractionFlags(fs, cfg)
	fs.String("env-file", cfg.EnvFile, "File with environment variables to load")

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for _, key := range extractionKeys {
		_ = v.BindPFlag(key, fs.Lookup(key))
	}
	return &ExtractionFlags{flags: fs, v: v}
}

// Load resolves the settings once the flag set is parsed. Flags win over
// environment variables, which win over the env file and the defaults.
func (e *ExtractionFlags) Load() (*Config, error) {
	cfg := DefaultConfig()

	envFile := cfg.EnvFile
	if v := os.Getenv(EnvPrefix + "_ENVFILE"); v != "" {
		envFile = v
	}
	if f := e.flags.Lookup("env-file"); f != nil && f.Changed {
		envFile = f.Value.String()
	}
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}
	cfg.EnvFile = envFile

	populateExtraction(e.v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, key := range append([]string{"mode", "host", "port", "dir", "loglevel"}, extractionKeys...) {
		_ = viper.BindPFlag(key, pflag.Lookup(key))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP PDF Areas - A Model Context Protocol server extracting field values from PDF regions\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/logs                     "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --ocrlang=eng+deu --ocrscale=4          # OCR settings\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 # server on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  %s_MODE        Server mode\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_DIR         PDF directory\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_OCRLANG     Tesseract languages\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_ENVFILE     Env file to load\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  (every flag maps to %s_<FLAG>)\n", EnvPrefix)
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	populateExtraction(viper.GetViper(), cfg)
	if f := pflag.Lookup("env-file"); f != nil {
		cfg.EnvFile = f.Value.String()
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Check if PDF directory exists, create if it doesn't
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.OCRScale <= 0 {
		return errors.New("OCR scale must be positive")
	}

	if c.Tolerance < 0 {
		return errors.New("tolerance cannot be negative")
	}

	for name, v := range map[string]float64{
		"linefactor":  c.LineFactor,
		"shortrule":   c.ShortRuleMax,
		"pairsmall":   c.PairSmall,
		"pairspread":  c.PairSpread,
		"paircluster": c.PairCluster,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Tuning returns the heuristic constants for line and pair reconstruction
func (c *Config) Tuning() layout.Tuning {
	return layout.Tuning{
		LineFactor:            c.LineFactor,
		ShortRuleMax:          c.ShortRuleMax,
		PairSmallSampleFactor: c.PairSmall,
		PairUniformSpread:     c.PairSpread,
		PairClusterFactor:     c.PairCluster,
	}
}

// OCRLanguages splits the configured language string for tesseract
func (c *Config) OCRLanguages() []string {
	var langs []string
	for _, l := range strings.Split(c.OCRLanguage, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return langs
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, MaxFileSize: %d, OCRLanguage: %s, OCRScale: %g}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel, c.MaxFileSize, c.OCRLanguage, c.OCRScale)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
