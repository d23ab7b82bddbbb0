package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/absfs/compressio"
	zapmetrics "github.com/absfs/compressio/metrics/logger"
)

var (
	// Global flags.
	cfgFile string
	verbose bool

	settings = viper.New()
	logger   = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "compressio",
	Short: "Inspect and convert compressed serialized files",
	Long: `compressio works with files written by the compressio Go package.

Settings are read from flags, from COMPRESSIO_* environment variables and
from an optional config file.

Examples:
  # List compression methods and serializers
  compressio methods

  # Show what a file looks like
  compressio info scores.gz

  # Convert between compression methods
  compressio recompress scores.gz scores.zst

  # Print the decompressed bytes
  compressio cat scores.bz2`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.Int("level", 0, "compression level, 0 selects the library default")
	flags.String("default-compression", "", "method used when a path has no known extension")

	settings.SetEnvPrefix("COMPRESSIO")
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
	_ = settings.BindPFlags(flags)
}

func setup(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		settings.SetConfigFile(cfgFile)
		if err := settings.ReadInConfig(); err != nil {
			return err
		}
	}
	if settings.GetBool("verbose") {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l
		compressio.SetLogger(l)
	}
	return nil
}

// newCodec builds a codec from the current settings.
func newCodec() (*compressio.Codec, error) {
	cfg := compressio.DefaultConfig()
	cfg.Logger = logger
	cfg.Metrics = zapmetrics.New(logger)
	cfg.Level = settings.GetInt("level")
	cfg.DefaultCompression = settings.GetString("default-compression")
	return compressio.New(cfg)
}
