package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/absfs/compressio"
)

var recompressCmd = &cobra.Command{
	Use:   "recompress SRC DST",
	Short: "Convert a file from one compression method to another",
	Long: `Decompress SRC and write the same bytes to DST with another method.
Methods are inferred from the extensions unless --from or --to is given.

Examples:
  compressio recompress scores.gz scores.zst
  compressio recompress --to brotli --level 11 scores.gz scores`,
	Args: cobra.ExactArgs(2),
	RunE: runRecompress,
}

var (
	fromMethod string
	toMethod   string
	appendDst  bool
	exclusive  bool
)

func init() {
	recompressCmd.Flags().StringVar(&fromMethod, "from", "", "source compression method")
	recompressCmd.Flags().StringVar(&toMethod, "to", "", "destination compression method")
	recompressCmd.Flags().BoolVar(&appendDst, "append", false, "append to DST instead of replacing it")
	recompressCmd.Flags().BoolVar(&exclusive, "exclusive", false, "fail if DST exists")
	rootCmd.AddCommand(recompressCmd)
}

func runRecompress(cmd *cobra.Command, args []string) error {
	if appendDst && exclusive {
		return errors.New("--append and --exclusive are mutually exclusive")
	}
	codec, err := newCodec()
	if err != nil {
		return err
	}
	opts := compressio.RecompressOptions{
		From:             fromMethod,
		To:               toMethod,
		Level:            settings.GetInt("level"),
		DefaultExtension: true,
	}
	switch {
	case appendDst:
		opts.Mode = compressio.ModeAppend
	case exclusive:
		opts.Mode = compressio.ModeWriteExclusive
	}

	n, err := codec.Recompress(compressio.PathTarget(args[0]), compressio.PathTarget(args[1]), opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s: %s\n", args[0], args[1], formatBytes(n))
	return nil
}
