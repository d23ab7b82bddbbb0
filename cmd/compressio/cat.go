package main

import (
	"github.com/spf13/cobra"

	"github.com/absfs/compressio"
)

var catCmd = &cobra.Command{
	Use:   "cat FILE",
	Short: "Write the decompressed bytes of FILE to stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  runCat,
}

var catMethod string

func init() {
	catCmd.Flags().StringVarP(&catMethod, "compression", "c", "", "compression method of FILE")
	rootCmd.AddCommand(catCmd)
}

func runCat(cmd *cobra.Command, args []string) error {
	codec, err := newCodec()
	if err != nil {
		return err
	}
	_, err = codec.Recompress(
		compressio.PathTarget(args[0]),
		compressio.StreamTarget(cmd.OutOrStdout()),
		compressio.RecompressOptions{From: catMethod, To: "none"},
	)
	return err
}
