package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/absfs/compressio"
)

var infoCmd = &cobra.Command{
	Use:   "info FILE",
	Short: "Show the compression a file is stored with",
	Long: `Show the compression method implied by the file extension, the method
its leading bytes look like, and the file size.

The sniffed method is informational: compressio never picks a method from
file contents.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	head := make([]byte, 16)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return err
	}

	byExt, ok := compressio.InferCompression(path)
	if !ok {
		byExt = "unknown"
	}
	byMagic, ok := compressio.SniffCompression(head[:n])
	if !ok {
		byMagic = "unknown"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File:       %s\n", path)
	fmt.Fprintf(out, "Size:       %s\n", formatBytes(st.Size()))
	fmt.Fprintf(out, "Extension:  %s\n", byExt)
	fmt.Fprintf(out, "Signature:  %s\n", byMagic)
	return nil
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
