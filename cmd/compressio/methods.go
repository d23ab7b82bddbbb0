package main

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/absfs/compressio"
)

var methodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "List compression methods and serializers",
	Args:  cobra.NoArgs,
	RunE:  runMethods,
}

func init() {
	rootCmd.AddCommand(methodsCmd)
}

func modeMark(d *compressio.CompressionDescriptor, kind compressio.ModeKind) string {
	if _, err := d.DefaultMode(kind); err != nil {
		return "-"
	}
	return "yes"
}

func aliasesOf(aliases map[string]string, name string) string {
	names := lo.Keys(lo.PickByValues(aliases, []string{name}))
	slices.Sort(names)
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}

func runMethods(cmd *cobra.Command, args []string) error {
	reg := compressio.Compressions()
	aliases := reg.Aliases()

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPRESSION\tEXTENSIONS\tREAD\tWRITE\tAPPEND\tALIASES")
	for name := range reg.Methods() {
		d, err := reg.Resolve(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", name,
			strings.Join(d.Extensions, ","),
			modeMark(d, compressio.KindRead),
			modeMark(d, compressio.KindWrite),
			modeMark(d, compressio.KindAppend),
			aliasesOf(aliases, name),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout())
	sers := compressio.Serializers()
	def := sers.Default()
	for name := range sers.Methods() {
		if name == def {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (default)\n", name)
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
