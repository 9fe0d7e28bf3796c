package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/ComparativeGenomicsToolkit/refalign/pkg/convert"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/gfio"
)

var convertIn string
var convertOut string
var convertSecondary string

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertIn, "in", "i", "stdin", "PAF file with cg:Z tags. If none is specified, will read from stdin")
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "stdout", "Output file for primary and inversion records. If none is specified, will write to stdout")
	convertCmd.Flags().StringVarP(&convertSecondary, "secondary", "s", "", "Output file for secondary records. If none is specified, they are discarded")

	convertCmd.Flags().SortFlags = false
}

var convertCmd = &cobra.Command{
	Use:     "convert",
	Aliases: []string{"paf2cigar"},
	Short:   "convert PAF records to lastz cigar records",
	Long:    `convert PAF records to lastz cigar records`,
	Args:    cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) (err error) {

		in, err := gfio.OpenIn(*cmd.Flag("in"))
		if err != nil {
			return err
		}
		defer gfio.Close(in)

		out, err := gfio.OpenOut(*cmd.Flag("out"))
		if err != nil {
			return err
		}
		defer func() {
			if cerr := gfio.Close(out); err == nil {
				err = cerr
			}
		}()

		var secondary io.Writer = io.Discard
		if convertSecondary != "" {
			f, oerr := gfio.OpenOut(*cmd.Flag("secondary"))
			if oerr != nil {
				return oerr
			}
			defer func() {
				if cerr := gfio.Close(f); err == nil {
					err = cerr
				}
			}()
			secondary = f
		}

		_, _, err = convert.PafToCigar(in, out, secondary)

		return err
	},
}
