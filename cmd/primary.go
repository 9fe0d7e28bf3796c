package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ComparativeGenomicsToolkit/refalign/pkg/gfio"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/paf"
)

var primaryIn string
var primaryOut string

func init() {
	rootCmd.AddCommand(primaryCmd)

	primaryCmd.Flags().StringVarP(&primaryIn, "in", "i", "stdin", "PAF file. If none is specified, will read from stdin")
	primaryCmd.Flags().StringVarP(&primaryOut, "out", "o", "stdout", "Output file. If none is specified, will write to stdout")
}

var primaryCmd = &cobra.Command{
	Use:   "primary",
	Short: "keep the primary (tp:A:P) and inversion (tp:A:I) records of a PAF file",
	Long:  `keep the primary (tp:A:P) and inversion (tp:A:I) records of a PAF file`,
	Args:  cobra.NoArgs,

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

		_, err = paf.StripSecondaries(in, out)

		return err
	},
}
