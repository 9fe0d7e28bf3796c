package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ComparativeGenomicsToolkit/refalign/pkg/cigar"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/config"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/gfio"
)

var filterIn string
var filterOut string
var filterMinVariationLength int
var filterMinMapQ int

func init() {
	rootCmd.AddCommand(filterCmd)

	defaults := config.Default()

	filterCmd.Flags().StringVarP(&filterIn, "in", "i", "stdin", "lastz cigar file to filter. If none is specified, will read from stdin")
	filterCmd.Flags().StringVarP(&filterOut, "out", "o", "stdout", "Output file. If none is specified, will write to stdout")
	filterCmd.Flags().IntVarP(&filterMinVariationLength, "min-variation-length", "", defaults.Filters.MinVariationLength, "Shortest alignment (M+I+D) to keep")
	filterCmd.Flags().IntVarP(&filterMinMapQ, "min-mapq", "", defaults.Filters.MinMappingQuality, "Lowest mapping quality to keep")

	filterCmd.Flags().SortFlags = false
}

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "apply the dipcall vcf filter to lastz cigar records",
	Long: `apply the dipcall vcf filter to lastz cigar records

Records whose alignment is shorter than --min-variation-length, or whose
mapping quality is below --min-mapq, are dropped. Header lines are dropped too.`,
	Args: cobra.NoArgs,

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

		_, err = cigar.Filter(in, out, filterMinVariationLength, filterMinMapQ)

		return err
	},
}
