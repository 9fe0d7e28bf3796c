package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ComparativeGenomicsToolkit/refalign/pkg/fasta"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/gfio"
)

var renameIn string
var renameOut string
var renameEvent int

func init() {
	rootCmd.AddCommand(renameCmd)

	renameCmd.Flags().StringVarP(&renameIn, "in", "i", "stdin", "Fasta file. If none is specified, will read from stdin")
	renameCmd.Flags().StringVarP(&renameOut, "out", "o", "stdout", "Output file. If none is specified, will write to stdout")
	renameCmd.Flags().IntVarP(&renameEvent, "event", "e", 0, "Index of the assembly in its seqFile")

	renameCmd.Flags().SortFlags = false
}

var renameCmd = &cobra.Command{
	Use:   "rename",
	Short: "prefix every contig name of a fasta file with id=<event>|",
	Long:  `prefix every contig name of a fasta file with id=<event>|`,
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

		_, err = fasta.PrependUniqueIDs(in, out, renameEvent)

		return err
	},
}
