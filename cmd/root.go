package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logLevel string

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "", "info", "Logging level: one of panic, fatal, error, warn, info, debug, trace")
}

var (
	rootCmd = &cobra.Command{
		Use:   "refalign <seqFile> <refID> <outputFile>",
		Short: "align a set of assemblies to a reference with minimap2",
		Long: `align a set of assemblies to a reference with minimap2

Every assembly named in seqFile, except refID, is mapped to refID. The
primary alignments of all assemblies are written to outputFile as lastz
cigar records, and the secondary alignments next to it.`,
		Version:      "0.1.0",
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetOutput(os.Stderr)
			log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
			log.SetLevel(level)
			return nil
		},

		RunE: runAlign,
	}
)

// Execute executes the root command.
func Execute() {
	rootCmd.SilenceErrors = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
