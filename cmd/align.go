package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ComparativeGenomicsToolkit/refalign/pkg/blobstore"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/config"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/refalign"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/regions"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/seqfile"
)

var alignConfigFile string
var alignEnvFile string
var alignBedFilter bool
var alignVcfFilter bool
var alignMinVariationLength int
var alignMinMapQ int
var alignMinAlignmentLength int
var alignExcludeBed string
var alignDebugExport bool
var alignDebugExportDir string
var alignMinimap2 string
var alignThreads int
var alignJobs int
var alignWorkDir string

func init() {
	defaults := config.Default()

	rootCmd.Flags().StringVarP(&alignConfigFile, "config", "c", "", "TOML file with default settings")
	rootCmd.Flags().StringVarP(&alignEnvFile, "env-file", "", ".env", "File of environment variables to load if it exists")
	rootCmd.Flags().BoolVarP(&alignBedFilter, "dipcall-bed-filter", "", false, "Apply the dipcall bed filter to each assembly's primary mappings before conversion")
	rootCmd.Flags().BoolVarP(&alignVcfFilter, "dipcall-vcf-filter", "", false, "Apply the dipcall vcf filter to the consolidated primary alignments")
	rootCmd.Flags().IntVarP(&alignMinVariationLength, "min-variation-length", "", defaults.Filters.MinVariationLength, "Shortest alignment (M+I+D) kept by the dipcall vcf filter")
	rootCmd.Flags().IntVarP(&alignMinMapQ, "min-mapq", "", defaults.Filters.MinMappingQuality, "Lowest mapping quality kept by the dipcall vcf filter")
	rootCmd.Flags().IntVarP(&alignMinAlignmentLength, "min-alignment-length", "", defaults.Filters.MinAlignmentLength, "Shortest mapping block kept by the dipcall bed filter")
	rootCmd.Flags().StringVarP(&alignExcludeBed, "exclude-bed", "", "", "BED file of reference regions the dipcall bed filter excludes")
	rootCmd.Flags().BoolVarP(&alignDebugExport, "debug-export", "", false, "Export every assembly's mappings and cigar records")
	rootCmd.Flags().StringVarP(&alignDebugExportDir, "debug-export-dir", "", defaults.Run.DebugExportDir, "Directory for --debug-export files")
	rootCmd.Flags().StringVarP(&alignMinimap2, "minimap2", "", defaults.Aligner.Path, "minimap2 executable")
	rootCmd.Flags().IntVarP(&alignThreads, "threads", "t", defaults.Aligner.Threads, "Threads for each minimap2 run")
	rootCmd.Flags().IntVarP(&alignJobs, "jobs", "j", defaults.Run.Jobs, "Number of jobs to run at once")
	rootCmd.Flags().StringVarP(&alignWorkDir, "workdir", "w", "", "Directory for intermediate files. Defaults to the system temporary directory")

	rootCmd.Flags().SortFlags = false
}

// alignConfig merges the config file, the environment and the flags set on
// the command line, in increasing order of precedence.
func alignConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if alignConfigFile != "" {
		var err error
		if cfg, err = config.Load(alignConfigFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(alignEnvFile); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("min-variation-length") {
		cfg.Filters.MinVariationLength = alignMinVariationLength
	}
	if flags.Changed("min-mapq") {
		cfg.Filters.MinMappingQuality = alignMinMapQ
	}
	if flags.Changed("min-alignment-length") {
		cfg.Filters.MinAlignmentLength = alignMinAlignmentLength
	}
	if flags.Changed("exclude-bed") {
		cfg.Filters.ExcludeBed = alignExcludeBed
	}
	if flags.Changed("debug-export-dir") {
		cfg.Run.DebugExportDir = alignDebugExportDir
	}
	if flags.Changed("minimap2") {
		cfg.Aligner.Path = alignMinimap2
	}
	if flags.Changed("threads") {
		cfg.Aligner.Threads = alignThreads
	}
	if flags.Changed("jobs") {
		cfg.Run.Jobs = alignJobs
	}
	if flags.Changed("workdir") {
		cfg.Run.WorkDir = alignWorkDir
	}

	return cfg, cfg.Validate()
}

func runAlign(cmd *cobra.Command, args []string) (err error) {
	seqFile, reference, output := args[0], args[1], args[2]

	cfg, err := alignConfig(cmd)
	if err != nil {
		return err
	}

	manifest, err := seqfile.Read(seqFile)
	if err != nil {
		return err
	}
	if _, ok := manifest.Path(reference); !ok {
		return fmt.Errorf("%w: %s is not in %s", refalign.ErrMissingReference, reference, seqFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storeDir, err := os.MkdirTemp(cfg.Run.WorkDir, "refalign-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(storeDir)
	store, err := blobstore.NewDir(storeDir)
	if err != nil {
		return err
	}

	assemblies := refalign.NewAssemblySet()
	for _, e := range manifest.Entries {
		id, err := store.Import(e.Path)
		if err != nil {
			return fmt.Errorf("importing %s: %w", e.Name, err)
		}
		if err = assemblies.Add(e.Name, id); err != nil {
			return err
		}
		log.WithField("assembly", e.Name).Debugf("imported %s as %s", e.Path, id.Short())
	}

	var regionFilter *regions.Filter
	if alignBedFilter {
		if regionFilter, err = regions.NewFilter(cfg.Filters.ExcludeBed, cfg.Filters.MinAlignmentLength); err != nil {
			return err
		}
	}

	filters := refalign.DefaultFilterConfig()
	filters.MinVariationLength = cfg.Filters.MinVariationLength
	filters.MinMappingQuality = cfg.Filters.MinMappingQuality
	filters.RegionFilter = alignBedFilter
	filters.VariantFilter = alignVcfFilter
	filters.DebugExport = alignDebugExport

	logger := log.NewEntry(log.StandardLogger())
	stages := refalign.DefaultStages(store, cfg.Aligner.Path, cfg.Aligner.Threads, cfg.Run.WorkDir, regionFilter, logger)
	driver := refalign.NewDriver(store, stages, refalign.Options{
		Filters:        filters,
		Output:         output,
		DebugExportDir: cfg.Run.DebugExportDir,
		Jobs:           cfg.Run.Jobs,
	}, logger)

	_, err = driver.Run(ctx, assemblies, reference)
	return err
}
