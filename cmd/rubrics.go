package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/rubric"
)

var rubricsValidateFile string

// rubricsCmd lists the built-in rubric revisions and their weights
var rubricsCmd = &cobra.Command{
	Use:   "rubrics",
	Short: "List the built-in rubric revisions",
	Long: `This command lists the built-in rubric revisions with their criterion
weights and thresholds. The revisions preserve the historical grading
variants; pass one to --rubric on the root command to grade with it.

With --validate, the command instead validates a custom rubric YAML file.`,
	Run: func(cmd *cobra.Command, args []string) {
		if rubricsValidateFile != "" {
			validated, err := rubric.Load(rubricsValidateFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			color.Green("Rubric %s is valid", validated.Name)
			return
		}

		for _, name := range rubric.Names() {
			revision, err := rubric.Get(name)
			if err != nil {
				continue
			}

			header := name
			if name == rubric.DefaultRevision {
				header = name + " (default)"
			}
			color.Cyan("%s - %s", header, revision.Description)

			criteria := make([]string, 0, len(revision.Weights))
			for criterion := range revision.Weights {
				criteria = append(criteria, criterion)
			}
			sort.Strings(criteria)

			for _, criterion := range criteria {
				fmt.Printf("  %-28s %3.0f%%\n", criterion, revision.Weights[criterion]*100)
			}
			fmt.Printf("  thresholds: server_lifetime <= %d, server_idle_timeout < %d, max restarts %d\n\n",
				revision.Thresholds.MaxServerLifetime,
				revision.Thresholds.MaxServerIdleTimeout,
				revision.Thresholds.MaxProxyRestarts)
		}
	},
}

func init() {
	rootCmd.AddCommand(rubricsCmd)

	rubricsCmd.Flags().StringVar(&rubricsValidateFile, "validate", "", "Validate a rubric YAML file instead of listing revisions")
}
