/*
This application grades the remediation of a simulated PostgreSQL failover
incident. The scenario leaves a PgBouncer connection-pooling proxy pointing
at a stale pod IP with pathological pool settings; the operator is expected
to repair the configuration and restore service. The grader verifies:

- Proxy configuration: the backend is addressed by DNS name, not pod IP.
- Connectivity: the database answers queries through the proxy.
- Data integrity: the sentinel test data survived the failover.
- Pool tuning: all problematic connection pool settings were fixed.
- Stability: the proxy pods restarted onto the repaired config and stay up.

Each criterion yields a binary subscore; the rubric weights them into a
final 0.0-1.0 grade with per-criterion feedback. A failing cluster never
aborts the run: every failure is just a zero subscore.
*/

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/checks"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/cluster"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/grading"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/rubric"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/types"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/version"
)

var (
	// Config options
	cfgFile        string
	namespace      string
	rubricName     string
	timeout        int
	execTimeout    int
	reportFormat   string
	outputDir      string
	includeDetails bool
	parallel       bool
	skipProgress   bool
	verboseOutput  bool
	dsn            string
	skipCriteria   []string
	labelSelector  string
	incidentStart  string
	showVersion    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "failover-grader",
	Short: "Grades the remediation of a simulated PostgreSQL failover incident",
	Long: `This application grades whether an operator correctly remediated a
simulated PostgreSQL failover incident in a Kubernetes cluster. It inspects
the connection-pooling proxy configuration, exercises the database through
the proxy, and computes a weighted pass/fail score per rubric criterion.`,
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Printf("failover-grader %s\n", version.Version)
			return
		}

		if err := runGrading(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()

	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Define flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./failover-grader.yaml)")
	rootCmd.PersistentFlags().StringVar(&namespace, "namespace", "bleater", "Namespace the failover exercise runs in")
	rootCmd.PersistentFlags().StringVar(&rubricName, "rubric", rubric.DefaultRevision, "Rubric revision name or path to a rubric YAML file")
	rootCmd.PersistentFlags().IntVar(&timeout, "timeout", 20, "Timeout for a cluster-control CLI invocation in seconds")
	rootCmd.PersistentFlags().IntVar(&execTimeout, "exec-timeout", 15, "Timeout for a command executed inside a pod in seconds")
	rootCmd.PersistentFlags().StringVar(&reportFormat, "format", "summary", "Report format (summary, json, asciidoc)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "reports", "Directory where file-based reports are saved")
	rootCmd.PersistentFlags().BoolVar(&includeDetails, "details", true, "Include detailed results in the report")
	rootCmd.PersistentFlags().BoolVar(&parallel, "parallel", false, "Run checks in parallel")
	rootCmd.PersistentFlags().BoolVar(&skipProgress, "no-progress", false, "Disable progress bar")
	rootCmd.PersistentFlags().BoolVar(&verboseOutput, "verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "PostgreSQL DSN for direct probes through the proxy (instead of pod exec)")
	rootCmd.PersistentFlags().StringSliceVar(&skipCriteria, "skip", []string{}, "Criteria to exclude from grading (comma-separated)")
	rootCmd.PersistentFlags().StringVar(&labelSelector, "label-selector", "", "Label selector for the proxy pods")
	rootCmd.PersistentFlags().StringVar(&incidentStart, "incident-start", "", "RFC3339 time the incident started; proxy pods must be newer")
	rootCmd.PersistentFlags().BoolVar(&showVersion, "version", false, "Print the version and exit")

	// Let the config file and environment override flag defaults
	_ = viper.BindPFlags(rootCmd.PersistentFlags())
}

// initConfig reads in the config file and environment variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("failover-grader")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("GRADER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// validateFlags validates the command line flags
func validateFlags() error {
	validFormats := map[string]bool{
		"summary":  true,
		"json":     true,
		"asciidoc": true,
	}

	if !validFormats[viper.GetString("format")] {
		return fmt.Errorf("invalid report format: %s (must be one of: summary, json, asciidoc)", viper.GetString("format"))
	}

	if viper.GetInt("timeout") <= 0 {
		return fmt.Errorf("timeout must be greater than 0")
	}

	if viper.GetInt("exec-timeout") <= 0 {
		return fmt.Errorf("exec-timeout must be greater than 0")
	}

	if viper.GetString("namespace") == "" {
		return fmt.Errorf("namespace cannot be empty")
	}

	if viper.GetString("format") != "summary" && viper.GetString("output-dir") == "" {
		return fmt.Errorf("output directory cannot be empty")
	}

	return nil
}

// runGrading executes the full grading run and prints the result
func runGrading() error {
	if err := validateFlags(); err != nil {
		return err
	}

	selected, err := rubric.Resolve(viper.GetString("rubric"))
	if err != nil {
		return err
	}
	if err := selected.Validate(); err != nil {
		return fmt.Errorf("rubric %s: %w", selected.Name, err)
	}

	var start time.Time
	if raw := viper.GetString("incident-start"); raw != "" {
		start, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("invalid --incident-start value %q: %w", raw, err)
		}
	}

	ns := viper.GetString("namespace")

	kubectl := cluster.NewKubectl(ns)
	kubectl.Timeout = time.Duration(viper.GetInt("timeout")) * time.Second
	kubectl.ExecTimeout = time.Duration(viper.GetInt("exec-timeout")) * time.Second

	// The typed API client is optional: without it the grader falls back to
	// the CLI for configuration reads and cannot grade pod stability
	var client *cluster.Client
	if clientset, err := cluster.GetClientSet(); err == nil {
		client = cluster.NewClient(clientset, ns)
	} else if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Warning: no API client available, using CLI only: %v\n", err)
	}

	runner := grading.NewRunner(grading.Config{
		SkipCriteria:    viper.GetStringSlice("skip"),
		Timeout:         kubectl.Timeout + kubectl.ExecTimeout,
		Parallel:        viper.GetBool("parallel"),
		SkipProgressBar: viper.GetBool("no-progress"),
		VerboseOutput:   viper.GetBool("verbose"),
	})

	runner.AddChecks(checks.GetChecks(checks.Options{
		Namespace:     ns,
		Kubectl:       kubectl,
		Client:        client,
		Rubric:        selected,
		DSN:           viper.GetString("dsn"),
		ProbeTimeout:  kubectl.ExecTimeout,
		LabelSelector: viper.GetString("label-selector"),
		IncidentStart: start,
	}))

	if err := runner.Run(); err != nil {
		return fmt.Errorf("failed to run grading checks: %w", err)
	}

	scorecard := grading.BuildScorecard(runner.GetResults(), selected.Weights, viper.GetStringSlice("skip"))

	reporter := grading.NewReporter(grading.ReportConfig{
		Format:                 types.ReportFormat(viper.GetString("format")),
		OutputDir:              viper.GetString("output-dir"),
		Filename:               "failover-grading-report",
		IncludeTimestamp:       true,
		IncludeDetailedResults: viper.GetBool("details"),
		Title:                  fmt.Sprintf("PostgreSQL Failover Remediation Grading (rubric %s)", selected.Name),
	}, runner, scorecard)

	reportPath, err := reporter.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	if reportPath != "" {
		fmt.Printf("\nReport generated at: %s\n", reportPath)
		fmt.Println(scorecard.Feedback())
	}

	return nil
}
