package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"trashshred/internal/config"
	"trashshred/internal/erase"
	"trashshred/internal/reporting"
)

const (
	AppName = "trashshred"

	// Exit codes
	EXIT_SUCCESS = 0
	EXIT_ERROR   = 1
	EXIT_PARTIAL = 2
)

var (
	configPath    string
	profile       string
	protocolName  string
	encrypt       bool
	verify        bool
	maxConcurrent int
	debug         bool
	force         bool
	dryRun        bool
	recursive     bool
)

var rootCmd = &cobra.Command{
	Use:           AppName,
	Short:         "Securely erase the trash and other files",
	Long:          "Overwrites files with a chosen erasure protocol, optionally encrypting them under a throwaway key first, then deletes them.",
	Version:       reporting.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var emptyCmd = &cobra.Command{
	Use:   "empty",
	Short: "Securely empty the current user's trash",
	Args:  cobra.NoArgs,
	RunE:  runEmpty,
}

var eraseCmd = &cobra.Command{
	Use:   "erase <paths...>",
	Short: "Securely erase the given files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runErase,
}

var protocolsCmd = &cobra.Command{
	Use:   "protocols",
	Short: "List erasure protocols",
	Args:  cobra.NoArgs,
	RunE:  runProtocols,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Path to the YAML configuration")
	flags.StringVar(&profile, "profile", "", "Erase profile ("+strings.Join(config.Profiles(), "/")+")")
	flags.StringVarP(&protocolName, "protocol", "p", "random", "Erasure protocol (see 'protocols')")
	flags.BoolVarP(&encrypt, "encrypt", "e", false, "Encrypt files under a throwaway AES-256 key before overwriting")
	flags.BoolVar(&verify, "verify", false, "Read back every pass")
	flags.IntVar(&maxConcurrent, "max-concurrent", 0, "Maximum files erased at once (0 = unlimited)")
	flags.BoolVarP(&debug, "debug", "d", false, "Verbose diagnostics on stderr")
	flags.BoolVarP(&force, "force", "f", false, "Skip confirmation")
	flags.BoolVarP(&dryRun, "dry-run", "n", false, "Only list what would be erased")

	eraseCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Erase directories recursively")

	rootCmd.AddCommand(emptyCmd, eraseCmd, protocolsCmd)
}

func runProtocols(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPASSES\tDESCRIPTION")
	for _, info := range erase.Protocols() {
		fmt.Fprintf(w, "%s\t%d\t%s\n", info.Name, info.Protocol.PassCount(), info.Description)
	}
	return w.Flush()
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return EXIT_SUCCESS
	case cerr.Is(err, errPartial):
		return EXIT_PARTIAL
	default:
		return EXIT_ERROR
	}
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
	}
	os.Exit(exitCode(err))
}
