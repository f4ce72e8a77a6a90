package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/daotrust/daotrust/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	serverURL string
	cfgFile   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "daotrust",
	Short: "DAO trust ledger CLI",
	Long: `daotrust is the command-line interface for the DAO trust ledger.

It records trust events (score + simulated DAO vote) as hash-chained
ledger entries, reads the recent timeline, and verifies entry integrity
against a window of predecessors.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.daotrust")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serverURL == "" {
			serverURL = viper.GetString("server_url")
		}
		if serverURL == "" {
			serverURL = "http://localhost:8080"
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.daotrust/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "ledger server URL (default http://localhost:8080)")

	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(timelineCmd)
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

func newClient() *client.Client {
	return client.New(serverURL, client.WithTimeout(15*time.Second))
}

// ── record ───────────────────────────────────────────────────────────────────

var (
	recordFormat string
	recordScore  float64
)

var recordCmd = &cobra.Command{
	Use:   "record [address]",
	Short: "Record a trust event as a new ledger entry",
	Long: `Record appends a new hash-chained entry for the given wallet address.

When the address is omitted the server's mock wallet supplies one; when
--score is omitted the server's trust scorer produces it. The DAO vote
is always simulated server-side:

  daotrust record 0xabc --score 75`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVar(&recordFormat, "format", "text", "Output format: text or json")
	recordCmd.Flags().Float64Var(&recordScore, "score", -1, "Trust score to record (0-100); server-scored when omitted")
}

func runRecord(cmd *cobra.Command, args []string) error {
	req := client.RecordRequest{}
	if len(args) == 1 {
		req.Address = args[0]
	}
	if recordScore >= 0 {
		req.Score = &recordScore
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	result, err := newClient().Record(ctx, req)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}

	if recordFormat == "json" {
		return printJSON(result)
	}

	e := result.Entry
	fmt.Printf("Committed entry at height %d (persisted=%v)\n\n", e.Height, result.Persisted)
	printEntry(e)
	return nil
}

// ── verify ───────────────────────────────────────────────────────────────────

var (
	verifyEntryPath  string
	verifyWindowPath string
	verifyFormat     string
)

var verifyCmd = &cobra.Command{
	Use:   "verify --entry entry.json [--window window.json]",
	Short: "Verify a ledger entry's hash and chain linkage",
	Long: `Verify recomputes the candidate entry's content hash and checks its
prevHash against the supplied window of prior entries. Use "-" to read
the entry from stdin:

  daotrust timeline --limit 5 --format json > window.json
  daotrust verify --entry entry.json --window window.json`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyEntryPath, "entry", "", "Path to the candidate entry JSON (\"-\" for stdin)")
	verifyCmd.Flags().StringVar(&verifyWindowPath, "window", "", "Path to a JSON array of prior entries")
	verifyCmd.Flags().StringVar(&verifyFormat, "format", "text", "Output format: text or json")
	_ = verifyCmd.MarkFlagRequired("entry")
}

func runVerify(cmd *cobra.Command, args []string) error {
	var entry client.Entry
	if err := readJSONFile(verifyEntryPath, &entry); err != nil {
		return fmt.Errorf("read entry: %w", err)
	}

	var window []*client.Entry
	if verifyWindowPath != "" {
		if err := readJSONFile(verifyWindowPath, &window); err != nil {
			return fmt.Errorf("read window: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	result, err := newClient().Verify(ctx, &entry, window)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	if verifyFormat == "json" {
		return printJSON(result)
	}

	fmt.Printf("valid:   %v\n", result.Valid)
	fmt.Printf("hashOk:  %v\n", result.HashOk)
	fmt.Printf("chainOk: %v\n", result.ChainOk)
	if result.Reason != "" {
		fmt.Printf("reason:  %s\n", result.Reason)
	}
	if !result.Valid {
		os.Exit(1)
	}
	return nil
}

// ── timeline ─────────────────────────────────────────────────────────────────

var (
	timelineLimit  int
	timelineFormat string
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show the most recent ledger entries, oldest first",
	RunE:  runTimeline,
}

func init() {
	timelineCmd.Flags().IntVar(&timelineLimit, "limit", 0, "Number of entries to show (server default when 0)")
	timelineCmd.Flags().StringVar(&timelineFormat, "format", "text", "Output format: text or json")
}

func runTimeline(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	entries, err := newClient().Timeline(ctx, timelineLimit)
	if err != nil {
		return fmt.Errorf("timeline: %w", err)
	}

	if timelineFormat == "json" {
		return printJSON(entries)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HEIGHT\tADDRESS\tSCORE\tAPPROVED\tHASH")
	for _, e := range entries {
		addr := e.Address
		if addr == "" {
			addr = "(none)"
		}
		fmt.Fprintf(w, "%d\t%s\t%.0f\t%v\t%s\n",
			e.Height, addr, e.Score, e.VoteResult.Approved, short(e.Hash))
	}
	return w.Flush()
}

// ── overview ─────────────────────────────────────────────────────────────────

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show the chain height and tip hash",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		o, err := newClient().GetOverview(ctx)
		if err != nil {
			return fmt.Errorf("overview: %w", err)
		}
		fmt.Printf("height:  %d\n", o.Height)
		fmt.Printf("tip:     %s\n", o.Tip)
		fmt.Printf("backend: %s\n", o.Backend)
		return nil
	},
}

// ── reset ────────────────────────────────────────────────────────────────────

var resetToken string

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the server's in-memory chain (demo/testing)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		c := client.New(serverURL, client.WithAdminToken(resetToken))
		if err := c.Reset(ctx); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		fmt.Println("ledger reset")
		return nil
	},
}

func init() {
	resetCmd.Flags().StringVar(&resetToken, "token", "", "Admin Bearer token")
	_ = resetCmd.MarkFlagRequired("token")
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("daotrust", version)
	},
}

// ── helpers ──────────────────────────────────────────────────────────────────

func readJSONFile(path string, v any) error {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEntry(e *client.Entry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ledgerId:\t%s\n", e.LedgerID)
	fmt.Fprintf(w, "height:\t%d\n", e.Height)
	fmt.Fprintf(w, "address:\t%s\n", e.Address)
	fmt.Fprintf(w, "score:\t%.0f\n", e.Score)
	fmt.Fprintf(w, "vote:\tapproved=%v yes=%d no=%d quorum=%d ref=%s\n",
		e.VoteResult.Approved, e.VoteResult.Yes, e.VoteResult.No,
		e.VoteResult.Quorum, e.VoteResult.ReferenceID)
	fmt.Fprintf(w, "createdAt:\t%s\n", e.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "prevHash:\t%s\n", e.PrevHash)
	fmt.Fprintf(w, "hash:\t%s\n", e.Hash)
	w.Flush()
}

func short(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16] + "…"
}
