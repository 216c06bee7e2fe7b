package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bvc-go/internal/app"
	"bvc-go/internal/bvc"
	"bvc-go/internal/config"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	if err := rootCmd.Execute(); err != nil {
		msg, hint := app.Diagnose(err)
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
		if hint != "" {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
		}
		if app.DebugEnabled() {
			fmt.Fprintf(os.Stderr, "debug: %+v\n", err)
		}
		os.Exit(1)
	}
}

// newApp wires a BVCApp for an existing repository. The caller must defer
// a.Close(). operation identifies the CLI command being run (e.g. "Commit").
func newApp(cmd *cobra.Command, operation string, remote bool) (*app.BVCApp, error) {
	return app.New(cmd.Context(), operation, app.Options{Remote: remote})
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

var rootCmd = &cobra.Command{
	Use:   "bvc",
	Short: "Blockchain-backed version control",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			os.Setenv("BVC_DEBUG", "1")
		}
	},
}

// init command
var initCmd = &cobra.Command{
	Use:   "init [NAME]",
	Short: "Initialize a repository",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		localOnly, _ := cmd.Flags().GetBool("local-only")
		description, _ := cmd.Flags().GetString("description")

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}

		name := filepath.Base(cwd)
		if len(args) > 0 {
			name = args[0]
		}

		a, err := app.New(cmd.Context(), "Init", app.Options{Create: true, Remote: !localOnly})
		if err != nil {
			return err
		}
		defer a.Close()

		cfg, err := a.Service.Init(cmd.Context(), name, bvc.InitOptions{
			Description: description,
			LocalOnly:   localOnly,
		})
		if err != nil {
			return err
		}

		if cfg.RepoID != "" {
			fmt.Printf("Initialized repository %q (on-chain id %s)\n", cfg.Name, cfg.RepoID)
		} else {
			fmt.Printf("Initialized local repository %q\n", cfg.Name)
		}
		return nil
	},
}

// add command
var addCmd = &cobra.Command{
	Use:   "add PATH...",
	Short: "Stage files for the next commit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Stage", false)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Service.Stage(args)
		if err != nil {
			return err
		}

		fmt.Printf("Staged %d file(s)\n", res.Staged)
		for _, m := range res.Missing {
			fmt.Printf("warning: %s not found, skipped\n", m)
		}
		return nil
	},
}

// commit command
var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Record a commit from the staged files",
	RunE: func(cmd *cobra.Command, args []string) error {
		message, _ := cmd.Flags().GetString("message")
		noAnchor, _ := cmd.Flags().GetBool("no-anchor")
		amend, _ := cmd.Flags().GetBool("amend")

		if message == "" {
			return fmt.Errorf("commit message required (-m)")
		}

		a, err := newApp(cmd, "Commit", !noAnchor)
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.Service.Commit(cmd.Context(), message, bvc.CommitOptions{
			Anchor: !noAnchor,
			Amend:  amend,
		})
		if err != nil {
			return err
		}

		state := "local-only"
		if c.Anchored {
			state = "anchored"
		}
		fmt.Printf("[%s] %s (%d file(s), %s)\n", shortID(c.CommitID), c.Message, len(c.Files), state)
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the repository state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Status", false)
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.Service.Status()
		if err != nil {
			return err
		}

		fmt.Printf("Repository: %s\n", st.Config.Name)
		if st.Config.RepoID != "" {
			fmt.Printf("On-chain id: %s\n", st.Config.RepoID)
		} else {
			fmt.Println("On-chain id: (local-only)")
		}
		fmt.Printf("Branch: %s\n", st.Config.Branch)
		if st.Head != nil {
			fmt.Printf("Head: %s %s\n", shortID(st.Head.CommitID), st.Head.Message)
		}
		fmt.Printf("Commits: %d (%d not anchored)\n", st.CommitCount, st.Unanchored)
		fmt.Printf("Checkpoints: %d\n", st.Checkpoints)

		if len(st.Staged) == 0 {
			fmt.Println("\nNothing staged.")
			return nil
		}
		fmt.Printf("\nStaged files:\n")
		for _, f := range st.Staged {
			fmt.Printf("  %s  %s  %d\n", f.ContentDigest[:12], f.Path, f.Size)
		}
		return nil
	},
}

// log command
var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the local commit chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Log", false)
		if err != nil {
			return err
		}
		defer a.Close()

		commits, err := a.Service.Log()
		if err != nil {
			return err
		}

		if len(commits) == 0 {
			fmt.Println("No commits.")
			return nil
		}

		// Newest first, like git log.
		for i := len(commits) - 1; i >= 0; i-- {
			c := commits[i]
			state := "local-only"
			if c.Anchored {
				state = "anchored"
			}
			amended := ""
			if c.Amended {
				amended = "  (amended)"
			}
			fmt.Printf("commit %s  [%s]%s\n", c.CommitID, state, amended)
			fmt.Printf("Author: %s\n", c.Author)
			fmt.Printf("Date:   %s\n", c.Timestamp.Format("2006-01-02 15:04:05"))
			fmt.Printf("\n    %s\n\n", c.Message)
		}
		return nil
	},
}

// checkpoint command
var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Batch commits into one on-chain checkpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		message, _ := cmd.Flags().GetString("message")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		opts := bvc.CheckpointOptions{From: from, To: to, Message: message}

		a, err := newApp(cmd, "Checkpoint", !dryRun)
		if err != nil {
			return err
		}
		defer a.Close()

		if dryRun {
			plan, err := a.Service.PlanCheckpoint(opts)
			if err != nil {
				return err
			}
			fmt.Printf("Would checkpoint %d commit(s): %s..%s\n",
				plan.CommitCount, shortID(plan.FromCommitID), shortID(plan.ToCommitID))
			fmt.Printf("One transaction instead of %d per-commit transaction(s). Nothing sent.\n", plan.CommitCount)
			return nil
		}

		cp, err := a.Service.Checkpoint(cmd.Context(), opts)
		if err != nil {
			return err
		}

		fmt.Printf("Checkpointed %d commit(s): %s..%s\n",
			cp.CommitCount, shortID(cp.FromCommitID), shortID(cp.ToCommitID))
		fmt.Printf("Aggregate digest: %s\n", cp.AggregateDigest)
		fmt.Printf("Bundle: %s\n", cp.BundleContentID)
		return nil
	},
}

// push command
var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Anchor local-only commits on the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Push", true)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Service.Push(cmd.Context())
		if err != nil {
			return err
		}

		if res.Registered {
			fmt.Printf("Registered repository on-chain (id %s)\n", res.RepoID)
		}
		fmt.Printf("Anchored %d commit(s), %d already anchored\n", res.Anchored, res.AlreadyAnchored)
		return nil
	},
}

// pull command
var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Reconcile the local chain with the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Pull", true)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Service.Pull(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Added %d commit(s) from the ledger, marked %d as anchored\n", res.Added, res.Marked)
		if res.Diverged {
			fmt.Printf("Histories diverge: local %s vs remote %s at the same position; nothing merged past that point\n",
				shortID(res.DivergedLocalID), shortID(res.DivergedRemoteID))
		}
		if res.LocalOnly > 0 {
			fmt.Printf("%d local commit(s) are not on the ledger (push to anchor them)\n", res.LocalOnly)
		}
		return nil
	},
}

// clone command
var cloneCmd = &cobra.Command{
	Use:   "clone REPO_ID [DIR]",
	Short: "Reconstruct a repository from the ledger",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoID := args[0]
		dir := repoID
		if len(args) > 1 {
			dir = args[1]
		}

		a, err := app.New(cmd.Context(), "Clone", app.Options{Dir: dir, Create: true, Remote: true})
		if err != nil {
			return err
		}
		defer a.Close()

		cfg, err := a.Service.Clone(cmd.Context(), repoID)
		if err != nil {
			return err
		}

		fmt.Printf("Cloned repository %q into %s\n", cfg.Name, dir)
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "View the local checkpoint log",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ListCheckpoints", false)
		if err != nil {
			return err
		}
		defer a.Close()

		checkpoints, err := a.Service.Checkpoints()
		if err != nil {
			return err
		}

		if len(checkpoints) == 0 {
			fmt.Println("No checkpoints.")
			return nil
		}

		for _, cp := range checkpoints {
			fmt.Printf("%s  %s..%s  %d commit(s)  %s\n",
				cp.Timestamp.Format("2006-01-02 15:04:05"),
				shortID(cp.FromCommitID),
				shortID(cp.ToCommitID),
				cp.CommitCount,
				cp.Message,
			)
		}
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the user configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		setup, _ := cmd.Flags().GetBool("setup")
		show, _ := cmd.Flags().GetBool("show")
		reset, _ := cmd.Flags().GetBool("reset")

		switch {
		case setup:
			return configSetup()
		case show:
			return configShow()
		case reset:
			return configReset()
		}
		return cmd.Help()
	},
}

func userConfigPath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	path, err := app.UserConfigPath(cwd)
	if err != nil {
		return "", err
	}
	if path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, config.FileName), nil
}

func prompt(r *bufio.Reader, label, current string) (string, error) {
	if current != "" {
		fmt.Printf("%s [%s]: ", label, current)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, err := r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return current, nil
	}
	return line, nil
}

func configSetup() error {
	path, err := userConfigPath()
	if err != nil {
		return err
	}

	cfg := &config.Config{}
	if _, err := os.Stat(path); err == nil {
		if cfg, err = config.ReadFromFile(path); err != nil {
			return err
		}
	}

	r := bufio.NewReader(os.Stdin)
	if cfg.Author, err = prompt(r, "Author name", cfg.Author); err != nil {
		return err
	}
	if cfg.Ledger.RPCURL, err = prompt(r, "Ledger RPC URL", cfg.Ledger.RPCURL); err != nil {
		return err
	}
	if cfg.Ledger.ContractAddress, err = prompt(r, "Ledger contract address", cfg.Ledger.ContractAddress); err != nil {
		return err
	}

	keyState := "not set"
	if cfg.Ledger.PrivateKey != "" {
		keyState = "set"
	}
	fmt.Printf("Signing key, hex (%s, empty keeps current): ", keyState)
	key, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading signing key: %w", err)
	}
	if k := strings.TrimSpace(string(key)); k != "" {
		cfg.Ledger.PrivateKey = k
	}

	if cfg.Content.APIURL, err = prompt(r, "IPFS API URL", cfg.Content.APIURL); err != nil {
		return err
	}
	allow, err := prompt(r, "Allow simulated content ids (y/N)", "")
	if err != nil {
		return err
	}
	cfg.Content.AllowSimulated = strings.EqualFold(allow, "y") || strings.EqualFold(allow, "yes")

	if err := config.WriteToFile(path, cfg); err != nil {
		return err
	}
	fmt.Printf("Configuration written to %s\n", path)
	return nil
}

func configShow() error {
	path, err := userConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.ReadFromFile(path)
	if err != nil {
		return err
	}

	keyState := "(not set)"
	if cfg.Ledger.PrivateKey != "" {
		keyState = "(set)"
	}
	fmt.Printf("Configuration from %s:\n\n", path)
	fmt.Printf("Author:            %s\n", cfg.Author)
	fmt.Printf("Ledger RPC URL:    %s\n", cfg.Ledger.RPCURL)
	fmt.Printf("Contract address:  %s\n", cfg.Ledger.ContractAddress)
	fmt.Printf("Signing key:       %s\n", keyState)
	fmt.Printf("IPFS API URL:      %s\n", cfg.Content.APIURL)
	fmt.Printf("Allow simulated:   %t\n", cfg.Content.AllowSimulated)
	return nil
}

func configReset() error {
	path, err := userConfigPath()
	if err != nil {
		return err
	}
	if err := config.Reset(path); err != nil {
		return err
	}
	fmt.Printf("Removed %s\n", path)
	return nil
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Mirror the log to stderr and print full error chains")

	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("local-only", false, "Skip on-chain registration")
	initCmd.Flags().String("description", "", "Repository description")

	rootCmd.AddCommand(addCmd)

	rootCmd.AddCommand(commitCmd)
	commitCmd.Flags().StringP("message", "m", "", "Commit message")
	commitCmd.Flags().Bool("no-anchor", false, "Record the commit locally only")
	commitCmd.Flags().Bool("amend", false, "Replace the latest commit")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logCmd)

	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.Flags().String("from", "", "First commit of the range (default: first commit)")
	checkpointCmd.Flags().String("to", "", "Last commit of the range (default: head)")
	checkpointCmd.Flags().StringP("message", "m", "", "Checkpoint message")
	checkpointCmd.Flags().Bool("dry-run", false, "Show the plan without sending a transaction")

	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(listCmd)

	rootCmd.AddCommand(configCmd)
	configCmd.Flags().Bool("setup", false, "Interactively create or update the configuration")
	configCmd.Flags().Bool("show", false, "Print the configuration")
	configCmd.Flags().Bool("reset", false, "Remove the configuration file")
}
