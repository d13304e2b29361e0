package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"grit/internal/diff"
	"grit/internal/logging"
	"grit/internal/repo"
	"grit/internal/watch"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "grit",
	Short: "Grit is a minimal content-addressable version control system",
	Long: `Grit tracks snapshots of a file tree over time: stage changes, commit
them, inspect history, compare states, and manage branches. Everything is
stored content-addressed under .grit in the repository root.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func newLogger() *zap.Logger {
	level := os.Getenv("GRIT_LOG_LEVEL")
	if level == "" {
		level = "error"
	}
	logger, err := logging.NewLogger(level)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func openRepo() (*repo.Repository, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}
	return repo.Open(cwd, newLogger())
}

func init() {
	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize a new grit repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}

			r, err := repo.Init(cwd, newLogger())
			if err != nil {
				return err
			}
			defer r.Close()

			fmt.Println("Initialized empty grit repository in", cwd)
			return nil
		},
	}

	var addCmd = &cobra.Command{
		Use:   "add [paths...]",
		Short: "Stage file contents for the next commit",
		Long:  `Stages the current content of each path. Use '.' to stage all files.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			staged, err := r.Add(args)
			if err != nil {
				return err
			}

			fmt.Printf("Added %d file(s) to staging area\n", len(staged))
			return nil
		},
	}

	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			status, err := r.Status()
			if err != nil {
				return err
			}

			printStatus(status)
			return nil
		},
	}

	var commitCmd = &cobra.Command{
		Use:   "commit",
		Short: "Record the staged tree as a new commit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			message, _ := cmd.Flags().GetString("message")

			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			commit, err := r.Commit(message)
			if err != nil {
				return err
			}

			branch, err := r.CurrentBranch()
			if err != nil {
				return err
			}
			if branch == "" {
				branch = "HEAD"
			}
			fmt.Printf("[%s %s] %s\n", branch, commit.Hash[:7], commit.Message)
			return nil
		},
	}
	commitCmd.Flags().StringP("message", "m", "", "Commit message")
	commitCmd.MarkFlagRequired("message")

	var logCmd = &cobra.Command{
		Use:   "log",
		Short: "Show commit history from HEAD to the root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("number")

			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			walker, err := r.Log()
			if err != nil {
				return err
			}

			yellow := color.New(color.FgYellow)
			for count := 0; limit <= 0 || count < limit; count++ {
				commit, err := walker.Next()
				if err != nil {
					return err
				}
				if commit == nil {
					break
				}

				yellow.Printf("commit %s\n", commit.Hash)
				fmt.Printf("Author: %s\n", commit.Author)
				fmt.Printf("Date:   %s\n\n", time.Unix(commit.Timestamp, 0).Format("2006-01-02 15:04:05"))
				for _, line := range strings.Split(commit.Message, "\n") {
					fmt.Printf("    %s\n", line)
				}
				fmt.Println()
			}
			return nil
		},
	}
	logCmd.Flags().IntP("number", "n", 0, "Limit the number of commits shown")

	var diffCmd = &cobra.Command{
		Use:   "diff",
		Short: "Show line-level differences",
		Long: `Shows working-tree-vs-staged differences by default, or
staged-vs-HEAD differences with --staged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			staged, _ := cmd.Flags().GetBool("staged")

			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			var diffs []repo.FileDiff
			if staged {
				diffs, err = r.DiffStaged()
			} else {
				diffs, err = r.DiffWorktree()
			}
			if err != nil {
				return err
			}

			if len(diffs) == 0 {
				fmt.Println("No differences found")
				return nil
			}
			for _, fd := range diffs {
				fmt.Printf("diff --grit a/%s b/%s\n", fd.Path, fd.Path)
				printColoredDiff(fd.Result.Format())
			}
			return nil
		},
	}
	diffCmd.Flags().Bool("staged", false, "Compare the staged tree against HEAD")

	var branchCmd = &cobra.Command{
		Use:   "branch [name]",
		Short: "Create a branch or list branches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")

			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			if len(args) == 1 && !all {
				if err := r.CreateBranch(args[0]); err != nil {
					return err
				}
				fmt.Printf("Created branch %s\n", args[0])
				return nil
			}

			branches, err := r.Branches()
			if err != nil {
				return err
			}

			green := color.New(color.FgGreen)
			for _, b := range branches {
				if b.Current {
					green.Printf("* %s\n", b.Name)
				} else {
					fmt.Printf("  %s\n", b.Name)
				}
			}
			return nil
		},
	}
	branchCmd.Flags().BoolP("all", "a", false, "List all branches")

	var checkoutCmd = &cobra.Command{
		Use:   "checkout <branch>",
		Short: "Switch HEAD and the working tree to a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			if err := r.Checkout(args[0]); err != nil {
				return err
			}
			fmt.Printf("Switched to branch '%s'\n", args[0])
			return nil
		},
	}

	var watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Report working tree changes live until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			w, err := watch.New(r.Root, newLogger())
			if err != nil {
				return err
			}
			defer w.Close()

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)

			fmt.Println("Watching for changes (Ctrl-C to stop)")
			yellow := color.New(color.FgYellow).SprintFunc()
			for {
				select {
				case event, ok := <-w.Events():
					if !ok {
						return nil
					}
					fmt.Printf("%s %s\n", yellow(event.Op), event.Path)
				case <-interrupt:
					return nil
				}
			}
		},
	}

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(watchCmd)
}

func printStatus(status *repo.Status) {
	branch := status.Branch
	if branch == "" {
		branch = "HEAD (detached)"
	}
	fmt.Printf("On branch %s\n\n", branch)

	if status.Clean() {
		fmt.Println("nothing to commit, working tree clean")
		return
	}

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	blue := color.New(color.FgBlue).SprintFunc()

	if len(status.Staged) > 0 {
		fmt.Println("Changes to be committed:")
		for _, c := range status.Staged {
			switch c.Type {
			case diff.ChangeAdd:
				fmt.Printf("\t%s %s\n", green("A"), c.Path)
			default:
				fmt.Printf("\t%s %s\n", green("M"), c.Path)
			}
		}
		fmt.Println()
	}

	if len(status.Unstaged) > 0 {
		fmt.Println("Changes not staged for commit:")
		fmt.Println("  (use \"grit add <file>...\" to update what will be committed)")
		for _, c := range status.Unstaged {
			switch c.Type {
			case diff.ChangeDelete:
				fmt.Printf("\t%s %s\n", red("D"), c.Path)
			default:
				fmt.Printf("\t%s %s\n", yellow("M"), c.Path)
			}
		}
		fmt.Println()
	}

	if len(status.Untracked) > 0 {
		fmt.Println("Untracked files:")
		fmt.Println("  (use \"grit add <file>...\" to include in what will be committed)")
		for _, path := range status.Untracked {
			fmt.Printf("\t%s %s\n", blue("?"), path)
		}
		fmt.Println()
	}
}

func printColoredDiff(text string) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	header := color.New(color.FgCyan)

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			header.Println(line)
		case strings.HasPrefix(line, "+"):
			added.Println(line)
		case strings.HasPrefix(line, "-"):
			removed.Println(line)
		default:
			fmt.Println(line)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
