package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/coopco/autopost/internal/editor"
	"github.com/coopco/autopost/internal/poller"
	"github.com/coopco/autopost/internal/scheduler"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List stored profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remote()
			if err != nil {
				return err
			}
			names, err := client.ListProfiles(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				printf(cmd, "%s\n", name)
			}
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Print a profile as JSON",
		Long:  "Print a stored profile as JSON. An unknown name prints the defaults a new profile starts from.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remote()
			if err != nil {
				return err
			}
			cfg, err := client.GetProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}
}

func newDuplicateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate NAME",
		Short: "Copy a profile under a generated name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remote()
			if err != nil {
				return err
			}
			sess := editor.New(client)
			if err := sess.Load(cmd.Context(), args[0]); err != nil {
				return err
			}
			name, err := sess.Duplicate(cmd.Context())
			if err != nil {
				return err
			}
			printf(cmd, "Profile %q duplicated as %q\n", args[0], name)
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a profile",
		Long:  "Delete a profile and stop its schedule. The default profile cannot be deleted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remote()
			if err != nil {
				return err
			}
			sess := editor.New(client)
			if err := sess.Load(cmd.Context(), args[0]); err != nil {
				return err
			}
			if err := sess.Delete(cmd.Context()); err != nil {
				return err
			}
			printf(cmd, "Profile %q deleted\n", args[0])
			return nil
		},
	}
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start NAME",
		Short: "Start posting a profile on its schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remote()
			if err != nil {
				return err
			}
			if err := client.StartProfile(cmd.Context(), args[0]); err != nil {
				return err
			}
			printf(cmd, "Profile %q started\n", args[0])
			return nil
		},
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop NAME",
		Short: "Stop posting a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remote()
			if err != nil {
				return err
			}
			if err := client.StopProfile(cmd.Context(), args[0]); err != nil {
				return err
			}
			printf(cmd, "Profile %q stopped\n", args[0])
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show delivery status of every profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remote()
			if err != nil {
				return err
			}
			st, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			return writeStatus(cmd.OutOrStdout(), st)
		},
	}
}

func newWatchCmd() *cobra.Command {
	var interval time.Duration
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll delivery status until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("interval") {
				interval = time.Duration(cfg.Poll.IntervalSeconds) * time.Second
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			svc := poller.NewService(poller.Config{
				Source:   newClient(cfg),
				Interval: interval,
				OnStatus: func(st map[string]scheduler.Status) {
					fmt.Fprintf(out, "--- %s\n", time.Now().Format("15:04:05"))
					writeStatus(out, st)
				},
				OnError: func(err error) {
					fmt.Fprintf(cmd.ErrOrStderr(), "status unavailable: %v\n", err)
				},
			})
			svc.Start(ctx)
			<-ctx.Done()
			svc.Stop()
			return nil
		},
	}
	watchCmd.Flags().DurationVarP(&interval, "interval", "i", 0, "Poll interval (default poll.intervalSeconds)")
	return watchCmd
}

func newHistoryCmd() *cobra.Command {
	var limit int
	historyCmd := &cobra.Command{
		Use:   "history NAME",
		Short: "Show recent delivery attempts of a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remote()
			if err != nil {
				return err
			}
			entries, err := client.History(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "AT\tSOURCE\tKIND\tTARGET\tRESULT")
			for _, e := range entries {
				result := "ok"
				if !e.OK() {
					result = e.Error
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.At, e.Source, e.Kind, e.Target, result)
			}
			return tw.Flush()
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries (0 for all)")
	return historyCmd
}

// writeStatus prints one row per profile, sorted by name.
func writeStatus(w io.Writer, st map[string]scheduler.Status) error {
	names := make([]string, 0, len(st))
	for name := range st {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROFILE\tRUNNING\tSENT\tFAILED\tLAST RUN\tNEXT RUN\tLAST ERROR")
	for _, name := range names {
		s := st[name]
		next := "-"
		if s.NextRun != nil {
			next = s.NextRun.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%s\t%t\t%d\t%d\t%s\t%s\t%s\n",
			name, s.Running, s.SentCount, s.FailedCount, s.LastRun, next, s.LastError)
	}
	return tw.Flush()
}
