package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hwinsight/hic/pkg/store"
	"github.com/spf13/cobra"
)

func NewHostsCommand(root *RootCommand) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hosts",
		Short: "Manage hosts tracked by the console",
	}

	cmd.AddCommand(newHostsListCommand(root), newHostsAddCommand(root))
	return cmd
}

func openStore(root *RootCommand) (*store.SQLiteStore, error) {
	cfg := root.Config()
	if err := os.MkdirAll(cfg.General.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return store.NewSQLiteStore(filepath.Join(cfg.General.DataDir, "hic.db"))
}

func newHostsListCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked hosts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(root)
			if err != nil {
				return err
			}
			defer st.Close()

			hosts, err := st.ListHosts(cmd.Context())
			if err != nil {
				return err
			}

			opts := root.OutputOptions()
			switch opts.Format {
			case FormatJSON, FormatYAML:
				if hosts == nil {
					hosts = []store.Host{}
				}
				return opts.PrintStructured(hosts)
			default:
				if len(hosts) == 0 {
					opts.Infof("No hosts tracked yet. Add one with 'hic hosts add'.")
					return nil
				}
				headers := []string{"ID", "HOSTNAME", "ADDRESS", "TAGS", "LAST SEEN"}
				rows := make([][]string, 0, len(hosts))
				for _, h := range hosts {
					lastSeen := "never"
					if h.LastSeenAt != nil {
						lastSeen = h.LastSeenAt.Local().Format(time.RFC3339)
					}
					rows = append(rows, []string{
						h.ID, h.Hostname, h.Address,
						strings.Join(h.Tags, ","), lastSeen,
					})
				}
				return opts.PrintTable(headers, rows)
			}
		},
	}
}

func newHostsAddCommand(root *RootCommand) *cobra.Command {
	var (
		address         string
		tags            []string
		notes           string
		allowPrivileged bool
	)

	cmd := &cobra.Command{
		Use:   "add <hostname>",
		Short: "Register a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(root)
			if err != nil {
				return err
			}
			defer st.Close()

			host := &store.Host{
				Hostname:        args[0],
				Address:         address,
				Tags:            tags,
				Notes:           notes,
				Source:          "cli",
				IsActive:        true,
				AllowPrivileged: allowPrivileged,
			}
			if err := st.CreateHost(cmd.Context(), host); err != nil {
				if errors.Is(err, store.ErrHostExists) {
					return fmt.Errorf("host %q is already tracked", args[0])
				}
				return err
			}

			opts := root.OutputOptions()
			switch opts.Format {
			case FormatJSON, FormatYAML:
				return opts.PrintStructured(host)
			default:
				opts.Infof("Added host %s (%s)", host.Hostname, host.ID)
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Network address used to reach the host")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag to attach (repeatable)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	cmd.Flags().BoolVar(&allowPrivileged, "allow-privileged", true, "Permit sudo-backed collection on this host")

	return cmd
}
