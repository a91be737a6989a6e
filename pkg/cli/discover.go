package cli

import (
	"strings"

	"github.com/hwinsight/hic/pkg/assess"
	"github.com/hwinsight/hic/pkg/discovery"
	"github.com/hwinsight/hic/pkg/infra/logger"
	"github.com/spf13/cobra"
)

func NewDiscoverCommand(root *RootCommand) *cobra.Command {
	var checkSSH bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Discover candidate hosts via Avahi and SSH config",
		Long: `Discover browses the LAN with avahi-browse (when installed) and scans
SSH client configuration for host entries, then merges both views into
one de-duplicated list. Hosts reachable over mDNS but absent from SSH
config are flagged so you know where access still needs to be set up.

With --check-ssh each host is additionally probed with a batch-mode SSH
connection that never prompts, reporting whether the daemon answered
and whether key-based login works.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(cmd, root, checkSSH)
		},
	}

	cmd.Flags().BoolVar(&checkSSH, "check-ssh", false, "Probe each host over SSH in batch mode")

	return cmd
}

type discoveredHost struct {
	discovery.Aggregated
	SSH *discovery.SSHCheck `json:"ssh,omitempty" yaml:"ssh,omitempty"`
}

func runDiscover(cmd *cobra.Command, root *RootCommand, checkSSH bool) error {
	cfg := root.Config()
	opts := root.OutputOptions()

	log := logger.Default()
	session := assess.NewSession(log)
	d := discovery.New(session, log,
		cfg.Discovery.AvahiServiceType,
		cfg.Discovery.SSHConfigPaths,
		cfg.Discovery.BrowseTimeoutD)

	opts.Infof("Browsing for hosts...")
	found := d.Discover()

	hosts := make([]discoveredHost, 0, len(found))
	for _, h := range found {
		entry := discoveredHost{Aggregated: h}
		if checkSSH {
			target := h.Hostname
			if len(h.SSHAliases) > 0 {
				target = h.SSHAliases[0]
			}
			if target != "" {
				check := d.VerifySSH(cmd.Context(), target, cfg.Discovery.SSHTimeoutD)
				entry.SSH = &check
			}
		}
		hosts = append(hosts, entry)
	}

	switch opts.Format {
	case FormatJSON, FormatYAML:
		return opts.PrintStructured(hosts)
	default:
		if len(hosts) == 0 {
			opts.Infof("No hosts discovered.")
			return nil
		}
		headers := []string{"HOSTNAME", "ADDRESSES", "SOURCES", "SSH ALIASES", "WARNINGS"}
		if checkSSH {
			headers = append(headers, "SSH")
		}
		rows := make([][]string, 0, len(hosts))
		for _, h := range hosts {
			row := []string{
				h.Hostname,
				strings.Join(h.Addresses, ","),
				strings.Join(h.Sources, ","),
				strings.Join(h.SSHAliases, ","),
				strings.Join(h.Warnings, "; "),
			}
			if checkSSH {
				row = append(row, sshCheckLabel(h.SSH))
			}
			rows = append(rows, row)
		}
		return opts.PrintTable(headers, rows)
	}
}

func sshCheckLabel(check *discovery.SSHCheck) string {
	switch {
	case check == nil:
		return "-"
	case check.Authenticated:
		return "ok"
	case check.Reachable:
		return "auth-failed"
	default:
		return "unreachable"
	}
}
