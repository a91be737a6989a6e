// Package discovery finds candidate hosts for assessment from
// Avahi/mDNS announcements and SSH client configuration, merges the
// sources, and probes SSH reachability. All external commands run
// through the assess guardrail so they share its timeout and audit
// behavior.
package discovery

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hwinsight/hic/pkg/assess"
)

// Host is a single discovery observation from one source.
type Host struct {
	Hostname string   `json:"hostname"`
	Address  string   `json:"address,omitempty"`
	Source   string   `json:"source"`
	Tags     []string `json:"tags,omitempty"`
	Alias    string   `json:"alias,omitempty"`
}

// Aggregated is the merged, de-duplicated view of one machine across
// sources.
type Aggregated struct {
	Hostname   string   `json:"hostname"`
	Addresses  []string `json:"addresses"`
	Sources    []string `json:"sources"`
	Tags       []string `json:"tags"`
	SSHAliases []string `json:"ssh_aliases"`
	Warnings   []string `json:"warnings"`
}

// Discoverer aggregates host discovery sources.
type Discoverer struct {
	session        *assess.Session
	logger         *slog.Logger
	serviceType    string
	sshConfigPaths []string
	browseTimeout  time.Duration
}

// New creates a Discoverer. serviceType defaults to the workstation
// mDNS type and sshConfigPaths to ~/.ssh/config when empty.
func New(session *assess.Session, logger *slog.Logger, serviceType string, sshConfigPaths []string, browseTimeout time.Duration) *Discoverer {
	if logger == nil {
		logger = slog.Default()
	}
	if serviceType == "" {
		serviceType = "_workstation._tcp"
	}
	if browseTimeout <= 0 {
		browseTimeout = 5 * time.Second
	}
	return &Discoverer{
		session:        session,
		logger:         logger,
		serviceType:    serviceType,
		sshConfigPaths: sshConfigPaths,
		browseTimeout:  browseTimeout,
	}
}

// Discover returns the merged, de-duplicated host list across all
// sources, sorted by normalized hostname.
func (d *Discoverer) Discover() []Aggregated {
	type group struct {
		hostname   string
		addresses  map[string]bool
		sources    map[string]bool
		tags       map[string]bool
		sshAliases map[string]bool
	}

	groups := map[string]*group{}

	ensure := func(entry Host) *group {
		keyCandidate := entry.Hostname
		if entry.Source == "ssh-config" && entry.Address != "" {
			keyCandidate = entry.Address
		}
		key := normalizeHostname(keyCandidate)
		if key == "" {
			key = normalizeHostname(entry.Hostname)
		}
		if key == "" {
			key = strings.ToLower(entry.Hostname)
		}
		g := groups[key]
		if g == nil {
			g = &group{
				hostname:   preferredHostname(entry),
				addresses:  map[string]bool{},
				sources:    map[string]bool{},
				tags:       map[string]bool{},
				sshAliases: map[string]bool{},
			}
			groups[key] = g
		}
		return g
	}

	for _, entry := range d.DiscoverAvahi() {
		g := ensure(entry)
		if entry.Address != "" {
			g.addresses[entry.Address] = true
		}
		g.sources[entry.Source] = true
		for _, t := range entry.Tags {
			g.tags[t] = true
		}
		if g.hostname == "" {
			g.hostname = preferredHostname(entry)
		}
	}

	for _, entry := range d.DiscoverSSHConfig() {
		g := ensure(entry)
		if entry.Address != "" {
			g.addresses[entry.Address] = true
		}
		g.sources[entry.Source] = true
		for _, t := range entry.Tags {
			g.tags[t] = true
		}
		if entry.Alias != "" {
			g.sshAliases[entry.Alias] = true
		}
		// SSH-config entries are actionable targets, so they win the
		// display name.
		if preferred := preferredHostname(entry); preferred != "" {
			g.hostname = preferred
		}
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]Aggregated, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		agg := Aggregated{
			Hostname:   g.hostname,
			Addresses:  sortedKeys(g.addresses),
			Sources:    sortedKeys(g.sources),
			Tags:       sortedKeys(g.tags),
			SSHAliases: sortedKeys(g.sshAliases),
			Warnings:   []string{},
		}
		if !g.sources["ssh-config"] {
			agg.Warnings = append(agg.Warnings, "No SSH configuration entry found; verify SSH access.")
		}
		if display := sanitizeHostname(agg.Hostname); display != "" {
			agg.Hostname = display
		} else if agg.Hostname == "" && len(agg.Addresses) > 0 {
			agg.Hostname = agg.Addresses[0]
		}
		result = append(result, agg)
	}
	return result
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// preferredHostname picks the name most useful as an SSH target: the
// configured address for ssh-config entries, the announced hostname
// otherwise.
func preferredHostname(entry Host) string {
	target := entry.Hostname
	if entry.Source == "ssh-config" && entry.Address != "" {
		target = entry.Address
	}
	if cleaned := sanitizeHostname(target); cleaned != "" {
		return cleaned
	}
	return entry.Hostname
}

const hostnameAllowed = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_.: "

// sanitizeHostname strips non-printable and disallowed characters and
// collapses to the first whitespace-separated token.
func sanitizeHostname(name string) string {
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(hostnameAllowed, r) {
			b.WriteRune(r)
		}
	}
	cleaned := strings.Trim(b.String(), " .")
	if idx := strings.IndexByte(cleaned, ' '); idx >= 0 {
		cleaned = strings.Fields(cleaned)[0]
	}
	return cleaned
}

// normalizeHostname produces the de-duplication key: sanitized,
// lowercased, first token, ".local" suffix stripped.
func normalizeHostname(name string) string {
	cleaned := strings.ToLower(sanitizeHostname(name))
	if cleaned == "" {
		return ""
	}
	token := strings.Fields(cleaned)[0]
	return strings.TrimSuffix(token, ".local")
}
