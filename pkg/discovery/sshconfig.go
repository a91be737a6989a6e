package discovery

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var sshOptionRe = regexp.MustCompile(`(\S+)\s+(.*)`)

// DiscoverSSHConfig parses SSH client config files for concrete host
// entries. Wildcard aliases are skipped; HostName, User, and Port
// options enrich the result.
func (d *Discoverer) DiscoverSSHConfig() []Host {
	paths := d.sshConfigPaths
	if len(paths) == 0 {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		paths = []string{filepath.Join(home, ".ssh", "config")}
	}

	var discovered []Host
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var currentHosts []string
		options := map[string]string{}

		flush := func() {
			discovered = append(discovered, sshConfigBlockHosts(currentHosts, options)...)
		}

		for _, rawLine := range strings.Split(string(data), "\n") {
			line := strings.TrimSpace(rawLine)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if strings.HasPrefix(strings.ToLower(line), "host ") {
				flush()
				currentHosts = nil
				for _, alias := range strings.Fields(line)[1:] {
					if alias != "*" {
						currentHosts = append(currentHosts, strings.Trim(alias, `"`))
					}
				}
				options = map[string]string{}
				continue
			}
			if len(currentHosts) == 0 {
				continue
			}
			if m := sshOptionRe.FindStringSubmatch(line); m != nil {
				options[strings.ToLower(m[1])] = strings.TrimSpace(m[2])
			}
		}
		flush()
	}

	return discovered
}

// sshConfigBlockHosts expands one Host block into discovery entries,
// one per concrete alias.
func sshConfigBlockHosts(aliases []string, options map[string]string) []Host {
	target := options["hostname"]
	user := options["user"]
	port := options["port"]

	var hosts []Host
	for _, alias := range aliases {
		if strings.ContainsAny(alias, "*?") {
			continue
		}
		base := alias
		if idx := strings.Index(alias, "@"); idx >= 0 {
			base = alias[idx+1:]
		}
		address := target
		if address == "" {
			address = base
		}
		tags := []string{"ssh-config"}
		if user != "" && !strings.Contains(alias, user) {
			tags = append(tags, "user:"+user)
		}
		if port != "" {
			tags = append(tags, "port:"+port)
		}
		hostname := base
		if hostname == "" {
			hostname = alias
		}
		hosts = append(hosts, Host{
			Hostname: hostname,
			Address:  address,
			Source:   "ssh-config",
			Tags:     tags,
			Alias:    alias,
		})
	}
	return hosts
}
