package discovery

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

var (
	avahiEscapeRe = regexp.MustCompile(`\\(\d{3})`)
	avahiCtrlRe   = regexp.MustCompile(`\\(?:00[0-9]|01[0-9]|02[0-9]|03[0-9]|040)`)
)

// decodeAvahiName resolves avahi-browse backslash escapes. Tokens made
// of octal digits decode base 8, the rest base 10; control characters
// become spaces.
func decodeAvahiName(name string) string {
	return avahiEscapeRe.ReplaceAllStringFunc(name, func(m string) string {
		token := m[1:]
		base := 10
		if strings.Trim(token, "01234567") == "" {
			base = 8
		}
		value, err := strconv.ParseInt(token, base, 32)
		if err != nil || value < 32 {
			return " "
		}
		return string(rune(value))
	})
}

// DiscoverAvahi browses the configured mDNS service type. A missing
// avahi-browse binary or a browse failure yields an empty list.
func (d *Discoverer) DiscoverAvahi() []Host {
	if !d.session.ToolPresent("avahi-browse") {
		return nil
	}

	// avahi-browse -t terminates after the cache is dumped; the
	// guardrail timeout covers a stuck daemon.
	out := d.session.Run(context.Background(), assessCommand(
		[]string{"avahi-browse", "-ptr", d.serviceType}, d.browseTimeout, true))
	if !out.Succeeded() && out.Stdout == "" {
		return nil
	}

	return parseAvahiBrowse(out.Stdout, d.serviceType)
}

// parseAvahiBrowse converts avahi-browse -p (parsable) output into
// discovery entries. Only resolved ('=') and new ('+') records count.
func parseAvahiBrowse(output, serviceType string) []Host {
	var hosts []Host
	for _, line := range strings.Split(output, "\n") {
		parts := strings.Split(strings.TrimSpace(line), ";")
		if len(parts) < 8 {
			continue
		}
		recordType := parts[0]
		if recordType == "" || (recordType[0] != '=' && recordType[0] != '+') {
			continue
		}
		rawName := decodeAvahiName(parts[3])
		cleanedName := avahiCtrlRe.ReplaceAllString(rawName, " ")
		hostname := strings.TrimSuffix(sanitizeHostname(cleanedName), ".")
		address := parts[7]
		hosts = append(hosts, Host{
			Hostname: hostname,
			Address:  address,
			Source:   "avahi",
			Tags:     []string{"avahi", serviceType},
		})
	}
	return hosts
}
