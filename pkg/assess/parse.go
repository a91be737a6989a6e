package assess

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	capacityRe = regexp.MustCompile(`^(\d+)\s*(\w+)`)
	moduleRe   = regexp.MustCompile(`(?i)(\d+)\s*(GB|MB)`)
	digitsRe   = regexp.MustCompile(`\d+`)
	mibRe      = regexp.MustCompile(`(\d+)\s*MiB`)
	gibRe      = regexp.MustCompile(`(\d+)\s*GiB`)
)

// ParseCapacityGB converts capacity text such as "32 GB", "512 MB",
// "2 TB" or "1 PB" to gigabytes with binary-prefix scaling. The second
// return is false when the text is absent or unparseable; callers that
// need a numeric default for summation use SizeToGB instead.
func ParseCapacityGB(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	m := capacityRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	value, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	unit := strings.ToUpper(m[2])
	switch {
	case strings.HasPrefix(unit, "PB"):
		return float64(value) * 1024 * 1024, true
	case strings.HasPrefix(unit, "TB"):
		return float64(value) * 1024, true
	case strings.HasPrefix(unit, "GB"):
		return float64(value), true
	case strings.HasPrefix(unit, "MB"):
		return float64(value) / 1024, true
	}
	return 0, false
}

// SizeToGB parses a memory module size for summation: absent,
// unparseable, or "No Module Installed" text yields 0.
func SizeToGB(text string) float64 {
	if text == "" || strings.Contains(text, "No Module") {
		return 0
	}
	m := moduleRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	value, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	if strings.EqualFold(m[2], "MB") {
		return float64(value) / 1024
	}
	return float64(value)
}

// ParseSpeedMTs extracts a transfer rate from free-form speed text
// such as "DDR5-4800" or "4800 MT/s". Scanning the extracted integer
// runs from the end, the first value >= 1000 wins; transfer-rate
// figures are large and typically trail the label. With no qualifying
// value the maximum found is returned. The second return is false when
// no integer is present at all.
func ParseSpeedMTs(text string) (int, bool) {
	if text == "" {
		return 0, false
	}
	matches := digitsRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return 0, false
	}
	values := make([]int, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return 0, false
	}
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] >= 1000 {
			return values[i], true
		}
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max, true
}

// parseVRAMGB converts an accelerator memory figure to gigabytes.
// Gibibyte-denominated values are taken verbatim; mebibyte values are
// divided by 1024.
func parseVRAMGB(text string) (float64, bool) {
	if m := gibRe.FindStringSubmatch(text); m != nil {
		v, err := strconv.Atoi(m[1])
		if err == nil {
			return float64(v), true
		}
	}
	if m := mibRe.FindStringSubmatch(text); m != nil {
		v, err := strconv.Atoi(m[1])
		if err == nil {
			return float64(v) / 1024, true
		}
	}
	return 0, false
}

// firstInt parses the leading integer of a whitespace-separated value
// like "2" or "16 (hyperthreaded)". Returns 0 when absent.
func firstInt(text string) int {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return v
}

// firstFloat parses the leading float of a value like "4800.0000".
func firstFloat(text string) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return v
}
