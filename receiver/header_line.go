package receiver

import (
	"fmt"
	"regexp"
)

// headerLineRE matches "name:value". The charset is [A-Za-z0-9-]+ — the
// corrected form of the legacy parser's likely-typo [a-zA-Z0-1-] that §9
// calls out; this implementation always uses 0-9.
var headerLineRE = regexp.MustCompile(`^([A-Za-z0-9-]+):(.*)$`)

// parseHeaderLine splits a trimmed header line into name and value. The
// line must already have had its trailing CR/LF removed by the caller.
func parseHeaderLine(line string) (name, value string, err error) {
	m := headerLineRE.FindStringSubmatch(line)
	if m == nil {
		return "", "", fmt.Errorf("malformed header line %q", line)
	}
	return m[1], m[2], nil
}
