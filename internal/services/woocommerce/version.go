package woocommerce

import (
	"strconv"
	"strings"
)

// LatestAPIVersion returns the newest REST API version, e.g. "v3", from
// the host's list ("wp_api_v1", "wp_api_v2", "wp_api_v3"), which is ordered
// oldest first.
func LatestAPIVersion(versions []string) string {
	if len(versions) == 0 {
		return ""
	}
	return strings.TrimPrefix(versions[len(versions)-1], "wp_api_")
}

// APIVersionNumber turns "v3" into 3. Unparsable versions yield 0.
func APIVersionNumber(version string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(version, "v"))
	if err != nil {
		return 0
	}
	return n
}
