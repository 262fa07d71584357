package validation

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	plugindomain "github.com/devflow-sh/devflow/internal/core/domain/plugin"
)

// ValidateCompatibility checks the running host version against a plugin's
// declared minimum. Versions are dot-separated integer sequences of any
// length, compared zero-padded. If either string fails to parse as such,
// compatibility is assumed: a malformed version string must not itself
// block installation.
func ValidateCompatibility(metadata *plugindomain.Metadata, hostVersion string) error {
	if compatible(metadata.MinHostVersion, hostVersion) {
		return nil
	}
	return &plugindomain.IncompatibleVersionError{
		MinHostVersion: metadata.MinHostVersion,
		HostVersion:    hostVersion,
	}
}

func compatible(minVersion, hostVersion string) bool {
	min, okMin := parseDotted(minVersion)
	host, okHost := parseDotted(hostVersion)
	if !okMin || !okHost {
		// Fail open on unparsable versions.
		return true
	}

	// Sequences of up to three components are valid semver; where it
	// applies its ordering matches the zero-padded comparison below.
	if minSV, err := semver.NewVersion(minVersion); err == nil {
		if hostSV, err := semver.NewVersion(hostVersion); err == nil {
			return !hostSV.LessThan(minSV)
		}
	}

	for len(min) < len(host) {
		min = append(min, 0)
	}
	for len(host) < len(min) {
		host = append(host, 0)
	}

	for i := range host {
		if host[i] != min[i] {
			return host[i] > min[i]
		}
	}
	return true
}

// parseDotted parses a dot-separated sequence of non-negative integers.
func parseDotted(version string) ([]int, bool) {
	parts := strings.Split(version, ".")
	nums := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, false
		}
		nums = append(nums, n)
	}
	return nums, true
}
