package version

import "github.com/fatih/color"

// Version information for the forget CLI.
// These variables can be overridden at build time via -ldflags.

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Banner renders the version with colored components when color output
// is enabled.
func Banner() string {
	major, minor, rest := split(Version)
	if major == "" {
		return Version
	}
	return versionMajorColor.Sprint(major) + "." + versionMinorColor.Sprint(minor) + "." + versionPatchColor.Sprint(rest)
}

func split(v string) (major, minor, rest string) {
	parts := [3]string{}
	n := 0
	start := 0
	for i := 0; i < len(v) && n < 2; i++ {
		if v[i] == '.' {
			parts[n] = v[start:i]
			n++
			start = i + 1
		}
	}
	if n < 2 {
		return "", "", ""
	}
	return parts[0], parts[1], v[start:]
}
