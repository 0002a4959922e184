// Package env captures the runtime environment a transform run gates against.
// The snapshot is taken once per process and shared read-only so every file
// in a run sees the same gating decisions.
package env

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Environment variables consumed at capture time.
const (
	// BrowserOverrideVar forces the detected browser identity. Any non-empty
	// value is accepted verbatim (trimmed, lower-cased), even names that are
	// not real browsers. CI pipelines use this to inject an identity.
	BrowserOverrideVar = "TESTGATE_BROWSER"

	// NodeVersionVar overrides Node version detection, e.g. "v20.11.1".
	NodeVersionVar = "TESTGATE_NODE_VERSION"

	// UserAgentVar supplies a user-agent string for browser sniffing when no
	// explicit override is set.
	UserAgentVar = "TESTGATE_USER_AGENT"
)

// NodeMajorUnknown marks a snapshot whose Node version could not be parsed.
// Version predicates against an unknown version always evaluate false.
const NodeMajorUnknown = -1

// Snapshot is the immutable environment a whole transform run is evaluated
// against. Construct via Capture, or directly in tests.
type Snapshot struct {
	// Platform is the host platform in Node process.platform vocabulary
	// ("win32", "darwin", "linux", ...), lower-cased.
	Platform string

	// NodeMajor is the Node runtime major version, or NodeMajorUnknown.
	NodeMajor int

	// Browser is the detected browser identity, lower-cased, or "" when the
	// host is not browser-like and no override is set.
	Browser string
}

// NodeVersionKnown reports whether a Node major version was detected.
func (s Snapshot) NodeVersionKnown() bool {
	return s.NodeMajor != NodeMajorUnknown
}

// Capture reads the process environment once and returns the snapshot for
// this run. It never fails; anything undetectable degrades to its unknown
// value rather than an error.
func Capture() Snapshot {
	return Snapshot{
		Platform:  hostPlatform(),
		NodeMajor: detectNodeMajor(),
		Browser:   detectBrowser(),
	}
}

// hostPlatform maps runtime.GOOS into the vocabulary test annotations are
// authored against. Node reports Windows as "win32"; everything else matches
// GOOS already.
func hostPlatform() string {
	if runtime.GOOS == "windows" {
		return "win32"
	}
	return strings.ToLower(runtime.GOOS)
}

func detectNodeMajor() int {
	if v := os.Getenv(NodeVersionVar); strings.TrimSpace(v) != "" {
		return MajorVersion(v)
	}
	out, err := exec.Command("node", "--version").Output()
	if err != nil {
		return NodeMajorUnknown
	}
	return MajorVersion(string(out))
}

// MajorVersion extracts the first run of digits from a version string and
// returns it as an integer, or NodeMajorUnknown if the string contains no
// digits. "v20.11.1" and "20" both yield 20.
func MajorVersion(version string) int {
	start := -1
	for i, r := range version {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return atoiDigits(version[start:i])
		}
	}
	if start >= 0 {
		return atoiDigits(version[start:])
	}
	return NodeMajorUnknown
}

// atoiDigits parses a non-empty all-digit string, saturating instead of
// overflowing on absurd inputs.
func atoiDigits(digits string) int {
	n := 0
	for _, r := range digits {
		n = n*10 + int(r-'0')
		if n > 1<<30 {
			return 1 << 30
		}
	}
	return n
}

func detectBrowser() string {
	if override := strings.ToLower(strings.TrimSpace(os.Getenv(BrowserOverrideVar))); override != "" {
		return override
	}
	return ClassifyUserAgent(os.Getenv(UserAgentVar))
}

// ClassifyUserAgent identifies a browser from a user-agent-like string by
// substring precedence: Firefox, then Edge, then Chrome, then Safari provided
// no Chromium marker is present. Returns "" when nothing matches or the
// string is empty.
func ClassifyUserAgent(ua string) string {
	ua = strings.ToLower(ua)
	switch {
	case ua == "":
		return ""
	case strings.Contains(ua, "firefox"):
		return "firefox"
	case strings.Contains(ua, "edg"):
		return "edge"
	case strings.Contains(ua, "chrome"):
		return "chrome"
	case strings.Contains(ua, "safari") && !strings.Contains(ua, "chromium"):
		return "safari"
	default:
		return ""
	}
}
