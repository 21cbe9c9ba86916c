// Package version provides version information for the oracle feeder.
package version

// Version is the current version of the oracle feeder.
const Version = "0.2.1"

// AgentString returns the full agent string with versioning.
// Format: oracle-feeder@v{version}
func AgentString() string {
	return "oracle-feeder@v" + Version
}
