// SPDX-License-Identifier: MIT

// Package build carries the metadata stamped into the binary at link
// time. Release builds populate the unexported variables with
// -ldflags "-X"; development builds fall back to the placeholders so
// nothing has to special-case an unstamped binary.
package build

import "fmt"

var (
	name    = "spectraldev"
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info is a snapshot of the link-time metadata.
type Info struct {
	Name    string
	Version string
	Commit  string
	Date    string
}

// Get returns the metadata stamped into this binary.
func Get() Info {
	return Info{
		Name:    name,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// String renders the metadata the way the version command prints it.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Date)
}
