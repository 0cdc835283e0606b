package models

// Report is the outcome of checking one project against its upstream
type Report struct {
	Project        string
	CurrentVersion string
	LatestVersion  string
	Recommended    string
	Policy         string
	Patches        int
	Tags           []string

	// Outdated is set when the newest upstream tag sorts after the current version
	Outdated bool

	// Flagged is set when upstream data needs a human look: no tags at
	// all, or the newest tag sorts before the current version. Flagged
	// records are kept in the known-issues store.
	Flagged bool

	Notified bool
}
