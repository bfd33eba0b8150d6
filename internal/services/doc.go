// Package services holds cross-cutting request plumbing shared by the
// daemon, the runner, and the CLI: context annotation for run, task, and
// correlation identifiers, plus the sentinel errors used to classify
// failures at the API boundary.
package services
