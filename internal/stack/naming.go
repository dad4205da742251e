package stack

import (
	"regexp"
	"strings"
)

// Labels attached to every engine resource a stack creates. Reconciliation
// discovers stack ownership from these, not from the database.
const (
	LabelStack   = "dockhaven.stack"
	LabelService = "dockhaven.service"
	LabelManaged = "dockhaven.managed"
)

var (
	invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)
	dashRuns         = regexp.MustCompile(`--+`)
	leadingNonAlnum  = regexp.MustCompile(`^[^a-zA-Z0-9]+`)
)

// Sanitize converts a user-supplied stack name into an engine-safe name:
// every character outside [a-zA-Z0-9_.-] becomes "-", runs of "-" collapse,
// and leading/trailing junk is stripped so the result starts with an
// alphanumeric. Idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(name string) string {
	s := invalidNameChars.ReplaceAllString(name, "-")
	s = dashRuns.ReplaceAllString(s, "-")
	s = leadingNonAlnum.ReplaceAllString(s, "")
	return strings.TrimRight(s, "-")
}

// ResourceName computes the concrete engine name for a network or volume
// declared inside a stack's compose document.
func ResourceName(stackName, declared string) string {
	return Sanitize(stackName) + "_" + declared
}

// ContainerName computes the concrete engine name for a service's container.
// Single-replica deployments always get the _1 suffix.
func ContainerName(stackName, service string) string {
	return ResourceName(stackName, service) + "_1"
}
