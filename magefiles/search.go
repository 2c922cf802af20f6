//go:build mage

package main

import (
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search builds the CLI and runs one search. Keywords are comma-separated,
// e.g. mage search "Computer Vision,Machine Learning".
func Search(keywords string) error {
	mg.Deps(Build)
	args := []string{"search"}
	for _, kw := range strings.Split(keywords, ",") {
		args = append(args, "-k", strings.TrimSpace(kw))
	}
	return sh.RunV(binPath(), args...)
}
