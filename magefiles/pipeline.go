//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Ask builds the CLI and answers one question, e.g. mage ask "What is the capital of France?".
func Ask(question string) error {
	mg.Deps(Build)
	return sh.RunV("./"+binDir+"/"+binName, "ask", question)
}

// Serve builds the CLI and starts the HTTP front end on the configured address.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV("./"+binDir+"/"+binName, "serve")
}

// Health builds the CLI and checks the configured language model.
func Health() error {
	mg.Deps(Build)
	return sh.RunV("./"+binDir+"/"+binName, "health")
}
