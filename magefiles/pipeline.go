//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Pipeline groups the targets that drive the CLI over the project directories.
type Pipeline mg.Namespace

// Extract extracts every export in input/ to processing/extracted/.
func (Pipeline) Extract() error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath, "extract", "--batch")
}

// Ingest stores the extraction results in the theme store.
func (Pipeline) Ingest() error {
	mg.Deps(Pipeline.Extract)
	return sh.RunV(binPath, "store", "ingest")
}

// Run restyles every export in input/ as background jobs.
func (Pipeline) Run(style string) error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath, "run", "--style", style, "input")
}

// OnePage generates a one-page site from the stored sections.
func (Pipeline) OnePage(query, style string) error {
	mg.Deps(Build)
	return sh.RunV(binPath, "generate", "onepage", query, "--style", style)
}

// MultiPage generates a multi-page site from the stored pages.
func (Pipeline) MultiPage(query, style string) error {
	mg.Deps(Build)
	return sh.RunV(binPath, "generate", "multipage", query, "--style", style)
}
