// Package configs provides embedded configuration templates for docvault.
//
// Templates are embedded at build time using Go's //go:embed directive,
// so they are available in all distributions (source builds and binary
// releases alike).
//
// The templates are used by:
//   - cmd/docvault/cmd/init.go - creates .docvault.yaml
//
// Configuration hierarchy (see internal/config/config.go Load()):
//  1. Hardcoded defaults (internal/config/config.go NewConfig())
//  2. Project config (.docvault.yaml)
//  3. Environment variables (DOCVAULT_*)
package configs

import _ "embed"

// ProjectConfigTemplate is the template for project-level configuration.
// Created by: `docvault init` at .docvault.yaml in the project root.
// Credentials are deliberately absent; they belong in DOCVAULT_ACCESS_KEY
// and DOCVAULT_SECRET_KEY.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
