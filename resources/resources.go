// Package resources embeds the built-in rule-set documents.
package resources

import "embed"

// FS holds rulesets/*.xml.
//
//go:embed rulesets/*.xml
var FS embed.FS
