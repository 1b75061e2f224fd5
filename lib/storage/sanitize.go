// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

package storage

import "regexp"

// windowsReservedNames are device names that cannot be used as file
// names on Windows regardless of extension. Reports are routinely
// copied to examiners' Windows machines, so these are escaped even
// when the tool itself runs elsewhere.
var windowsReservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// badFilenameCharacters matches characters that are unsafe in file
// names on at least one supported platform, including path separators
// so that a suggested name can never climb out of its storage folder.
var badFilenameCharacters = regexp.MustCompile(`[\[\]()^\s#%&!@:+={}'~\\/]`)

// SanitizeFilename rewrites an arbitrary string into a name that is
// safe to create inside the report tree on all supported platforms.
// Reserved device names and names starting with a dot are prefixed
// with an underscore; every unsafe character is replaced with one.
//
// Sanitization is not injective: distinct inputs may sanitize to the
// same output. Callers that need collision-free names must additionally
// de-duplicate, as [Filesystem] does.
func SanitizeFilename(name string) string {
	if _, reserved := windowsReservedNames[name]; reserved {
		name = "_" + name
	}
	if len(name) > 0 && name[0] == '.' {
		name = "_" + name
	}
	return badFilenameCharacters.ReplaceAllString(name, "_")
}
