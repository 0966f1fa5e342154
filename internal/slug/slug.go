// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly identifier generation. Usernames
// become path segments (/t/{username}) and S3 key segments, so they are
// restricted to lowercase letters, digits, and hyphens.
package slug

import (
	"regexp"
	"strings"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, or space.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	// validUsername is the canonical username shape.
	validUsername = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = strings.ReplaceAll(result, " ", "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return result
}

// ValidUsername reports whether s is an acceptable tenant username:
// 1-63 chars of lowercase letters, digits, and interior hyphens. The
// 63-char cap keeps usernames usable as DNS labels for subdomains.
func ValidUsername(s string) bool {
	return validUsername.MatchString(s)
}

// SafeFilename strips path separators and leading dots from an uploaded
// filename so it can be embedded in an S3 key.
func SafeFilename(name string) string {
	name = strings.TrimSpace(name)
	if idx := strings.LastIndexAny(name, `/\`); idx != -1 {
		name = name[idx+1:]
	}
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "upload"
	}
	return name
}
