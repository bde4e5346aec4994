// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - redact_patterns.go
// The built-in redaction rule set. Patterns are additive: callers can extend
// them but only an explicit opt-out removes them. Replacements deliberately
// contain no digits or '@' so redaction stays idempotent.

package lumen

import "regexp"

// defaultPatterns returns the broad built-in pattern set.
func defaultPatterns() []RedactionPattern {
	return []RedactionPattern{
		{
			Name:        "pem-private-key",
			Pattern:     regexp.MustCompile(`-----BEGIN[A-Z ]*PRIVATE KEY-----[\s\S]*?-----END[A-Z ]*PRIVATE KEY-----`),
			Replacement: "[REDACTED:private-key]",
		},
		{
			Name:        "jwt",
			Pattern:     regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\b`),
			Replacement: "[REDACTED:jwt]",
		},
		{
			Name:        "bearer-auth",
			Pattern:     regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]{8,}`),
			Replacement: "[REDACTED:bearer]",
		},
		{
			Name:        "basic-auth",
			Pattern:     regexp.MustCompile(`(?i)\bbasic\s+[A-Za-z0-9+/=]{8,}`),
			Replacement: "[REDACTED:basic-auth]",
		},
		{
			Name:        "connection-string",
			Pattern:     regexp.MustCompile(`(?i)\b(?:mongodb(?:\+srv)?|postgres(?:ql)?|mysql|redis|amqps?|mssql):\/\/[^\s"']+`),
			Replacement: "[REDACTED:connection-string]",
		},
		{
			Name:        "aws-access-key",
			Pattern:     regexp.MustCompile(`\b(?:AKIA|ASIA|ABIA|ACCA)[0-9A-Z]{16}\b`),
			Replacement: "[REDACTED:aws-access-key]",
		},
		{
			Name:        "aws-secret-key",
			Pattern:     regexp.MustCompile(`(?i)aws_?secret[_a-z]*["':\s=]+[A-Za-z0-9/+=]{40}`),
			Replacement: "[REDACTED:aws-secret-key]",
		},
		{
			Name:        "gcp-api-key",
			Pattern:     regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{35}\b`),
			Replacement: "[REDACTED:gcp-api-key]",
		},
		{
			Name:        "github-token",
			Pattern:     regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`),
			Replacement: "[REDACTED:github-token]",
		},
		{
			Name:        "slack-token",
			Pattern:     regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,}\b`),
			Replacement: "[REDACTED:slack-token]",
		},
		{
			Name:        "stripe-key",
			Pattern:     regexp.MustCompile(`\b[sr]k_(?:live|test)_[A-Za-z0-9]{16,}\b`),
			Replacement: "[REDACTED:stripe-key]",
		},
		{
			Name:        "generic-api-key",
			Pattern:     regexp.MustCompile(`(?i)\b(?:api[_-]?key|x-api-key)["':\s=]+[A-Za-z0-9_-]{16,}`),
			Replacement: "[REDACTED:api-key]",
		},
		{
			Name:        "credit-card",
			Pattern:     regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`),
			Replacement: "[REDACTED:card]",
		},
		{
			Name:        "ssn",
			Pattern:     regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
			Replacement: "[REDACTED:ssn]",
		},
		{
			Name:        "email",
			Pattern:     regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
			Replacement: "[REDACTED:email]",
		},
		{
			Name:        "phone",
			Pattern:     regexp.MustCompile(`\+\d{1,3}[ .-]?\(?\d{1,4}\)?(?:[ .-]?\d{2,4}){2,4}\b`),
			Replacement: "[REDACTED:phone]",
		},
	}
}

// defaultSensitivePaths returns the built-in sensitive field names. Matching
// is case-insensitive and by substring, so "userPassword" hits "password".
func defaultSensitivePaths() []string {
	return []string{
		"password",
		"passwd",
		"secret",
		"token",
		"apikey",
		"api_key",
		"authorization",
		"credential",
		"private_key",
		"privatekey",
		"access_key",
		"client_secret",
		"card_number",
		"cardnumber",
		"cvv",
		"ssn",
		"session_id",
		"cookie",
		"pin",
	}
}
