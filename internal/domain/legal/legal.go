// Package legal serves the static privacy policy and terms of service.
package legal

import (
	_ "embed"
	"strings"
)

// LastUpdated is the revision date of both documents.
const LastUpdated = "2026-01-27"

var (
	//go:embed docs/privacy.txt
	privacyText string
	//go:embed docs/terms.txt
	termsText string
)

// Document is a titled legal text.
type Document struct {
	Title       string `json:"title"`
	LastUpdated string `json:"lastUpdated"`
	Content     string `json:"content"`
}

// Privacy returns the privacy policy.
func Privacy() Document {
	return Document{Title: "Privacy Policy", LastUpdated: LastUpdated, Content: strings.TrimSpace(privacyText)}
}

// Terms returns the terms of service.
func Terms() Document {
	return Document{Title: "Terms of Service", LastUpdated: LastUpdated, Content: strings.TrimSpace(termsText)}
}
