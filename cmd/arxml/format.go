package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"autosar/internal/export"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *LoadResponseCLI:
		return formatLoadHuman(v), nil
	case *IndexResponseCLI:
		return formatIndexHuman(v), nil
	case *SessionsResponseCLI:
		return formatSessionsHuman(v), nil
	case *SearchResponseCLI:
		return formatSearchHuman(v), nil
	default:
		return formatJSON(resp)
	}
}

func formatLoadHuman(resp *LoadResponseCLI) string {
	var b strings.Builder
	b.WriteString(resp.Summary.String())
	b.WriteString("\nDocuments:\n")
	for _, d := range resp.Documents {
		fmt.Fprintf(&b, "  %s (%s, %d bytes, %s)\n", d.Name, d.Encoding, d.Size, shortDigest(d.Digest))
	}
	fmt.Fprintf(&b, "\nLoaded in %dms\n", resp.DurationMs)
	return b.String()
}

func formatIndexHuman(resp *IndexResponseCLI) string {
	var b strings.Builder
	if resp.UpToDate {
		fmt.Fprintf(&b, "Up to date: session %s already holds these documents\n", resp.Session)
	} else {
		fmt.Fprintf(&b, "Stored session %s: %d entities from %d documents\n", resp.Session, resp.Entities, resp.Documents)
	}
	if resp.Pruned > 0 {
		fmt.Fprintf(&b, "Pruned %d older sessions\n", resp.Pruned)
	}
	fmt.Fprintf(&b, "Database: %s\n", resp.Database)
	return b.String()
}

func formatSessionsHuman(resp *SessionsResponseCLI) string {
	if len(resp.Sessions) == 0 {
		return "No stored sessions\n"
	}
	var b strings.Builder
	for _, s := range resp.Sessions {
		fmt.Fprintf(&b, "%s  AUTOSAR %d  %6d entities  %s\n", s.ID, s.Autosar, s.Entities, s.CreatedAt)
		for _, d := range s.Documents {
			fmt.Fprintf(&b, "    %s\n", d)
		}
	}
	return b.String()
}

func formatSearchHuman(resp *SearchResponseCLI) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d matches for %q in session %s\n", len(resp.Results), resp.Query, resp.Session)
	for _, r := range resp.Results {
		fmt.Fprintf(&b, "  %-50s %-32s %s\n", r.Path, r.Kind, r.MatchType)
	}
	return b.String()
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

// parseOutputFormat accepts the CLI response formats.
func parseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatJSON, FormatHuman:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// parseExportFormat defaults to the configured export format.
func parseExportFormat(flag, configured string) (export.Format, error) {
	if flag == "" {
		flag = configured
	}
	return export.ParseFormat(flag)
}
