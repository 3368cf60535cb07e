package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gosuri/uitable"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/twitterkit/pkg/api"
)

const (
	outputTable = "table"
	outputYAML  = "yaml"
	outputJSON  = "json"
)

func validateOutputFormat(outputFormat string) error {
	switch strings.ToLower(outputFormat) {
	case outputTable, outputYAML, outputJSON:
		return nil
	}
	return fmt.Errorf("unknown output format %q", outputFormat)
}

// render writes v as a table built by rows, or as YAML or JSON. YAML goes
// through the JSON form so both use the API field names.
func render(w io.Writer, outputFormat string, v any, rows func(*uitable.Table)) error {
	switch strings.ToLower(outputFormat) {
	case outputTable:
		table := uitable.New()
		table.MaxColWidth = 80
		table.Wrap = true
		rows(table)
		_, err := fmt.Fprintln(w, table)
		return err

	case outputJSON:
		prettyJSON, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("error formatting output: %w", err)
		}
		_, err = fmt.Fprintln(w, string(prettyJSON))
		return err

	case outputYAML:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("error formatting output: %w", err)
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("error formatting output: %w", err)
		}
		yamlBytes, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("error formatting output: %w", err)
		}
		_, err = w.Write(yamlBytes)
		return err
	}
	return validateOutputFormat(outputFormat)
}

func tweetRows(tweets []api.Tweet) func(*uitable.Table) {
	return func(table *uitable.Table) {
		table.AddRow("ID", "USER", "AGE", "TEXT")
		for _, t := range tweets {
			var user string
			if t.User != nil {
				user = "@" + t.User.ScreenName
			}
			table.AddRow(t.ID, user, age(t.CreatedTime()), t.Content())
		}
	}
}

func age(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
