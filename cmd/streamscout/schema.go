package main

import (
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"streamscout/models"
)

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().Bool("search", false, "Emit the schema of the multi-kind search result instead")
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the content record",
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetBool("search")
		return printJSON(cmd.OutOrStdout(), contentSchema(search))
	},
}

func contentSchema(search bool) *jsonschema.Schema {
	r := &jsonschema.Reflector{}
	var s *jsonschema.Schema
	if search {
		s = r.Reflect(&models.SearchResults{})
	} else {
		s = r.Reflect(&models.Content{})
	}
	s.ID = jsonschema.ID(fmt.Sprintf("https://streamscout.dev/schema/%s.json", schemaName(search)))
	return s
}

func schemaName(search bool) string {
	if search {
		return "search-results"
	}
	return "content"
}
