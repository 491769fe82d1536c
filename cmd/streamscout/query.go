package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"streamscout/models"
)

func init() {
	rootCmd.AddCommand(searchCmd, trendingCmd, popularCmd, detailsCmd)

	searchCmd.Flags().StringP("kind", "k", "all", "movie, tv, anime or all")
	_ = searchCmd.RegisterFlagCompletionFunc("kind", completeKinds(true))
	trendingCmd.ValidArgsFunction = completeKinds(false)
	popularCmd.ValidArgsFunction = completeKinds(false)
}

func completeKinds(withAll bool) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		kinds := lo.Map(models.Kinds, func(k models.Kind, _ int) string { return k.String() })
		if withAll {
			kinds = append(kinds, "all")
		}
		return kinds, cobra.ShellCompDirectiveNoFileComp
	}
}

var searchCmd = &cobra.Command{
	Use:     "search <query>",
	Short:   "Search movies, TV and anime and print the results as JSON",
	Example: `  streamscout search batman
  streamscout search --kind anime "one piece"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		query := strings.Join(args, " ")
		kindFlag, _ := cmd.Flags().GetString("kind")

		if strings.EqualFold(kindFlag, "all") {
			results, err := svc.SearchAll(cmd.Context(), query)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), results)
		}

		kind, err := models.ParseKind(kindFlag)
		if err != nil {
			return fmt.Errorf("%w: %q", err, kindFlag)
		}
		items, err := svc.Search(cmd.Context(), kind, query)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), items)
	},
}

var trendingCmd = &cobra.Command{
	Use:   "trending <kind>",
	Short: "Print this week's trending titles for a kind",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := models.ParseKind(args[0])
		if err != nil {
			return fmt.Errorf("%w: %q", err, args[0])
		}
		svc, err := newService()
		if err != nil {
			return err
		}
		items, err := svc.Trending(cmd.Context(), kind)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), items)
	},
}

var popularCmd = &cobra.Command{
	Use:   "popular <kind>",
	Short: "Print the most popular titles for a kind",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := models.ParseKind(args[0])
		if err != nil {
			return fmt.Errorf("%w: %q", err, args[0])
		}
		svc, err := newService()
		if err != nil {
			return err
		}
		items, err := svc.Popular(cmd.Context(), kind)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), items)
	},
}

var detailsCmd = &cobra.Command{
	Use:     "details <kind> <id>",
	Short:   "Print one title with its trailer and watch providers",
	Example: "  streamscout details movie 155",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := models.ParseKind(args[0])
		if err != nil {
			return fmt.Errorf("%w: %q", err, args[0])
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[1])
		}
		svc, err := newService()
		if err != nil {
			return err
		}
		item, err := svc.Details(cmd.Context(), kind, id)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), item)
	},
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
