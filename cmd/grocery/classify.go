package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"grocery-engine/internal/core/grocery"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <name>...",
	Short: "Classify ingredient names into store categories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hint, _ := cmd.Flags().GetString("hint")
		brand, _ := cmd.Flags().GetString("brand")
		userID, _ := cmd.Flags().GetString("user")
		asJSON, _ := cmd.Flags().GetBool("json")

		prefs, err := openPreferences(cmd)
		if err != nil {
			return err
		}
		defer prefs.Close()
		classifier := newClassifier(prefs)

		results := make([]grocery.Classification, 0, len(args))
		for _, name := range args {
			results = append(results, classifier.ClassifyFor(cmd.Context(), userID, name, hint, brand))
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), results)
		}
		for i, r := range results {
			source := r.Rule
			if r.FromPreference {
				source = "preference"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", args[i], r.Category, source)
		}
		return nil
	},
}

var rememberCmd = &cobra.Command{
	Use:   "remember <name> <category>",
	Short: "Store a category preference for the user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		if userID == "" {
			return fmt.Errorf("please provide a user via --user")
		}
		tag, ok := grocery.ParseCategory(args[1])
		if !ok {
			return fmt.Errorf("unknown category %q", args[1])
		}

		prefs, err := openPreferences(cmd)
		if err != nil {
			return err
		}
		defer prefs.Close()

		key := grocery.Normalize(args[0])
		if err := prefs.Set(cmd.Context(), userID, key, tag); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", key, tag)
		return nil
	},
}

func init() {
	classifyCmd.Flags().String("hint", "", "Category hint such as the source bucket label")
	classifyCmd.Flags().String("brand", "", "Brand name")
	classifyCmd.Flags().Bool("json", false, "Print results as JSON")
	rootCmd.AddCommand(classifyCmd, rememberCmd)
}
