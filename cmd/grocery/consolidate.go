package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"grocery-engine/internal/core/grocery"
	"grocery-engine/internal/pkg/common"
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate [entries.json|-]",
	Short: "Consolidate raw ingredient entries into a categorized shopping list",
	Long: `Reads a JSON document of ingredient entries (strings, objects, nested arrays
or category buckets) and prints the consolidated shopping list. With --plan the
input is a meal plan instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		asPlan, _ := cmd.Flags().GetBool("plan")
		noCombine, _ := cmd.Flags().GetBool("no-combine")
		inventoryPath, _ := cmd.Flags().GetString("inventory")
		userID, _ := cmd.Flags().GetString("user")

		var inventory []grocery.InventoryRecord
		if inventoryPath != "" {
			f, err := os.Open(inventoryPath)
			if err != nil {
				return err
			}
			err = common.DecodeJSON(f, &inventory)
			f.Close()
			if err != nil {
				return fmt.Errorf("parse inventory: %w", err)
			}
		}

		prefs, err := openPreferences(cmd)
		if err != nil {
			return err
		}
		defer prefs.Close()

		assembler := grocery.NewAssembler(newClassifier(prefs), prefs)
		opts := grocery.Options{
			CheckInventory:     inventoryPath != "",
			CombineIngredients: !noCombine,
			UserID:             userID,
		}

		var list *grocery.ShoppingList
		if asPlan {
			var plan grocery.MealPlan
			if err := common.ParseJSONBytes(data, &plan); err != nil {
				return fmt.Errorf("parse meal plan: %w", err)
			}
			list = assembler.BuildShoppingList(cmd.Context(), plan, inventory, opts)
		} else {
			entries, err := grocery.DecodeRawEntries(data)
			if err != nil {
				return err
			}
			list = assembler.BuildFromEntries(cmd.Context(), entries, inventory, opts)
		}
		return writeJSON(cmd.OutOrStdout(), list)
	},
}

func init() {
	consolidateCmd.Flags().Bool("plan", false, "Input is a meal plan document")
	consolidateCmd.Flags().Bool("no-combine", false, "Place entries without merging duplicates")
	consolidateCmd.Flags().String("inventory", "", "JSON file with inventory records to match against")
	rootCmd.AddCommand(consolidateCmd)
}
