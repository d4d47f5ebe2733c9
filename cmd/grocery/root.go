package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"grocery-engine/internal/core/grocery"
	"grocery-engine/internal/core/preference"
	"grocery-engine/internal/pkg/common"
)

// rootCmd 不帶子命令時的基礎命令
var rootCmd = &cobra.Command{
	Use:   "grocery",
	Short: "Ingredient normalization, classification and shopping list consolidation",
	Long: `grocery runs the shopping list engine locally: normalize ingredient names,
classify them into store sections, and consolidate recipe ingredients into a
categorized shopping list.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if level, _ := cmd.Flags().GetString("loglevel"); level != "" {
			common.InitConsoleLogger(level, cmd.ErrOrStderr())
		}
		return nil
	},
}

// Execute 執行根命令
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("loglevel", "l", "", "Enable logging at level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("prefs-db", "", "SQLite database with category preferences")
	rootCmd.PersistentFlags().StringP("user", "u", "", "User whose category preferences apply")
}

// openPreferences 依 --prefs-db 開啟偏好儲存，未指定時返回記憶體儲存
func openPreferences(cmd *cobra.Command) (preference.Store, error) {
	path, _ := cmd.Flags().GetString("prefs-db")
	if path == "" {
		return preference.NewMemoryStore(), nil
	}
	return preference.OpenSQLite(path)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// readInput 讀取檔案參數，"-" 或未提供時讀 stdin
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}

func newClassifier(prefs grocery.PreferenceStore) *grocery.Classifier {
	return grocery.NewClassifier(prefs)
}
