package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soundalike/soundalike/configs"
	"github.com/soundalike/soundalike/pkg/feature"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the persisted feature schema",
	RunE:  runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	config, err := configs.LoadConfig()
	if err != nil {
		return err
	}

	schema, ok, err := feature.LoadSchema(config.Store.SchemaFile)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("no schema persisted yet; ingest a track to bootstrap it")
		return nil
	}

	if viper.GetString("output_format") == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(schema)
	}

	fmt.Printf("%-20s %8s %8s\n", "BLOCK", "LENGTH", "OFFSET")
	offset := 0
	for _, b := range schema.Blocks {
		fmt.Printf("%-20s %8d %8d\n", b.Name, b.Length, offset)
		offset += b.Length
	}
	fmt.Printf("%-20s %8d\n", "TOTAL", schema.TotalLength())
	return nil
}
