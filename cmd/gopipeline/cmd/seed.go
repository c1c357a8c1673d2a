package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gopipeline/internal/config"
)

var seedDir string

// Demo inputs covering the three routing paths: a pristine file, a messy
// file whose score lands in the cleaning band, and a clean file that
// introduces two new columns.
var seedInputs = map[string]string{
	"day1_clean.csv": `order_id,customer,amount,order_date,region
1001,Acme Corp,250.00,2025-01-15,north
1002,Globex,99.95,2025-01-16,south
1003,Initech,780.00,2025-01-17,east
1004,Umbrella,120.50,2025-01-18,west
`,
	"day2_messy.csv": `order_id,customer,amount,order_date
2001,Acme Corp,250.00,2025-02-01
2001,Acme Corp,250.00,2025-02-01
2002,,99.95,02/03/2025
2003,Globex,15000.00,15-02-2025
2004,,,2025-02-05
`,
	"day3_schema_change.csv": `order_id,customer,amount,order_date,region,discount_code,sales_channel
3001,Acme Corp,310.00,2025-03-01,north,SPRING10,online
3002,Globex,89.99,2025-03-02,south,WELCOME5,retail
3003,Initech,455.25,2025-03-03,east,SPRING10,online
3004,Umbrella,220.00,2025-03-04,west,VIP5,partner
`,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write demo input files into the input directory",
	Long: `Seed writes three demo CSV files that exercise the three routing paths:

  day1_clean.csv          pristine data, loaded directly
  day2_messy.csv          nulls, a duplicate, an outlier and mixed date
                          formats; scores in the cleaning band
  day3_schema_change.csv  clean data with two columns the warehouse has
                          not seen before

Example:
  gopipeline seed --dir data`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedDir, "dir", "",
		"Directory to write the demo files into (default: configured input_dir)")

	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	dir := seedDir
	if dir == "" {
		cfg, err := config.Load(GetConfigFile())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		dir = cfg.Pipeline.InputDir
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create input directory %s: %w", dir, err)
	}

	for _, name := range []string{"day1_clean.csv", "day2_messy.csv", "day3_schema_change.csv"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(seedInputs[name]), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		cmd.Printf("Wrote %s\n", path)
	}

	cmd.Printf("\nSeeded %d demo files into %s\n", len(seedInputs), dir)
	return nil
}
