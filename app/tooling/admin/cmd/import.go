package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ardanlabs/blockstore/foundation/blockchain/database"
	"github.com/ardanlabs/blockstore/foundation/blockchain/storage"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Append the blocks in a JSON file to storage",
	Args:  cobra.ExactArgs(1),
	RunE:  importRun,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func importRun(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	var blocks []database.Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return fmt.Errorf("decoding blocks: %w", err)
	}

	strg, err := openStorage()
	if err != nil {
		return err
	}
	defer strg.Close()

	// All blocks go in as one update so a bad block leaves storage untouched.
	err = strg.Update(func(txn *storage.Txn) error {
		for _, block := range blocks {
			if _, err := txn.Append(block); err != nil {
				return fmt.Errorf("block %d: %w", block.Header.Number, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d blocks\n", len(blocks))
	return nil
}
