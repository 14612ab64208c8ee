package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/blockstore/foundation/blockchain/database"
	"github.com/ardanlabs/blockstore/foundation/blockchain/genesis"
	"github.com/ardanlabs/blockstore/foundation/blockchain/storage"
	"github.com/spf13/cobra"
)

var (
	genesisPath string
	genCount    int
	genOut      string
	genFollow   bool
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a chain of signed demo blocks as JSON",
	RunE:  genRun,
}

func init() {
	genCmd.Flags().StringVarP(&genesisPath, "genesis", "g", "zblock/genesis.json", "Path to the genesis file.")
	genCmd.Flags().IntVarP(&genCount, "count", "n", 10, "Number of blocks to generate.")
	genCmd.Flags().StringVarP(&genOut, "out", "o", "", "File to write the blocks to, stdout when empty.")
	genCmd.Flags().BoolVar(&genFollow, "follow", false, "Continue from the latest block in storage.")
	rootCmd.AddCommand(genCmd)
}

func genRun(cmd *cobra.Command, args []string) error {
	gen, err := genesis.Load(genesisPath)
	if err != nil {
		return fmt.Errorf("loading genesis: %w", err)
	}

	privateKey, err := loadPrivateKey()
	if err != nil {
		return fmt.Errorf("loading private key: %w", err)
	}

	var parent *database.Block
	if genFollow {
		if parent, err = latestBlock(); err != nil {
			return err
		}
	}

	blocks, err := gen.Generate(privateKey, parent, genCount)
	if err != nil {
		return fmt.Errorf("generating blocks: %w", err)
	}

	data, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		return err
	}

	if genOut == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if err := os.WriteFile(genOut, data, 0600); err != nil {
		return err
	}

	log.Infow("gen", "blocks", len(blocks), "out", genOut)
	return nil
}

// latestBlock returns the latest stored block, or nil when the storage
// holds no blocks.
func latestBlock() (*database.Block, error) {
	strg, err := openStorage()
	if err != nil {
		return nil, err
	}
	defer strg.Close()

	var block database.Block
	err = strg.View(func(txn *storage.Txn) error {
		number, err := txn.LatestBlockNumber()
		if err != nil {
			return err
		}

		block, err = txn.Block(number)
		return err
	})

	switch {
	case errors.Is(err, database.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}

	return &block, nil
}
