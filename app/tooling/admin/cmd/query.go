package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/ardanlabs/blockstore/business/core/gateway"
	"github.com/ardanlabs/blockstore/foundation/blockchain/database"
	"github.com/ardanlabs/blockstore/foundation/blockchain/storage"
	"github.com/spf13/cobra"
)

var blockCmd = &cobra.Command{
	Use:   "block <number>",
	Short: "Print a stored block",
	Args:  cobra.ExactArgs(1),
	RunE:  blockRun,
}

var txsCmd = &cobra.Command{
	Use:   "txs <number>",
	Short: "Print the transactions of a stored block",
	Args:  cobra.ExactArgs(1),
	RunE:  txsRun,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the state of the blocks file and its index",
	RunE:  statsRun,
}

func init() {
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(txsCmd)
	rootCmd.AddCommand(statsCmd)
}

func blockRun(cmd *cobra.Command, args []string) error {
	number, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return err
	}

	strg, err := openStorage()
	if err != nil {
		return err
	}
	defer strg.Close()

	var block database.Block
	err = strg.View(func(txn *storage.Txn) error {
		block, err = txn.Block(number)
		return err
	})
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(block, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Hash: %s\n%s\n", block.Hash(), data)
	return nil
}

func txsRun(cmd *cobra.Command, args []string) error {
	number, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return err
	}

	strg, err := openStorage()
	if err != nil {
		return err
	}
	defer strg.Close()

	var trans []gateway.Transaction
	err = strg.View(func(txn *storage.Txn) error {
		trans, err = gateway.GetBlockTxsByNumber(txn, number)
		return err
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HASH\tFROM\tTO\tNONCE\tVALUE\tTIP")
	for _, tx := range trans {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n", tx.Hash, tx.FromAccount, tx.ToAccount, tx.Nonce, tx.Value, tx.Tip)
	}

	return w.Flush()
}

func statsRun(cmd *cobra.Command, args []string) error {
	strg, err := openStorage()
	if err != nil {
		return err
	}
	defer strg.Close()

	stats, err := strg.Stats()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Codec:\t%s\n", stats.Codec)
	fmt.Fprintf(w, "Capacity:\t%d\n", stats.Capacity)
	fmt.Fprintf(w, "Next offset:\t%d\n", stats.FileOffset)
	fmt.Fprintf(w, "Transactions:\t%d\n", stats.Transactions)
	fmt.Fprintf(w, "Index size:\t%d\n", stats.IndexSize)

	if stats.NextBlock == 0 {
		fmt.Fprintf(w, "Latest block:\tnone\n")
	} else {
		fmt.Fprintf(w, "Latest block:\t%d\n", stats.NextBlock-1)
	}

	return w.Flush()
}
