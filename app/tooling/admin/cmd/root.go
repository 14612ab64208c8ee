// Package cmd contains the admin commands.
package cmd

import (
	"crypto/ecdsa"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/blockstore/foundation/blockchain/mmapfile"
	"github.com/ardanlabs/blockstore/foundation/blockchain/storage"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const keyExtension = ".ecdsa"

var (
	log *zap.SugaredLogger

	accountName string
	accountPath string

	dbPath        string
	codecName     string
	maxSize       int
	growthStep    int
	maxObjectSize int
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private.ecdsa", "Name of the private key file.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "zblock/data", "Path to the storage directory.")
	rootCmd.PersistentFlags().StringVar(&codecName, "codec", "json+zstd", "Codec used for stored blocks.")
	rootCmd.PersistentFlags().IntVar(&maxSize, "max-size", 1<<30, "Largest size the blocks file can grow to.")
	rootCmd.PersistentFlags().IntVar(&growthStep, "growth-step", 1<<24, "Bytes the blocks file grows by.")
	rootCmd.PersistentFlags().IntVar(&maxObjectSize, "max-object-size", 1<<20, "Largest encoded block.")
}

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "Administrative tasks for the block storage",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command selected by the command line.
func Execute(l *zap.SugaredLogger) error {
	log = l
	return rootCmd.Execute()
}

func getPrivateKeyPath() string {
	name := accountName
	if !strings.HasSuffix(name, keyExtension) {
		name += keyExtension
	}

	return filepath.Join(accountPath, name)
}

func loadPrivateKey() (*ecdsa.PrivateKey, error) {
	return crypto.LoadECDSA(getPrivateKeyPath())
}

func openStorage() (*storage.Storage, error) {
	return storage.Open(storage.Config{
		DBPath: dbPath,
		File: mmapfile.Config{
			MaxSize:       maxSize,
			GrowthStep:    growthStep,
			MaxObjectSize: maxObjectSize,
		},
		Codec: codecName,
		EvHandler: func(v string, args ...any) {
			log.Debugf(v, args...)
		},
	})
}
