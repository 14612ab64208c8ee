package nameservice_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/blockstore/foundation/blockchain/database"
	"github.com/ardanlabs/blockstore/foundation/nameservice"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	dir := t.TempDir()

	pk, err := crypto.HexToECDSA("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	require.NoError(t, err)
	require.NoError(t, crypto.SaveECDSA(filepath.Join(dir, "kennedy.ecdsa"), pk))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0600))

	ns, err := nameservice.New(dir)
	require.NoError(t, err)

	const account = database.AccountID("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
	require.Equal(t, "kennedy", ns.Lookup(account))
	require.Len(t, ns.Copy(), 1)

	unknown := database.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
	require.Equal(t, string(unknown), ns.Lookup(unknown))
}

func TestMissingFolder(t *testing.T) {
	ns, err := nameservice.New(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	require.Empty(t, ns.Copy())
}
