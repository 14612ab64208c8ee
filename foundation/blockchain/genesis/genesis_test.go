package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/blockstore/foundation/blockchain/genesis"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

const genesisJSON = `{
	"date": "2026-01-01T00:00:00Z",
	"chain_id": 1,
	"beneficiary": "0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8",
	"trans_per_block": 3,
	"gas_price": 15,
	"accounts": ["0xF01813E4B85e178A83e29B8E7bF26BD830a25f32", "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"]
}`

func Test_Generate(t *testing.T) {
	t.Log("Given the need to generate a demo chain from a genesis file.")
	{
		path := filepath.Join(t.TempDir(), "genesis.json")
		if err := os.WriteFile(path, []byte(genesisJSON), 0600); err != nil {
			t.Fatalf("\t%s\tShould be able to write the genesis file: %s", failed, err)
		}

		gen, err := genesis.Load(path)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the genesis file: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to load the genesis file.", success)

		pk, err := crypto.HexToECDSA(pkHexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the private key: %s", failed, err)
		}

		blocks, err := gen.Generate(pk, nil, 3)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate blocks: %s", failed, err)
		}

		if err := blocks[0].ValidateGenesis(); err != nil {
			t.Fatalf("\t%s\tShould generate a valid genesis block: %s", failed, err)
		}

		for i := 1; i < len(blocks); i++ {
			if err := blocks[i].Validate(blocks[i-1], func(string, ...any) {}); err != nil {
				t.Fatalf("\t%s\tShould generate a valid block %d: %s", failed, i, err)
			}
			if len(blocks[i].Trans) != 3 {
				t.Fatalf("\t%s\tShould put 3 transactions in block %d.", failed, i)
			}
		}
		t.Logf("\t%s\tShould generate a valid chain.", success)

		more, err := gen.Generate(pk, &blocks[2], 1)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to extend the chain: %s", failed, err)
		}

		if err := more[0].Validate(blocks[2], func(string, ...any) {}); err != nil {
			t.Fatalf("\t%s\tShould extend the chain with a valid block: %s", failed, err)
		}
		t.Logf("\t%s\tShould extend the chain with a valid block.", success)
	}
}
