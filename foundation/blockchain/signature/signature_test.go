package signature_test

import (
	"testing"

	"github.com/ardanlabs/blockstore/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	from     = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	t.Log("Given the need to sign and verify a value.")
	{
		pk, err := crypto.HexToECDSA(pkHexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the private key: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to load the private key.", success)

		sig, err := signature.Sign(value, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign data: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign data.", success)

		if err := sig.Verify(); err != nil {
			t.Fatalf("\t%s\tShould be able to verify the signature: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to verify the signature.", success)

		addr, err := sig.Signer(value)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to recover the signer: %s", failed, err)
		}

		if from != addr {
			t.Logf("\t\tgot: %s", addr)
			t.Logf("\t\texp: %s", from)
			t.Fatalf("\t%s\tShould get back the right address.", failed)
		}
		t.Logf("\t%s\tShould get back the right address.", success)

		parsed, err := signature.Parse(sig.String())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse the signature string: %s", failed, err)
		}

		if parsed.String() != sig.String() {
			t.Logf("\t\tgot: %s", parsed)
			t.Logf("\t\texp: %s", sig)
			t.Fatalf("\t%s\tShould get back the same signature.", failed)
		}
		t.Logf("\t%s\tShould get back the same signature.", success)
	}
}

func Test_Hash(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}
	hash := "0x0f6887ac85101d6d6425a617edf35bd721b5f619fb92c36c3d2224e3bdb0ee5a"

	t.Log("Given the need to hash a value.")
	{
		h := signature.Hash(value)
		if h != hash {
			t.Logf("\t\tgot: %s", h)
			t.Logf("\t\texp: %s", hash)
			t.Fatalf("\t%s\tShould get back the right hash.", failed)
		}
		t.Logf("\t%s\tShould get back the right hash.", success)

		if h := signature.Hash(value); h != hash {
			t.Fatalf("\t%s\tShould get back the same hash twice.", failed)
		}
		t.Logf("\t%s\tShould get back the same hash twice.", success)
	}
}

func Test_SignConsistency(t *testing.T) {
	value1 := struct {
		Name string
	}{
		Name: "Bill",
	}
	value2 := struct {
		Name string
	}{
		Name: "Jill",
	}

	t.Log("Given the need to sign two values with the same key.")
	{
		pk, err := crypto.HexToECDSA(pkHexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the private key: %s", failed, err)
		}

		sig1, err := signature.Sign(value1, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the first value: %s", failed, err)
		}

		sig2, err := signature.Sign(value2, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the second value: %s", failed, err)
		}

		addr1, err := sig1.Signer(value1)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to recover the first signer: %s", failed, err)
		}

		addr2, err := sig2.Signer(value2)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to recover the second signer: %s", failed, err)
		}

		if addr1 != addr2 {
			t.Logf("\t\tgot: %s", addr1)
			t.Logf("\t\tgot: %s", addr2)
			t.Fatalf("\t%s\tShould have the same address.", failed)
		}
		t.Logf("\t%s\tShould have the same address.", success)

		addr, err := sig1.Signer(value2)
		if err == nil && addr == addr1 {
			t.Fatalf("\t%s\tShould not recover the signer for a different value.", failed)
		}
		t.Logf("\t%s\tShould not recover the signer for a different value.", success)
	}
}

func Test_VerifyRejects(t *testing.T) {
	t.Log("Given the need to reject malformed signatures.")
	{
		if err := (signature.Signature{}).Verify(); err == nil {
			t.Fatalf("\t%s\tShould reject an empty signature.", failed)
		}
		t.Logf("\t%s\tShould reject an empty signature.", success)

		if _, err := signature.Parse("0x1234"); err == nil {
			t.Fatalf("\t%s\tShould reject a short signature string.", failed)
		}
		t.Logf("\t%s\tShould reject a short signature string.", success)
	}
}
