package authority

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Fixed first seeds of the vault's program-owned data accounts.
const (
	BoostLabel  = "boost"
	ClaimsLabel = "claims"
)

// Distributor derives the boost distribution slot of the vault at state:
//
//	["boost", state]
func Distributor(programID, state solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte(BoostLabel), state[:]}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("find boost distributor: %w", err)
	}
	return addr, nil
}

// ClaimBitmap derives the claim bitmap of the vault at state for epoch. Each
// epoch gets its own bitmap:
//
//	["claims", state, le64(epoch)]
func ClaimBitmap(programID, state solana.PublicKey, epoch uint64) (solana.PublicKey, error) {
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], epoch)
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte(ClaimsLabel), state[:], le[:]}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("find claim bitmap: %w", err)
	}
	return addr, nil
}
