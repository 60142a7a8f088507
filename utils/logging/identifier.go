package logging

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/dualsig/wallet-relay/model/wallet"
)

// Hashes renders hashes as hex strings for zerolog's Strs.
func Hashes(hashes []common.Hash) []string {
	ss := make([]string, 0, len(hashes))
	for _, h := range hashes {
		ss = append(ss, h.Hex())
	}
	return ss
}

func Roles(roles []wallet.Role) []string {
	ss := make([]string, 0, len(roles))
	for _, r := range roles {
		ss = append(ss, r.String())
	}
	return ss
}

// Operation returns a child logger carrying the identifying fields of a
// relayed operation.
func Operation(log zerolog.Logger, sender common.Address, nonce uint64, opHash common.Hash) zerolog.Logger {
	return log.With().
		Str("wallet", sender.Hex()).
		Uint64("nonce", nonce).
		Str("op_hash", opHash.Hex()).
		Logger()
}
