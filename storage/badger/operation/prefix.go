package operation

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (

	// codes for fields associated with the emulated chain
	codeLatestBlock = 10

	// codes for entities
	codeAccount = 20
	codeBlock   = 21
	codeReceipt = 22
	codeEvent   = 23
	codeBalance = 24
	codeStake   = 25
	codeCounter = 26
)

func makePrefix(code byte, keys ...interface{}) []byte {
	prefix := []byte{code}
	for _, key := range keys {
		prefix = append(prefix, b(key)...)
	}
	return prefix
}

func b(v interface{}) []byte {
	switch i := v.(type) {
	case uint8:
		return []byte{i}
	case uint32:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, i)
		return b
	case uint64:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, i)
		return b
	case string:
		return []byte(i)
	case common.Address:
		return i.Bytes()
	case common.Hash:
		return i.Bytes()
	default:
		panic(fmt.Sprintf("unsupported type to convert (%T)", v))
	}
}
