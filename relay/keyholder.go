package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/dualsig/wallet-relay/crypto"
	"github.com/dualsig/wallet-relay/model/wallet"
)

// SignatureRequest asks a key holder to authorize an action.
type SignatureRequest struct {
	ID     uuid.UUID
	Wallet common.Address
	Role   wallet.Role
	Action wallet.Action
	Nonce  uint64
	// Digest is the canonical message of Action at Nonce on Wallet.
	Digest common.Hash
}

type SignatureResponse struct {
	ID        uuid.UUID
	Signature wallet.Signature
	Err       error
}

// KeyHolder produces signatures for one role of a wallet. Holders may need
// out-of-band interaction and can take arbitrarily long; callers bound them
// with the context.
type KeyHolder interface {
	Address() common.Address
	Sign(ctx context.Context, req SignatureRequest) (wallet.Signature, error)
}

// LocalKeyHolder signs with a key held in process.
type LocalKeyHolder struct {
	key *crypto.PrivateKey
}

var _ KeyHolder = (*LocalKeyHolder)(nil)

func NewLocalKeyHolder(key *crypto.PrivateKey) *LocalKeyHolder {
	return &LocalKeyHolder{key: key}
}

func (h *LocalKeyHolder) Address() common.Address {
	return h.key.Address()
}

// Sign only signs digests it can rebuild from the request itself.
func (h *LocalKeyHolder) Sign(ctx context.Context, req SignatureRequest) (wallet.Signature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	expected := req.Action.Message(req.Wallet, req.Nonce)
	if req.Digest != expected {
		return nil, fmt.Errorf("digest %s does not match %s at nonce %d", req.Digest.Hex(), req.Action, req.Nonce)
	}
	sig, err := h.key.SignMessage(req.Digest)
	if err != nil {
		return nil, fmt.Errorf("could not sign message: %w", err)
	}
	return sig, nil
}

// ChannelKeyHolder forwards signature requests to an external party over
// channels and waits for the matching response. The external party reads
// Requests and answers through Respond.
type ChannelKeyHolder struct {
	address  common.Address
	requests chan SignatureRequest

	mu      sync.Mutex
	waiting map[uuid.UUID]chan SignatureResponse
}

var _ KeyHolder = (*ChannelKeyHolder)(nil)

func NewChannelKeyHolder(address common.Address) *ChannelKeyHolder {
	return &ChannelKeyHolder{
		address:  address,
		requests: make(chan SignatureRequest),
		waiting:  make(map[uuid.UUID]chan SignatureResponse),
	}
}

func (h *ChannelKeyHolder) Address() common.Address {
	return h.address
}

func (h *ChannelKeyHolder) Requests() <-chan SignatureRequest {
	return h.requests
}

// Respond delivers the answer to an outstanding request. Answers to unknown
// or abandoned requests are dropped.
func (h *ChannelKeyHolder) Respond(resp SignatureResponse) bool {
	h.mu.Lock()
	ch, ok := h.waiting[resp.ID]
	delete(h.waiting, resp.ID)
	h.mu.Unlock()

	if !ok {
		return false
	}
	ch <- resp
	return true
}

func (h *ChannelKeyHolder) Sign(ctx context.Context, req SignatureRequest) (wallet.Signature, error) {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	// buffered so Respond never blocks on an abandoned request
	ch := make(chan SignatureResponse, 1)
	h.mu.Lock()
	h.waiting[req.ID] = ch
	h.mu.Unlock()

	abandon := func() {
		h.mu.Lock()
		delete(h.waiting, req.ID)
		h.mu.Unlock()
	}

	select {
	case h.requests <- req:
	case <-ctx.Done():
		abandon()
		return nil, fmt.Errorf("signature request %s not picked up: %w", req.ID, ctx.Err())
	}

	select {
	case resp := <-ch:
		if resp.Err != nil {
			return nil, fmt.Errorf("key holder %s declined: %w", h.address.Hex(), resp.Err)
		}
		return resp.Signature, nil
	case <-ctx.Done():
		abandon()
		return nil, fmt.Errorf("signature request %s not answered: %w", req.ID, ctx.Err())
	}
}
