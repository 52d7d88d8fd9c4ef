// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
)

// Backend is the subset of an Ethereum client the contract needs.
// *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

type ContractConfig struct {
	Address    string
	ABI        string // Base64 JSON, empty for the built-in ABI
	PrivateKey string // hex, signs votes on behalf of voters
	GasTipGwei int64
	GasCapGwei int64
	// MineTimeout bounds the wait for a sent transaction to be mined.
	// Zero selects DefaultMineTimeout.
	MineTimeout time.Duration
}

const DefaultMineTimeout = 3 * time.Minute

// Contract talks to the deployed Voting contract. Reads are plain calls;
// writes are signed with the service key and waited on until mined.
type Contract struct {
	backend   Backend
	abi       abi.ABI
	bound     *bind.BoundContract
	key       *ecdsa.PrivateKey
	chainID   *big.Int
	gasTip    *big.Int
	gasFeeCap *big.Int

	mineTimeout time.Duration
}

// Dial connects to rpcURL and binds the contract described by cfg.
func Dial(ctx context.Context, rpcURL string, cfg ContractConfig) (*Contract, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ledger RPC: %w", err)
	}
	c, err := NewContract(ctx, client, cfg)
	if err != nil {
		client.Close()
		return nil, err
	}
	return c, nil
}

func NewContract(ctx context.Context, backend Backend, cfg ContractConfig) (*Contract, error) {
	if !common.IsHexAddress(cfg.Address) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.Address)
	}
	parsed, err := ParseABI(cfg.ABI)
	if err != nil {
		return nil, err
	}

	c := &Contract{
		backend: backend,
		abi:     parsed,
		bound:   bind.NewBoundContract(common.HexToAddress(cfg.Address), parsed, backend, backend, backend),

		mineTimeout: cfg.MineTimeout,
	}
	if c.mineTimeout <= 0 {
		c.mineTimeout = DefaultMineTimeout
	}

	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid ledger private key: %w", err)
		}
		c.key = key

		chainID, err := backend.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch chain id: %w", err)
		}
		c.chainID = chainID
	}

	if cfg.GasTipGwei > 0 {
		c.gasTip = new(big.Int).Mul(big.NewInt(cfg.GasTipGwei), big.NewInt(params.GWei))
	}
	if cfg.GasCapGwei > 0 {
		c.gasFeeCap = new(big.Int).Mul(big.NewInt(cfg.GasCapGwei), big.NewInt(params.GWei))
	}

	return c, nil
}

func (c *Contract) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, Classify(method, err)
	}
	return out, nil
}

// output converts return value i of method to T. Values of another shape
// are reported as a rejection; abi.ConvertType panics on them.
func output[T any](method string, out []interface{}, i int) (v T, err error) {
	if i >= len(out) {
		return v, &Error{Kind: KindRejected, Op: method, Reason: fmt.Sprintf("missing return value %d", i)}
	}
	defer func() {
		if r := recover(); r != nil {
			err = &Error{
				Kind:   KindRejected,
				Op:     method,
				Reason: fmt.Sprintf("unexpected return value %d (%T): %v", i, out[i], r),
			}
		}
	}()
	return *abi.ConvertType(out[i], new(T)).(*T), nil
}

func (c *Contract) ElectionCount(ctx context.Context) (uint64, error) {
	out, err := c.call(ctx, methodCount)
	if err != nil {
		return 0, err
	}
	count, err := output[*big.Int](methodCount, out, 0)
	if err != nil {
		return 0, err
	}
	return count.Uint64(), nil
}

func (c *Contract) ElectionDetails(ctx context.Context, id uint64) (Details, error) {
	out, err := c.call(ctx, methodDetails, new(big.Int).SetUint64(id))
	if err != nil {
		return Details{}, err
	}

	name, err := output[string](methodDetails, out, 0)
	if err != nil {
		return Details{}, err
	}
	start, err := output[*big.Int](methodDetails, out, 1)
	if err != nil {
		return Details{}, err
	}
	end, err := output[*big.Int](methodDetails, out, 2)
	if err != nil {
		return Details{}, err
	}
	years, err := output[[]*big.Int](methodDetails, out, 3)
	if err != nil {
		return Details{}, err
	}
	sections, err := output[[]string](methodDetails, out, 4)
	if err != nil {
		return Details{}, err
	}

	if len(years) != len(sections) {
		return Details{}, &Error{
			Kind:   KindRejected,
			Op:     methodDetails,
			Reason: fmt.Sprintf("election %d has %d target years but %d target sections", id, len(years), len(sections)),
		}
	}

	pairs := make([]Pair, len(years))
	for i := range years {
		pairs[i] = Pair{Year: int(years[i].Int64()), Section: sections[i]}
	}

	return Details{
		ID:        id,
		Title:     name,
		StartTime: start.Int64(),
		EndTime:   end.Int64(),
		Pairs:     pairs,
	}, nil
}

// candidateTuple mirrors struct Voting.Candidate.
type candidateTuple struct {
	Id        *big.Int
	Name      string
	VoteCount *big.Int
}

func (c *Contract) ElectionCandidates(ctx context.Context, id uint64) ([]Candidate, error) {
	out, err := c.call(ctx, methodCandidates, new(big.Int).SetUint64(id))
	if err != nil {
		return nil, err
	}

	raw, err := output[[]candidateTuple](methodCandidates, out, 0)
	if err != nil {
		return nil, err
	}
	candidates := make([]Candidate, len(raw))
	for i, t := range raw {
		candidates[i] = Candidate{ID: t.Id.Uint64(), Name: t.Name, Votes: t.VoteCount.Uint64()}
	}
	return candidates, nil
}

func (c *Contract) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if c.key == nil {
		return nil, errors.New("ledger private key not configured")
	}
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	opts.GasTipCap = c.gasTip
	opts.GasFeeCap = c.gasFeeCap
	return opts, nil
}

// transact sends method and blocks until the transaction is mined.
func (c *Contract) transact(ctx context.Context, method string, args ...interface{}) (*types.Receipt, error) {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Op: method, Err: err}
	}

	tx, err := c.bound.Transact(opts, method, args...)
	if err != nil {
		return nil, Classify(method, err)
	}
	slog.Info("ledger transaction sent", "method", method, "tx", tx.Hash().Hex())

	// Once sent, the outcome is awaited even if the caller goes away, so a
	// mined vote still reaches the receipt store.
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.mineTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(waitCtx, c.backend, tx)
	if err != nil {
		return nil, &Error{
			Kind:        KindUnavailable,
			Op:          method,
			Unconfirmed: true,
			TxHash:      tx.Hash().Hex(),
			Err:         err,
		}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, &Error{
			Kind:   KindRejected,
			Op:     method,
			Reason: fmt.Sprintf("transaction %s reverted", tx.Hash().Hex()),
		}
	}
	return receipt, nil
}

func (c *Contract) RecordVote(ctx context.Context, electionID, candidateID uint64) (string, error) {
	receipt, err := c.transact(ctx, methodRecordVote,
		new(big.Int).SetUint64(electionID), new(big.Int).SetUint64(candidateID))
	if err != nil {
		return "", err
	}
	return receipt.TxHash.Hex(), nil
}

// electionCreated mirrors the ElectionCreated event.
type electionCreated struct {
	ElectionId *big.Int
	Name       string
}

func (c *Contract) CreateElection(ctx context.Context, spec ElectionSpec) (Created, error) {
	if _, ok := c.abi.Methods[methodCreate]; !ok {
		return Created{}, &Error{Kind: KindRejected, Op: methodCreate, Reason: "contract ABI has no createElection method"}
	}

	years := make([]*big.Int, len(spec.Pairs))
	sections := make([]string, len(spec.Pairs))
	for i, p := range spec.Pairs {
		years[i] = big.NewInt(int64(p.Year))
		sections[i] = p.Section
	}
	duration := big.NewInt(int64(spec.Duration.Seconds()))

	receipt, err := c.transact(ctx, methodCreate, spec.Title, spec.Candidates, duration, years, sections)
	if err != nil {
		return Created{}, err
	}
	created := Created{TxHash: receipt.TxHash.Hex()}

	if ev, ok := c.abi.Events[eventCreated]; ok {
		for _, lg := range receipt.Logs {
			if len(lg.Topics) == 0 || lg.Topics[0] != ev.ID {
				continue
			}
			var out electionCreated
			if err := c.bound.UnpackLog(&out, eventCreated, *lg); err != nil {
				slog.Warn("failed to unpack ElectionCreated", "error", err, "tx", created.TxHash)
				break
			}
			created.ElectionID = out.ElectionId.Uint64()
			return created, nil
		}
	}

	// No event in the receipt; the newest election is ours unless another
	// admin raced us.
	count, err := c.ElectionCount(ctx)
	if err != nil {
		slog.Warn("election created but id unknown", "error", err, "tx", created.TxHash)
		return created, nil
	}
	created.ElectionID = count
	return created, nil
}
