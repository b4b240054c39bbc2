// Package chain relays oracle decisions to the on-chain betting-pool
// contract over JSON-RPC. It is an alternative settlement submitter: when
// the authoritative ledger lives in a contract rather than in-process, the
// consensus engine drives this relay instead of the local ledger handle.
package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alanyoungcy/paribet/internal/crypto"
	"github.com/alanyoungcy/paribet/internal/domain"
)

// Contract function selectors, keccak256(signature)[:4].
var (
	settleMarketSel  = selector("settleMarket(uint256,uint8)")
	voidMarketSel    = selector("voidMarket(uint256)")
	marketCounterSel = selector("marketCounter()")
)

func selector(sig string) []byte {
	return ethcrypto.Keccak256([]byte(sig))[:4]
}

// Config holds relay parameters.
type Config struct {
	// RPCURL is the JSON-RPC endpoint of the execution client.
	RPCURL string

	// ContractAddr is the betting-pool contract address.
	ContractAddr string

	// GasLimit caps settlement transactions. Zero means estimate per call.
	GasLimit uint64

	// ReceiptTimeout bounds how long SubmitAndWait polls for inclusion.
	ReceiptTimeout time.Duration

	// ReceiptPollInterval is the spacing between receipt polls.
	ReceiptPollInterval time.Duration
}

// Relay submits settlement and void transactions to the contract and reads
// its market counter.
type Relay struct {
	cfg      Config
	client   *ethclient.Client
	signer   *crypto.Signer
	contract common.Address
	logger   *slog.Logger
}

// New dials the RPC endpoint and returns a Relay.
func New(ctx context.Context, cfg Config, signer *crypto.Signer, logger *slog.Logger) (*Relay, error) {
	if !common.IsHexAddress(cfg.ContractAddr) {
		return nil, fmt.Errorf("chain: invalid contract address %q", cfg.ContractAddr)
	}
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = 2 * time.Minute
	}
	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = 3 * time.Second
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", cfg.RPCURL, err)
	}

	return &Relay{
		cfg:      cfg,
		client:   client,
		signer:   signer,
		contract: common.HexToAddress(cfg.ContractAddr),
		logger:   logger.With(slog.String("component", "chain_relay")),
	}, nil
}

// Close releases the RPC connection.
func (r *Relay) Close() {
	r.client.Close()
}

// SettleMarket submits settleMarket(marketID, winningOutcome) and waits for
// the transaction to be mined. A reverted transaction is an error; the
// engine retries on the next cycle.
func (r *Relay) SettleMarket(ctx context.Context, marketID int64, winningOutcome uint8) error {
	data := packCall(settleMarketSel,
		new(big.Int).SetInt64(marketID),
		new(big.Int).SetUint64(uint64(winningOutcome)),
	)
	txHash, err := r.submitAndWait(ctx, data)
	if err != nil {
		return fmt.Errorf("chain: settle market %d: %w", marketID, err)
	}

	r.logger.InfoContext(ctx, "chain: market settled on-chain",
		slog.Int64("market_id", marketID),
		slog.Int("winning_outcome", int(winningOutcome)),
		slog.String("tx", txHash.Hex()),
	)
	return nil
}

// VoidMarket submits voidMarket(marketID) and waits for inclusion.
func (r *Relay) VoidMarket(ctx context.Context, marketID int64) error {
	data := packCall(voidMarketSel, new(big.Int).SetInt64(marketID))
	txHash, err := r.submitAndWait(ctx, data)
	if err != nil {
		return fmt.Errorf("chain: void market %d: %w", marketID, err)
	}

	r.logger.InfoContext(ctx, "chain: market voided on-chain",
		slog.Int64("market_id", marketID),
		slog.String("tx", txHash.Hex()),
	)
	return nil
}

// MarketCount reads the contract's marketCounter via eth_call.
func (r *Relay) MarketCount(ctx context.Context) (int64, error) {
	out, err := r.client.CallContract(ctx, callMsg(r.contract, marketCounterSel), nil)
	if err != nil {
		return 0, fmt.Errorf("chain: read market counter: %w", err)
	}
	if len(out) < 32 {
		return 0, fmt.Errorf("chain: short market counter return (%d bytes)", len(out))
	}
	return new(big.Int).SetBytes(out[:32]).Int64(), nil
}

// submitAndWait builds, signs and sends a transaction carrying data, then
// polls until it is mined or the receipt timeout elapses.
func (r *Relay) submitAndWait(ctx context.Context, data []byte) (common.Hash, error) {
	from := r.signer.Address()

	nonce, err := r.client.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pending nonce: %w", err)
	}

	tipCap, err := r.client.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest gas tip: %w", err)
	}
	head, err := r.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("head header: %w", err)
	}
	// feeCap = 2*baseFee + tip leaves headroom for base-fee growth while the
	// transaction is pending.
	feeCap := new(big.Int).Add(
		new(big.Int).Mul(head.BaseFee, big.NewInt(2)),
		tipCap,
	)

	gasLimit := r.cfg.GasLimit
	if gasLimit == 0 {
		msg := callMsg(r.contract, data)
		msg.From = from
		gasLimit, err = r.client.EstimateGas(ctx, msg)
		if err != nil {
			return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
		}
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   r.signer.ChainID(),
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &r.contract,
		Data:      data,
	})

	signed, err := r.signer.SignTx(tx)
	if err != nil {
		return common.Hash{}, err
	}
	if err := r.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}

	hash := signed.Hash()
	if err := r.waitMined(ctx, hash); err != nil {
		return hash, err
	}
	return hash, nil
}

func (r *Relay) waitMined(ctx context.Context, hash common.Hash) error {
	deadline := time.Now().Add(r.cfg.ReceiptTimeout)
	ticker := time.NewTicker(r.cfg.ReceiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := r.client.TransactionReceipt(ctx, hash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("transaction %s reverted", hash.Hex())
			}
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("transaction %s not mined within %s", hash.Hex(), r.cfg.ReceiptTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// packCall ABI-encodes a call with uint256-padded arguments.
func packCall(sel []byte, args ...*big.Int) []byte {
	data := make([]byte, 0, 4+32*len(args))
	data = append(data, sel...)
	for _, a := range args {
		data = append(data, common.LeftPadBytes(a.Bytes(), 32)...)
	}
	return data
}

func callMsg(to common.Address, data []byte) ethereum.CallMsg {
	return ethereum.CallMsg{To: &to, Data: data}
}

// Compile-time interface check.
var _ domain.SettlementSubmitter = (*Relay)(nil)
