package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/anti-app/antiapp-backend/internal/config"
)

// weiPerCoin scales the mirrored amount into a deliberately tiny value,
// the same way the original mirrored coins as lamports x100.
const weiPerCoin = 100

// receiptPollInterval is how often the confirmation poll asks for a receipt.
const receiptPollInterval = 2 * time.Second

// EthSettler mirrors settlements on an Ethereum-compatible network using
// a server-held key.
type EthSettler struct {
	client         *ethclient.Client
	key            *ecdsa.PrivateKey
	from           common.Address
	chainID        *big.Int
	confirmTimeout time.Duration
}

// NewEthSettler dials the RPC endpoint and prepares the signing key.
func NewEthSettler(cfg config.ChainConfig) (*EthSettler, error) {
	client, errDial := ethclient.Dial(cfg.RPCURL)
	if errDial != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", cfg.RPCURL, errDial)
	}

	key, errKey := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x"))
	if errKey != nil {
		client.Close()
		return nil, fmt.Errorf("chain: parse private key: %w", errKey)
	}

	chainID := big.NewInt(cfg.ChainID)
	if cfg.ChainID == 0 {
		netID, errNet := client.ChainID(context.Background())
		if errNet != nil {
			client.Close()
			return nil, fmt.Errorf("chain: resolve chain id: %w", errNet)
		}
		chainID = netID
	}

	return &EthSettler{
		client:         client,
		key:            key,
		from:           crypto.PubkeyToAddress(key.PublicKey),
		chainID:        chainID,
		confirmTimeout: cfg.ConfirmTimeout,
	}, nil
}

// Close releases the RPC connection.
func (s *EthSettler) Close() {
	if s != nil && s.client != nil {
		s.client.Close()
	}
}

// Mint mirrors an earn as a memo-tagged self-transfer.
func (s *EthSettler) Mint(ctx context.Context, amount int64, memo string) (*Receipt, error) {
	return s.submit(ctx, s.from, amount, memo)
}

// Transfer mirrors a spend toward a third-party address.
func (s *EthSettler) Transfer(ctx context.Context, to string, amount int64, memo string) (*Receipt, error) {
	if !common.IsHexAddress(to) {
		return &Receipt{Status: StatusFailed}, fmt.Errorf("chain: invalid destination address %q", to)
	}
	return s.submit(ctx, common.HexToAddress(to), amount, memo)
}

func (s *EthSettler) submit(ctx context.Context, to common.Address, amount int64, memo string) (*Receipt, error) {
	if amount <= 0 {
		return &Receipt{Status: StatusFailed}, fmt.Errorf("chain: amount must be positive, got %d", amount)
	}

	nonce, errNonce := s.client.PendingNonceAt(ctx, s.from)
	if errNonce != nil {
		return &Receipt{Status: StatusFailed}, fmt.Errorf("chain: pending nonce: %w", errNonce)
	}
	gasPrice, errGas := s.client.SuggestGasPrice(ctx)
	if errGas != nil {
		return &Receipt{Status: StatusFailed}, fmt.Errorf("chain: suggest gas price: %w", errGas)
	}

	value := big.NewInt(amount * weiPerCoin)
	data := []byte(memo)

	gasLimit, errEstimate := s.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  s.from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if errEstimate != nil {
		return &Receipt{Status: StatusFailed}, fmt.Errorf("chain: estimate gas: %w", errEstimate)
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signed, errSign := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
	if errSign != nil {
		return &Receipt{Status: StatusFailed}, fmt.Errorf("chain: sign: %w", errSign)
	}

	if errSend := s.client.SendTransaction(ctx, signed); errSend != nil {
		return &Receipt{Status: StatusFailed}, fmt.Errorf("chain: submit: %w", errSend)
	}

	return s.awaitReceipt(ctx, signed.Hash())
}

// awaitReceipt polls for inclusion under the configured timeout. A
// deadline is reported as StatusTimedOut with the hash kept: the
// transaction may still land, but the reference is not treated as
// confirmed.
func (s *EthSettler) awaitReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, errReceipt := s.client.TransactionReceipt(waitCtx, hash)
		if errReceipt == nil && receipt != nil {
			if receipt.Status == types.ReceiptStatusSuccessful {
				return &Receipt{TxHash: hash.Hex(), Status: StatusConfirmed}, nil
			}
			return &Receipt{TxHash: hash.Hex(), Status: StatusFailed},
				fmt.Errorf("chain: transaction %s reverted", hash.Hex())
		}
		if errReceipt != nil && !errors.Is(errReceipt, ethereum.NotFound) {
			if waitCtx.Err() != nil {
				return &Receipt{TxHash: hash.Hex(), Status: StatusTimedOut}, nil
			}
			return &Receipt{TxHash: hash.Hex(), Status: StatusFailed},
				fmt.Errorf("chain: fetch receipt: %w", errReceipt)
		}

		select {
		case <-waitCtx.Done():
			return &Receipt{TxHash: hash.Hex(), Status: StatusTimedOut}, nil
		case <-ticker.C:
		}
	}
}
