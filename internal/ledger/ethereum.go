// Package ledger implements the thin client surface over the deployed
// repository contract.
package ledger

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"bvc-go/internal/bvc"
	"bvc-go/internal/config"
)

// contractABI is the interface of the deployed repository contract. The
// method names and argument order are fixed; reshuffling them breaks
// compatibility with existing deployments.
const contractABI = `[
  {"type":"function","name":"createRepository","stateMutability":"nonpayable","inputs":[{"name":"name","type":"string"}],"outputs":[]},
  {"type":"function","name":"recordCommit","stateMutability":"nonpayable","inputs":[{"name":"repoId","type":"uint256"},{"name":"commitId","type":"string"},{"name":"contentId","type":"string"},{"name":"message","type":"string"}],"outputs":[]},
  {"type":"function","name":"recordCheckpoint","stateMutability":"nonpayable","inputs":[{"name":"repoId","type":"uint256"},{"name":"fromId","type":"string"},{"name":"toId","type":"string"},{"name":"bundleContentId","type":"string"},{"name":"aggregateDigest","type":"string"}],"outputs":[]},
  {"type":"function","name":"getCommitCount","stateMutability":"view","inputs":[{"name":"repoId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getCommit","stateMutability":"view","inputs":[{"name":"repoId","type":"uint256"},{"name":"index","type":"uint256"}],"outputs":[{"name":"commitId","type":"string"},{"name":"contentId","type":"string"},{"name":"message","type":"string"},{"name":"author","type":"address"},{"name":"timestamp","type":"uint256"}]},
  {"type":"function","name":"getRepository","stateMutability":"view","inputs":[{"name":"repoId","type":"uint256"}],"outputs":[{"name":"name","type":"string"},{"name":"owner","type":"address"},{"name":"createdAt","type":"uint256"}]},
  {"type":"event","name":"RepositoryCreated","anonymous":false,"inputs":[{"name":"repoId","type":"uint256","indexed":true},{"name":"owner","type":"address","indexed":true},{"name":"name","type":"string","indexed":false}]}
]`

// repositoryCreatedEvent mirrors the RepositoryCreated event for log
// unpacking.
type repositoryCreatedEvent struct {
	RepoId *big.Int
	Owner  common.Address
	Name   string
}

// EthereumLedger implements bvc.Ledger against an Ethereum-compatible node.
// Each operation is a single RPC interaction (plus receipt wait for
// transactions); there is no retry policy.
type EthereumLedger struct {
	client   *ethclient.Client
	contract *bind.BoundContract
	auth     *bind.TransactOpts
	endpoint string
	logger   bvc.Logger
}

var _ bvc.Ledger = (*EthereumLedger)(nil)

// NewEthereumLedger dials the configured RPC endpoint and binds the
// repository contract. Missing endpoint, address, or signing key fail with
// *bvc.ConfigurationMissingError before any network traffic.
func NewEthereumLedger(ctx context.Context, cfg config.LedgerConfig, logger bvc.Logger) (*EthereumLedger, error) {
	if cfg.RPCURL == "" {
		return nil, &bvc.ConfigurationMissingError{Key: "ledger rpcUrl"}
	}
	if cfg.ContractAddress == "" {
		return nil, &bvc.ConfigurationMissingError{Key: "ledger contractAddress"}
	}
	if cfg.PrivateKey == "" {
		return nil, &bvc.ConfigurationMissingError{Key: "ledger privateKey"}
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, &bvc.RemoteUnavailableError{Endpoint: cfg.RPCURL, Err: err}
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, &bvc.RemoteUnavailableError{Endpoint: cfg.RPCURL, Err: err}
	}

	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("building transactor: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("parsing contract ABI: %w", err)
	}
	contract := bind.NewBoundContract(common.HexToAddress(cfg.ContractAddress), parsed, client, client, client)

	return &EthereumLedger{
		client:   client,
		contract: contract,
		auth:     auth,
		endpoint: cfg.RPCURL,
		logger:   logger,
	}, nil
}

// Close releases the underlying RPC connection.
func (l *EthereumLedger) Close() {
	l.client.Close()
}

// CreateRepository registers a repository and returns the ID assigned by
// the contract, read from the RepositoryCreated event in the mined receipt.
func (l *EthereumLedger) CreateRepository(ctx context.Context, name string) (string, error) {
	tx, err := l.contract.Transact(l.txOpts(ctx), "createRepository", name)
	if err != nil {
		return "", l.wrapErr("createRepository", err)
	}
	receipt, err := l.waitMined(ctx, tx, "createRepository")
	if err != nil {
		return "", err
	}

	for _, lg := range receipt.Logs {
		var ev repositoryCreatedEvent
		if err := l.contract.UnpackLog(&ev, "RepositoryCreated", *lg); err != nil {
			continue
		}
		l.logger.Debug("repository created on ledger", "repoId", ev.RepoId.String(), "tx", tx.Hash().Hex())
		return ev.RepoId.String(), nil
	}
	return "", fmt.Errorf("createRepository succeeded but no RepositoryCreated event found (tx %s)", tx.Hash().Hex())
}

// RecordCommit anchors a single commit's metadata.
func (l *EthereumLedger) RecordCommit(ctx context.Context, repoID, commitID, contentID, message string) error {
	id, err := parseRepoID(repoID)
	if err != nil {
		return err
	}
	return l.transact(ctx, "recordCommit", id, commitID, contentID, message)
}

// RecordCheckpoint anchors a commit range in one transaction.
func (l *EthereumLedger) RecordCheckpoint(ctx context.Context, repoID, fromID, toID, bundleContentID, aggregateDigest string) error {
	id, err := parseRepoID(repoID)
	if err != nil {
		return err
	}
	return l.transact(ctx, "recordCheckpoint", id, fromID, toID, bundleContentID, aggregateDigest)
}

// ListCommits reads back the anchored commits, oldest first. The contract
// exposes a count plus indexed access, so this issues count+1 view calls.
func (l *EthereumLedger) ListCommits(ctx context.Context, repoID string) ([]bvc.RemoteCommit, error) {
	id, err := parseRepoID(repoID)
	if err != nil {
		return nil, err
	}

	var out []interface{}
	if err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getCommitCount", id); err != nil {
		return nil, l.wrapErr("getCommitCount", err)
	}
	count := out[0].(*big.Int).Int64()

	commits := make([]bvc.RemoteCommit, 0, count)
	for i := int64(0); i < count; i++ {
		var row []interface{}
		if err := l.contract.Call(&bind.CallOpts{Context: ctx}, &row, "getCommit", id, big.NewInt(i)); err != nil {
			return nil, l.wrapErr("getCommit", err)
		}
		commits = append(commits, bvc.RemoteCommit{
			CommitID:  row[0].(string),
			ContentID: row[1].(string),
			Message:   row[2].(string),
			Author:    row[3].(common.Address).Hex(),
			Timestamp: time.Unix(row[4].(*big.Int).Int64(), 0).UTC(),
		})
	}
	return commits, nil
}

// GetRepository reads back a repository record.
func (l *EthereumLedger) GetRepository(ctx context.Context, repoID string) (*bvc.RemoteRepository, error) {
	id, err := parseRepoID(repoID)
	if err != nil {
		return nil, err
	}

	var out []interface{}
	if err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getRepository", id); err != nil {
		return nil, l.wrapErr("getRepository", err)
	}
	name := out[0].(string)
	if name == "" {
		return nil, &bvc.NotFoundError{Path: "repository " + repoID}
	}
	return &bvc.RemoteRepository{
		RepoID:    repoID,
		Name:      name,
		Owner:     out[1].(common.Address).Hex(),
		CreatedAt: time.Unix(out[2].(*big.Int).Int64(), 0).UTC(),
	}, nil
}

// transact submits a state-changing call and waits for the receipt.
func (l *EthereumLedger) transact(ctx context.Context, method string, args ...interface{}) error {
	tx, err := l.contract.Transact(l.txOpts(ctx), method, args...)
	if err != nil {
		return l.wrapErr(method, err)
	}
	if _, err := l.waitMined(ctx, tx, method); err != nil {
		return err
	}
	l.logger.Debug("transaction mined", "method", method, "tx", tx.Hash().Hex())
	return nil
}

func (l *EthereumLedger) waitMined(ctx context.Context, tx *types.Transaction, method string) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, l.client, tx)
	if err != nil {
		return nil, &bvc.RemoteUnavailableError{Endpoint: l.endpoint, Err: err}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%s transaction reverted (tx %s)", method, tx.Hash().Hex())
	}
	return receipt, nil
}

// txOpts copies the base transactor with the per-call context attached.
func (l *EthereumLedger) txOpts(ctx context.Context) *bind.TransactOpts {
	opts := *l.auth
	opts.Context = ctx
	return &opts
}

// wrapErr maps RPC errors onto the client's error taxonomy. Reverts that
// mention ownership are the contract's owner check; everything else that is
// not a revert is treated as connectivity loss.
func (l *EthereumLedger) wrapErr(op string, err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "execution reverted") || strings.Contains(msg, "revert") {
		if strings.Contains(msg, "owner") || strings.Contains(msg, "unauthorized") {
			return &bvc.UnauthorizedError{Op: op}
		}
		return fmt.Errorf("%s reverted: %w", op, err)
	}
	return &bvc.RemoteUnavailableError{Endpoint: l.endpoint, Err: err}
}

func parseRepoID(repoID string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(repoID, 10)
	if !ok {
		return nil, fmt.Errorf("invalid repository id: %q", repoID)
	}
	return id, nil
}
