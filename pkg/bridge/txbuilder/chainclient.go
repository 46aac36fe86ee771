// Copyright 2025 Certen Protocol
package txbuilder

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/mangonet-labs/bridge-node/pkg/bridge"
	"github.com/mangonet-labs/bridge-node/pkg/bridge/oracle"
)

// rpcRequestTimeout bounds a single JSON-RPC round trip to the destination
// chain. The oracle wrapping status lookups retries across many of these;
// an individual call still needs its own ceiling so one hung socket can't
// starve the retry loop's backoff accounting.
const rpcRequestTimeout = 15 * time.Second

// Client is the concrete bridge.ChainClient: a JSON-RPC client against a
// Move/Sui-style full node, following the RPC endpoint and configuration
// shape of the teacher's chain strategy stubs, narrowed to the method set
// the executor actually calls.
type Client struct {
	rpcURL     string
	httpClient *http.Client
	logger     *log.Logger

	statusOracle *oracle.Oracle

	mu       sync.Mutex
	feedSubs []chan bridge.Digest
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets a custom logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient overrides the transport, primarily for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// New builds a Client against the given JSON-RPC endpoint.
func New(rpcURL string, opts ...Option) *Client {
	c := &Client{
		rpcURL:     rpcURL,
		httpClient: &http.Client{Timeout: rpcRequestTimeout},
		logger:     log.New(log.Writer(), "[ChainClient] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.statusOracle = oracle.New(rawStatusSource{c}, oracle.WithLogger(c.logger))
	return c
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	reqBody, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("txbuilder: marshal rpc request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("txbuilder: create rpc request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("txbuilder: rpc transport error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("txbuilder: read rpc response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("txbuilder: parse rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("txbuilder: rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("txbuilder: decode rpc result: %w", err)
	}
	return nil
}

// rawStatusSource adapts Client's raw, possibly-flaky status lookup to
// oracle.RawStatusSource.
type rawStatusSource struct{ c *Client }

type getActionStatusResult struct {
	Status string `json:"status"`
}

func (s rawStatusSource) GetActionStatus(ctx context.Context, action bridge.Action) (bridge.OnChainStatus, error) {
	digest := action.Digest()
	var result getActionStatusResult
	if err := s.c.call(ctx, "bridge_getActionStatus", []interface{}{digest.String()}, &result); err != nil {
		return bridge.StatusPending, err
	}
	switch result.Status {
	case "approved":
		return bridge.StatusApproved, nil
	case "claimed":
		return bridge.StatusClaimed, nil
	case "pending":
		return bridge.StatusPending, nil
	case "not_found":
		return bridge.StatusRecordNotFound, nil
	default:
		return bridge.StatusPending, fmt.Errorf("txbuilder: unrecognized action status %q", result.Status)
	}
}

// GetActionStatusUntilSuccess implements bridge.ChainClient by delegating
// to the internal status oracle, which absorbs transport failures and
// never returns until it has a definitive answer (or ctx is canceled).
func (c *Client) GetActionStatusUntilSuccess(ctx context.Context, action bridge.Action) bridge.OnChainStatus {
	return c.statusOracle.StatusUntilSuccess(ctx, action)
}

type getObjectResult struct {
	ObjectID   string `json:"objectId"`
	Version    uint64 `json:"version"`
	Digest     string `json:"digest"`
	Owner      string `json:"owner"`
	IsGasCoin  bool   `json:"isGasCoin"`
	CoinValue  uint64 `json:"coinValue"`
}

// GetGasData fetches the gas object by ID. Per spec.md §6 it panics if the
// object does not refer to a gas coin: calling it on the wrong object ID is
// a programming error in the caller, not a recoverable runtime condition.
func (c *Client) GetGasData(ctx context.Context, objectID bridge.ObjectID) bridge.GasObject {
	var result getObjectResult
	if err := c.call(ctx, "bridge_getObject", []interface{}{objectID.String()}, &result); err != nil {
		panic(fmt.Sprintf("txbuilder: get gas object %s: %v", objectID, err))
	}
	if !result.IsGasCoin {
		panic(fmt.Sprintf("txbuilder: object %s is not a gas coin", objectID))
	}

	digestBytes, err := hex.DecodeString(trimHexPrefix(result.Digest))
	if err != nil {
		panic(fmt.Sprintf("txbuilder: gas object %s: malformed digest %q: %v", objectID, result.Digest, err))
	}
	ownerBytes, err := hex.DecodeString(trimHexPrefix(result.Owner))
	if err != nil {
		panic(fmt.Sprintf("txbuilder: gas object %s: malformed owner address %q: %v", objectID, result.Owner, err))
	}

	var ref bridge.ObjectRef
	ref.ObjectID = objectID
	ref.Version = result.Version
	copy(ref.Digest[:], digestBytes)

	var owner bridge.Address
	copy(owner[:], ownerBytes)

	return bridge.GasObject{
		Coin:  result.CoinValue,
		Ref:   ref,
		Owner: owner,
	}
}

type executeTransactionResult struct {
	Digest string `json:"digest"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// ExecuteTransaction submits tx and reports its effects. A non-nil error
// means the submission itself failed (network, sequencing, signature
// rejected at the mempool) and is retryable; a returned Effects with
// EffectsFailure means the chain executed the transaction and it reverted,
// which is not retryable.
func (c *Client) ExecuteTransaction(ctx context.Context, tx bridge.SignedTransaction) (bridge.Effects, error) {
	var result executeTransactionResult
	params := []interface{}{
		tx.Sender.String(),
		tx.GasPayment.ObjectID.String(),
		bytesToHex(tx.Payload),
		bytesToHex(tx.Intent),
		bytesToHex(tx.Signature),
	}
	if err := c.call(ctx, "bridge_executeTransaction", params, &result); err != nil {
		return bridge.Effects{}, fmt.Errorf("txbuilder: submit transaction: %w", err)
	}

	digest := tx.Digest()
	c.broadcastDigest(digest)

	switch result.Status {
	case "success":
		return bridge.Effects{Status: bridge.EffectsSuccess, TxDigest: digest}, nil
	case "failure":
		return bridge.Effects{Status: bridge.EffectsFailure, Error: result.Error, TxDigest: digest}, nil
	default:
		return bridge.Effects{}, fmt.Errorf("txbuilder: unrecognized execution status %q", result.Status)
	}
}

// SubscribeDigests returns a channel of every digest this client has
// submitted via ExecuteTransaction. Intended for observability and tests;
// a digest that a subscriber's full buffer cannot take is dropped (and
// logged) for that subscriber rather than blocking submission.
func (c *Client) SubscribeDigests() <-chan bridge.Digest {
	ch := make(chan bridge.Digest, 16)
	c.mu.Lock()
	c.feedSubs = append(c.feedSubs, ch)
	c.mu.Unlock()
	return ch
}

func (c *Client) broadcastDigest(digest bridge.Digest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.feedSubs {
		select {
		case ch <- digest:
		default:
			c.logger.Printf("digest subscriber is not keeping up, dropping %s", digest)
		}
	}
}

func bytesToHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
