package hive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bayanihive/delegation-roulette/common"
	"github.com/bayanihive/delegation-roulette/constants"
)

// Client talks to the condenser API over JSON-RPC. All calls go to the
// rotator's current endpoint; the caller decides when to fail over.
type Client struct {
	httpClient *http.Client
	rotator    *EndpointRotator
}

func NewClient(rotator *EndpointRotator, transport http.RoundTripper) *Client {
	httpClient := &http.Client{
		Timeout: constants.HTTP_CLIENT_TIMEOUT_SECONDS * time.Second,
	}
	if transport != nil {
		httpClient.Transport = transport
	}

	return &Client{
		httpClient: httpClient,
		rotator:    rotator,
	}
}

type rpcRequest struct {
	JsonRpc string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	Id      int    `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	endpoint := c.rotator.Current()

	body, err := json.Marshal(rpcRequest{
		JsonRpc: "2.0",
		Method:  method,
		Params:  params,
		Id:      1,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("calling rpc", "endpoint", endpoint, "method", method)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s on %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calling %s on %s: unexpected status %d", method, endpoint, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%s failed on %s: %s (code %d)", method, endpoint, rpcResp.Error.Message, rpcResp.Error.Code)
	}

	return json.Unmarshal(rpcResp.Result, result)
}

// GetAccount looks up one account. Returns constants.ErrAccountNotFound
// when the chain does not know the name.
func (c *Client) GetAccount(ctx context.Context, name string) (*Account, error) {
	var accounts []Account
	if err := c.call(ctx, "condenser_api.get_accounts", [][]string{{name}}, &accounts); err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, constants.ErrAccountNotFound
	}
	return &accounts[0], nil
}

// GetGlobalProperties fetches the current fund/share exchange rate.
func (c *Client) GetGlobalProperties(ctx context.Context) (*common.GlobalProperties, error) {
	var props DynamicGlobalProperties
	if err := c.call(ctx, "condenser_api.get_dynamic_global_properties", []any{}, &props); err != nil {
		return nil, err
	}

	fund, err := ParseAsset(props.TotalVestingFundHive)
	if err != nil {
		return nil, err
	}
	shares, err := ParseAsset(props.TotalVestingShares)
	if err != nil {
		return nil, err
	}
	if shares == 0 {
		return nil, constants.ErrZeroShareSupply
	}

	return &common.GlobalProperties{
		TotalVestingFundHive: fund,
		TotalVestingShares:   shares,
	}, nil
}

// GetAccountHistory fetches up to limit operations ending at index start.
// start = -1 addresses the latest operation.
func (c *Client) GetAccountHistory(ctx context.Context, account string, start int64, limit int64) ([]HistoryItem, error) {
	var items []HistoryItem
	err := c.call(ctx, "condenser_api.get_account_history", []any{account, start, limit}, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

type transferResult struct {
	TransactionID string `json:"transaction_id"`
}

// Transfer broadcasts a token transfer through the connected wallet
// endpoint and returns the transaction id. Signing happens endpoint-side;
// the dispatcher gates on credential presence before calling this.
func (c *Client) Transfer(ctx context.Context, from, to, amount, memo string) (string, error) {
	var result transferResult
	err := c.call(ctx, "transfer", []any{from, to, amount, memo, true}, &result)
	if err != nil {
		return "", err
	}
	return result.TransactionID, nil
}
