package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/kurtosis-tech/stacktrace"
)

const (
	jsonRpcVersion = "2.0"
	requestId      = 0

	getBlockNumberMethod = "eth_blockNumber"

	jsonContentType = "application/json"

	rpcRequestTimeout = 5 * time.Second

	hexDecodeBase = 16
	hexDecodeBits = 64
)

// Client talks JSON-RPC 2.0 over HTTP to one of the devnet nodes. When an
// auth token is set it is sent as a bearer header, which is how the DA node
// gates its admin-scoped methods.
type Client struct {
	url       string
	authToken string
	client    *http.Client
}

type ClientOption func(*Client)

func WithAuthToken(authToken string) ClientOption {
	return func(client *Client) {
		client.authToken = authToken
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(client *Client) {
		client.client.Timeout = timeout
	}
}

func NewClient(url string, opts ...ClientOption) *Client {
	client := &Client{
		url: url,
		client: &http.Client{
			Timeout: rpcRequestTimeout,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// GetBlockNumber returns the execution node's latest block height.
func (client *Client) GetBlockNumber(ctx context.Context) (uint64, error) {
	respObj := &GetBlockNumberResponse{}
	if err := client.Call(ctx, getBlockNumberMethod, []interface{}{}, respObj); err != nil {
		return 0, stacktrace.Propagate(err, "An error occurred getting the block number")
	}

	prefixedHexEncodedBlockNumberStr := respObj.HexEncodedBlockNumberStr
	if len(prefixedHexEncodedBlockNumberStr) < 3 {
		return 0, stacktrace.NewError("Block number response '%v' is too short to be a hex-encoded number", prefixedHexEncodedBlockNumberStr)
	}
	hexEncodedBlockNumberStr := prefixedHexEncodedBlockNumberStr[2:]
	blockNumber, err := strconv.ParseUint(hexEncodedBlockNumberStr, hexDecodeBase, hexDecodeBits)
	if err != nil {
		return 0, stacktrace.Propagate(
			err,
			"An error occurred parsing block number string '%v' using base '%v' and bits '%v'",
			hexEncodedBlockNumberStr,
			hexDecodeBase,
			hexDecodeBits,
		)
	}
	return blockNumber, nil
}

// Call makes a single JSON-RPC request and deserializes the response into
// respObj. A response carrying a JSON-RPC error object is returned as an
// error; respObj may be nil when the caller only cares about success.
func (client *Client) Call(ctx context.Context, method string, params []interface{}, respObj interface{}) error {
	requestBodyObj := &RequestBody{
		JsonRPC: jsonRpcVersion,
		Method:  method,
		Params:  params,
		ID:      requestId,
	}

	requestBodyBytes, err := json.Marshal(requestBodyObj)
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred serializing the body of request to URL '%v'", client.url)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.url, bytes.NewReader(requestBodyBytes))
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred creating the request to URL '%v'", client.url)
	}
	request.Header.Set("Content-Type", jsonContentType)
	if client.authToken != "" {
		request.Header.Set("Authorization", "Bearer "+client.authToken)
	}

	resp, err := client.client.Do(request)
	if err != nil {
		return stacktrace.Propagate(
			err,
			"An error occurred making the request to URL '%v' with body '%v'",
			client.url,
			string(requestBodyBytes),
		)
	}
	defer resp.Body.Close()

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred reading the response body bytes")
	}

	if resp.StatusCode != http.StatusOK {
		return stacktrace.NewError(
			"Request to URL '%v' for method '%v' returned non-OK status code %v with body '%v'",
			client.url,
			method,
			resp.StatusCode,
			string(respBodyBytes),
		)
	}

	respBodyObj := &ResponseBody{}
	if err := json.Unmarshal(respBodyBytes, respBodyObj); err != nil {
		return stacktrace.Propagate(err, "An error occurred deserializing response body string '%v'", string(respBodyBytes))
	}
	if respBodyObj.Error != nil {
		return stacktrace.NewError(
			"Method '%v' returned JSON-RPC error code %v: %v",
			method,
			respBodyObj.Error.Code,
			respBodyObj.Error.Message,
		)
	}

	if respObj != nil && len(respBodyObj.Result) > 0 {
		if err := json.Unmarshal(respBodyBytes, respObj); err != nil {
			return stacktrace.Propagate(err, "An error occurred deserializing the result from response body '%v'", string(respBodyBytes))
		}
	}
	return nil
}
