package rpc

import "encoding/json"

// Will be serialized
type RequestBody struct {
	JsonRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      uint          `json:"id"`
}

type ResponseBody struct {
	Result json.RawMessage `json:"result"`
	Error  *ResponseError  `json:"error"`
}

type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type GetBlockNumberResponse struct {
	// Hex-encoded block number string
	HexEncodedBlockNumberStr string `json:"result"`
}
