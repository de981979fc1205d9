package callsource

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// RPCEtherman implements Etherman against a standard Ethereum JSON-RPC
// endpoint (eth_getLogs, eth_getTransactionByHash, eth_blockNumber). It is
// deliberately narrow: just the three calls the oracle needs, encoded by
// hand since no Ethereum RPC client ships among the oracle's dependencies.
type RPCEtherman struct {
	url    string
	client *http.Client
}

// NewRPCEtherman returns an Etherman backed by the JSON-RPC endpoint at url.
func NewRPCEtherman(url string) *RPCEtherman {
	return &RPCEtherman{url: url, client: http.DefaultClient}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *RPCEtherman) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("callsource: encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("callsource: build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("callsource: %s request: %w", method, err)
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("callsource: decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("callsource: %s rpc error %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("callsource: unmarshal %s result: %w", method, err)
	}
	return nil
}

type rpcFilterObject struct {
	FromBlock string   `json:"fromBlock"`
	ToBlock   string   `json:"toBlock"`
	Address   []string `json:"address,omitempty"`
	Topics    []string `json:"topics,omitempty"`
}

type rpcLog struct {
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	BlockNumber string   `json:"blockNumber"`
	TransactionHash string `json:"transactionHash"`
	LogIndex    string   `json:"logIndex"`
}

func (e *RPCEtherman) FilterLogs(ctx context.Context, query FilterQuery) ([]Log, error) {
	addrs := make([]string, len(query.Addresses))
	for i, a := range query.Addresses {
		addrs[i] = "0x" + hex.EncodeToString(a[:])
	}
	var topics []string
	if query.Topic != nil {
		topics = []string{"0x" + hex.EncodeToString(query.Topic[:])}
	}

	filter := rpcFilterObject{
		FromBlock: hexUint(query.FromBlock),
		ToBlock:   hexUint(query.ToBlock),
		Address:   addrs,
		Topics:    topics,
	}

	var raw []rpcLog
	if err := e.call(ctx, "eth_getLogs", []interface{}{filter}, &raw); err != nil {
		return nil, err
	}

	logs := make([]Log, 0, len(raw))
	for _, rl := range raw {
		blockNumber, err := strconv.ParseUint(trimHexPrefix(rl.BlockNumber), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("callsource: parse log block number %q: %w", rl.BlockNumber, err)
		}
		index, err := strconv.ParseUint(trimHexPrefix(rl.LogIndex), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("callsource: parse log index %q: %w", rl.LogIndex, err)
		}
		data, err := hex.DecodeString(trimHexPrefix(rl.Data))
		if err != nil {
			return nil, fmt.Errorf("callsource: decode log data: %w", err)
		}

		var topics [][32]byte
		for _, t := range rl.Topics {
			var tb [32]byte
			decoded, err := hex.DecodeString(trimHexPrefix(t))
			if err != nil {
				return nil, fmt.Errorf("callsource: decode log topic: %w", err)
			}
			copy(tb[:], decoded)
			topics = append(topics, tb)
		}

		var addr [20]byte
		decoded, err := hex.DecodeString(trimHexPrefix(rl.Address))
		if err != nil {
			return nil, fmt.Errorf("callsource: decode log address: %w", err)
		}
		copy(addr[:], decoded)

		logs = append(logs, Log{
			Address:     addr,
			Topics:      topics,
			Data:        data,
			BlockNumber: blockNumber,
			TxHash:      rl.TransactionHash,
			Index:       index,
		})
	}
	return logs, nil
}

type rpcTransaction struct {
	Input string `json:"input"`
}

func (e *RPCEtherman) LatestBlock(ctx context.Context) (uint64, error) {
	var result string
	if err := e.call(ctx, "eth_blockNumber", []interface{}{}, &result); err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(trimHexPrefix(result), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("callsource: parse latest block %q: %w", result, err)
	}
	return n, nil
}

func (e *RPCEtherman) CalldataByTxHash(ctx context.Context, txHash string) ([]byte, error) {
	var tx rpcTransaction
	if err := e.call(ctx, "eth_getTransactionByHash", []interface{}{txHash}, &tx); err != nil {
		return nil, err
	}
	calldata, err := hex.DecodeString(trimHexPrefix(tx.Input))
	if err != nil {
		return nil, fmt.Errorf("callsource: decode calldata for %s: %w", txHash, err)
	}
	return calldata, nil
}

func hexUint(v uint64) string {
	return "0x" + strconv.FormatUint(v, 16)
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return s
}
