package starknet

import (
	"encoding/json"
	"fmt"
)

// Call is a single contract invocation inside an account multicall
type Call struct {
	ContractAddress *Felt   `json:"contractAddress"`
	EntryPoint      string  `json:"entrypoint"`
	Calldata        []*Felt `json:"calldata"`
}

// FunctionCall is the request body of starknet_call
type FunctionCall struct {
	ContractAddress    *Felt   `json:"contract_address"`
	EntryPointSelector *Felt   `json:"entry_point_selector"`
	Calldata           []*Felt `json:"calldata"`
}

// BlockID selects the state a read or simulation executes against
type BlockID struct {
	Tag    string
	Number *uint64
	Hash   *Felt
}

var LatestBlock = BlockID{Tag: "latest"}

func BlockNumber(n uint64) BlockID {
	return BlockID{Number: &n}
}

func (b BlockID) MarshalJSON() ([]byte, error) {
	switch {
	case b.Number != nil:
		return json.Marshal(map[string]uint64{"block_number": *b.Number})
	case b.Hash != nil:
		return json.Marshal(map[string]*Felt{"block_hash": b.Hash})
	case b.Tag != "":
		return json.Marshal(b.Tag)
	default:
		return json.Marshal("latest")
	}
}

func (b *BlockID) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		*b = BlockID{Tag: tag}
		return nil
	}

	var obj struct {
		Number *uint64 `json:"block_number"`
		Hash   *Felt   `json:"block_hash"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("block id: %w", err)
	}
	*b = BlockID{Number: obj.Number, Hash: obj.Hash}
	return nil
}

func (b BlockID) String() string {
	switch {
	case b.Number != nil:
		return fmt.Sprintf("#%d", *b.Number)
	case b.Hash != nil:
		return b.Hash.String()
	case b.Tag != "":
		return b.Tag
	default:
		return "latest"
	}
}

// SimulationFlag controls which checks starknet_simulateTransactions skips
type SimulationFlag string

const (
	SkipValidate  SimulationFlag = "SKIP_VALIDATE"
	SkipFeeCharge SimulationFlag = "SKIP_FEE_CHARGE"
)

// InvokeTransaction is an INVOKE v1 transaction as accepted by the
// simulation endpoint
type InvokeTransaction struct {
	Type          string  `json:"type"`
	SenderAddress *Felt   `json:"sender_address"`
	Calldata      []*Felt `json:"calldata"`
	MaxFee        *Felt   `json:"max_fee"`
	Version       string  `json:"version"`
	Signature     []*Felt `json:"signature"`
	Nonce         *Felt   `json:"nonce"`
}

// NewInvokeV1 builds an unsigned INVOKE v1 transaction executing calls from
// sender. It is only meaningful for simulation with SKIP_VALIDATE
func NewInvokeV1(sender *Felt, calls []Call, nonce *Felt) InvokeTransaction {
	return InvokeTransaction{
		Type:          "INVOKE",
		SenderAddress: sender,
		Calldata:      EncodeExecuteCalldata(calls),
		MaxFee:        FeltFromUint64(0),
		Version:       "0x1",
		Signature:     []*Felt{},
		Nonce:         nonce,
	}
}

// SimulatedTransaction is one entry of the starknet_simulateTransactions
// response
type SimulatedTransaction struct {
	TransactionTrace TransactionTrace `json:"transaction_trace"`
	FeeEstimation    FeeEstimation    `json:"fee_estimation"`
}

type TransactionTrace struct {
	Type              string             `json:"type"`
	ExecuteInvocation *ExecuteInvocation `json:"execute_invocation,omitempty"`
}

// ExecuteInvocation is either a function invocation carrying the
// __execute__ return data or a revert
type ExecuteInvocation struct {
	ContractAddress *Felt   `json:"contract_address,omitempty"`
	Result          []*Felt `json:"result,omitempty"`
	RevertReason    string  `json:"revert_reason,omitempty"`
}

func (e *ExecuteInvocation) Reverted() bool {
	return e.RevertReason != ""
}

type FeeEstimation struct {
	GasConsumed *Felt  `json:"gas_consumed,omitempty"`
	GasPrice    *Felt  `json:"gas_price,omitempty"`
	OverallFee  *Felt  `json:"overall_fee,omitempty"`
	Unit        string `json:"unit,omitempty"`
}
