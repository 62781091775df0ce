package bags

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// WrappedSOLMint is the mint whose amounts users enter in SOL rather than base units.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

// Lamports is an amount in base units. The API sends it either as a JSON number or as a string.
type Lamports uint64

func (l *Lamports) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*l = 0
		return nil
	}

	v, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		// Some endpoints send integral values as floats.
		f, ferr := strconv.ParseFloat(string(b), 64)
		if ferr != nil || f < 0 {
			return fmt.Errorf("invalid lamports %q: %w", b, err)
		}
		v = uint64(f)
	}
	*l = Lamports(v)
	return nil
}

// Float is a decimal sent either as a JSON number or as a string.
type Float float64

func (f *Float) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}

	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", b, err)
	}
	*f = Float(v)
	return nil
}

// Timestamp accepts RFC 3339 strings and unix time in seconds or milliseconds.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			t.Time = parsed
			return nil
		}
		b = []byte(s)
	}

	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", b, err)
	}
	if n > 1e12 {
		t.Time = time.UnixMilli(n).UTC()
	} else {
		t.Time = time.Unix(n, 0).UTC()
	}
	return nil
}

// ClaimStat is one fee claimer's statistics for a token.
type ClaimStat struct {
	Wallet       string   `json:"wallet"`
	Username     string   `json:"username"`
	TotalClaimed Lamports `json:"totalClaimed"`
}

// ClaimEvent is one historical fee claim.
type ClaimEvent struct {
	Claimer   string    `json:"claimer"`
	Amount    Lamports  `json:"amount"`
	Signature string    `json:"signature"`
	Timestamp Timestamp `json:"timestamp"`
}

// ClaimEventsOptions pages through claim events.
type ClaimEventsOptions struct {
	Mode   string
	Limit  int
	Offset int
}

// Creator is a launch creator of a token.
type Creator struct {
	Username         string `json:"username"`
	ProviderUsername string `json:"providerUsername"`
	Provider         string `json:"provider"`
	Wallet           string `json:"wallet"`
	IsCreator        bool   `json:"isCreator"`
}

// DisplayName returns the best available human readable name.
func (c Creator) DisplayName() string {
	switch {
	case c.ProviderUsername != "":
		return c.ProviderUsername
	case c.Username != "":
		return c.Username
	default:
		return "Unknown"
	}
}

// QuoteRequest asks for a swap preview.
type QuoteRequest struct {
	InputMint   string
	OutputMint  string
	Amount      int64
	SlippageBps int
}

// Quote is a swap preview. Raw keeps the upstream document so it can be handed back on swap.
type Quote struct {
	RequestID    string          `json:"requestId"`
	InAmount     Lamports        `json:"inAmount"`
	OutputAmount Lamports        `json:"outputAmount"`
	PriceImpact  *Float          `json:"priceImpact"`
	Raw          json.RawMessage `json:"-"`
}

func (q *Quote) UnmarshalJSON(b []byte) error {
	type plain Quote
	var decoded plain
	if err := json.Unmarshal(b, &decoded); err != nil {
		return err
	}

	*q = Quote(decoded)
	q.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// TokenInfoRequest describes the metadata of a token to launch.
type TokenInfoRequest struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Twitter     string `json:"twitter,omitempty"`
	Telegram    string `json:"telegram,omitempty"`
	Website     string `json:"website,omitempty"`
}

// TokenInfo is the created token metadata.
type TokenInfo struct {
	TokenMint     string `json:"tokenMint"`
	TokenMetadata string `json:"tokenMetadata"`
}

// FeeShareConfigRequest splits trading fees of a token between claimers.
type FeeShareConfigRequest struct {
	Payer            string   `json:"payer"`
	BaseMint         string   `json:"baseMint"`
	ClaimersArray    []string `json:"claimersArray"`
	BasisPointsArray []int    `json:"basisPointsArray"`
}

// FeeShareConfig is the created fee share configuration.
type FeeShareConfig struct {
	ConfigKey string `json:"configKey"`
}

// LaunchTransactionRequest asks for an unsigned token launch transaction.
type LaunchTransactionRequest struct {
	IPFS               string `json:"ipfs"`
	TokenMint          string `json:"tokenMint"`
	Wallet             string `json:"wallet"`
	InitialBuyLamports int64  `json:"initialBuyLamports"`
	ConfigKey          string `json:"configKey"`
}

// ClaimablePosition is a fee position a wallet can claim.
type ClaimablePosition struct {
	BaseMint                        string   `json:"baseMint"`
	VirtualPoolAddress              string   `json:"virtualPoolAddress"`
	IsMigrated                      bool     `json:"isMigrated"`
	TotalClaimableLamportsUserShare Lamports `json:"totalClaimableLamportsUserShare"`
}

// PoolType names the pool the position lives in.
func (p ClaimablePosition) PoolType() string {
	if p.IsMigrated {
		return "DAMM v2"
	}
	return "Virtual Pool"
}

// ClaimRequest asks for unsigned fee claim transactions.
type ClaimRequest struct {
	FeeClaimer           string `json:"feeClaimer"`
	TokenMint            string `json:"tokenMint"`
	ClaimVirtualPoolFees bool   `json:"claimVirtualPoolFees"`
	ClaimDammV2Fees      bool   `json:"claimDammV2Fees"`
	VirtualPoolAddress   string `json:"virtualPoolAddress,omitempty"`
	DammV2Position       string `json:"dammV2Position,omitempty"`
}

// transaction decodes either a bare base64 string or an object carrying one.
type transaction string

func (t *transaction) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = transaction(s)
		return nil
	}

	var obj struct {
		Transaction string `json:"transaction"`
		Tx          string `json:"tx"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if obj.Transaction != "" {
		*t = transaction(obj.Transaction)
	} else {
		*t = transaction(obj.Tx)
	}
	return nil
}

// transactions decodes either a list of transactions or an object with a "transactions" list.
type transactions []string

func (ts *transactions) UnmarshalJSON(b []byte) error {
	var list []transaction
	if len(b) > 0 && b[0] == '[' {
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
	} else {
		var obj struct {
			Transactions []transaction `json:"transactions"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		list = obj.Transactions
	}

	out := make([]string, 0, len(list))
	for _, tx := range list {
		if tx != "" {
			out = append(out, string(tx))
		}
	}
	*ts = out
	return nil
}
