package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// EmitRequest is the payload handed to the emitter bridge. The byte-level
// NFe schema is the bridge's concern; this struct is the contract with it.
type EmitRequest struct {
	Company  CompanyInfo   `json:"company"`
	Document DocumentInfo  `json:"document"`
	Items    []ItemInfo    `json:"items"`
	Payments []PaymentInfo `json:"payments"`
}

// CompanyInfo identifies the emitter
type CompanyInfo struct {
	LegalName   string `json:"legal_name"`
	TradeName   string `json:"trade_name"`
	CNPJ        string `json:"cnpj"`
	IE          string `json:"ie"`
	TaxRegime   string `json:"tax_regime"`
	StateCode   int    `json:"state_code"`
	CityCode    int    `json:"city_code"`
	Environment int    `json:"environment"`
	CSCToken    string `json:"csc_token"`
	CSCID       string `json:"csc_id"`
}

// DocumentInfo identifies the fiscal document being emitted
type DocumentInfo struct {
	Number            int64   `json:"number"`
	Series            int     `json:"series"`
	Model             string  `json:"model"`
	Total             float64 `json:"total"`
	RecipientDocument string  `json:"recipient_document,omitempty"`
	RecipientName     string  `json:"recipient_name,omitempty"`
}

// ItemInfo is one line of the document
type ItemInfo struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
	NCM         string  `json:"ncm"`
	CFOP        string  `json:"cfop"`
	CSOSN       string  `json:"csosn"`
}

// PaymentInfo is one tender line using the authority's payment-type table
type PaymentInfo struct {
	Code   string  `json:"code"`
	Amount float64 `json:"amount"`
}

// emitResponse mirrors the bridge's loose JSON reply
type emitResponse struct {
	Status       string `json:"status"`
	CStat        string `json:"cstat"`
	Reason       string `json:"motivo"`
	Protocol     string `json:"protocolo"`
	AccessKey    string `json:"chave"`
	AuthorizedAt string `json:"data_autorizacao"`
}

// Emitter transmits a signed document payload to the tax authority
type Emitter interface {
	Emit(ctx context.Context, req *EmitRequest) Result
}

// Client is the HTTP adapter for the emitter bridge service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a gateway client for the emitter bridge
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Emit posts the document to the bridge and wraps the reply in a strict
// Result. It never panics and never returns a raw error to the caller;
// anything unexpected becomes a TransportError.
func (c *Client) Emit(ctx context.Context, req *EmitRequest) Result {
	body, err := json.Marshal(req)
	if err != nil {
		return TransportError(fmt.Errorf("encode payload: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emit", bytes.NewReader(body))
	if err != nil {
		return TransportError(fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return TransportError(fmt.Errorf("gateway unreachable: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TransportError(fmt.Errorf("gateway returned HTTP %d", resp.StatusCode))
	}

	var reply emitResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return TransportError(fmt.Errorf("decode reply: %w", err))
	}

	switch reply.Status {
	case "autorizada":
		authorizedAt, err := time.Parse(time.RFC3339, reply.AuthorizedAt)
		if err != nil {
			authorizedAt = time.Now().UTC()
		}
		return Accepted(reply.Protocol, reply.AccessKey, authorizedAt)
	case "rejeitada":
		return Refused(reply.CStat, reply.Reason)
	default:
		return TransportError(fmt.Errorf("unexpected gateway status %q: %s", reply.Status, reply.Reason))
	}
}
