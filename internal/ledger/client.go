package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/colosseum-live/arena/internal/core"
)

const defaultTimeout = 30 * time.Second

// Client is an HTTP client for an indexer-style ledger API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a ledger client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// ActiveMarkets implements Ledger.
func (c *Client) ActiveMarkets(ctx context.Context) ([]core.Market, error) {
	var markets []core.Market
	if err := c.get(ctx, "/markets/active", &markets); err != nil {
		return nil, &core.LedgerError{Op: "list active markets", Err: err}
	}
	return markets, nil
}

// CurrentRound implements Ledger.
func (c *Client) CurrentRound(ctx context.Context, marketID string) (core.Round, error) {
	var round core.Round
	if err := c.get(ctx, "/markets/"+marketID+"/round", &round); err != nil {
		return core.Round{}, &core.LedgerError{MarketID: marketID, Op: "read current round", Err: err}
	}
	return round, nil
}

// Gladiators implements Ledger.
func (c *Client) Gladiators(ctx context.Context, marketID string) ([]core.Gladiator, error) {
	var gladiators []core.Gladiator
	if err := c.get(ctx, "/markets/"+marketID+"/gladiators", &gladiators); err != nil {
		return nil, &core.LedgerError{MarketID: marketID, Op: "read gladiators", Err: err}
	}
	return gladiators, nil
}

// Judge implements Ledger.
func (c *Client) Judge(ctx context.Context, marketID string) (core.Judge, error) {
	var judge core.Judge
	if err := c.get(ctx, "/markets/"+marketID+"/judge", &judge); err != nil {
		return core.Judge{}, &core.LedgerError{MarketID: marketID, Op: "read judge", Err: err}
	}
	return judge, nil
}

// FinalizeRound implements Ledger.
func (c *Client) FinalizeRound(ctx context.Context, marketID string, roundIndex int) error {
	path := fmt.Sprintf("/markets/%s/rounds/%d/finalize", marketID, roundIndex)
	if err := c.post(ctx, path, nil); err != nil {
		return &core.LedgerError{MarketID: marketID, Op: "finalize round", Err: err}
	}
	return nil
}

// StartNextRound implements Ledger.
func (c *Client) StartNextRound(ctx context.Context, marketID string) error {
	if err := c.post(ctx, "/markets/"+marketID+"/rounds/next", nil); err != nil {
		return &core.LedgerError{MarketID: marketID, Op: "start next round", Err: err}
	}
	return nil
}

// RecordVerdict implements Ledger.
func (c *Client) RecordVerdict(ctx context.Context, marketID string, roundIndex int, winnerID string) error {
	path := fmt.Sprintf("/markets/%s/rounds/%d/verdict", marketID, roundIndex)
	payload := map[string]string{"winnerId": winnerID}
	if err := c.post(ctx, path, payload); err != nil {
		return &core.LedgerError{MarketID: marketID, Op: "record verdict", Err: err}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return statusError(resp)
	}

	return nil
}

func statusError(resp *http.Response) error {
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
}
