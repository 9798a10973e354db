package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/soulspace/soulspace_server/config"
)

// Contact is the CRM-side view of a user.
type Contact struct {
	Name  string
	Email string
	Tier  string
}

// Client upserts contacts into the CRM. Implemented by OdooClient in
// production, stubbed in worker tests.
type Client interface {
	UpsertContact(ctx context.Context, contact *Contact) (int64, error)
	UpdateContactTier(ctx context.Context, contactID int64, tier string) error
}

// OdooClient talks to Odoo over its JSON-RPC endpoint.
type OdooClient struct {
	url        string
	database   string
	username   string
	apiKey     string
	uid        int64
	httpClient *http.Client
}

func NewOdooClient(cfg *config.OdooConfig) *OdooClient {
	return &OdooClient{
		url:        cfg.URL,
		database:   cfg.Database,
		username:   cfg.Username,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string                 `json:"jsonrpc"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params"`
	ID      int64                  `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Message string `json:"message"`
		Data    struct {
			Message string `json:"message"`
		} `json:"data"`
	} `json:"error"`
}

func (c *OdooClient) call(ctx context.Context, service, method string, args []interface{}) (json.RawMessage, error) {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params: map[string]interface{}{
			"service": service,
			"method":  method,
			"args":    args,
		},
		ID: time.Now().UnixNano(),
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/jsonrpc", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call odoo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("odoo error (status %d): %s", resp.StatusCode, string(body))
	}

	var result rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if result.Error != nil {
		msg := result.Error.Data.Message
		if msg == "" {
			msg = result.Error.Message
		}
		return nil, fmt.Errorf("odoo error: %s", msg)
	}

	return result.Result, nil
}

// authenticate resolves and caches the RPC uid for the API key.
func (c *OdooClient) authenticate(ctx context.Context) error {
	if c.uid != 0 {
		return nil
	}

	result, err := c.call(ctx, "common", "login", []interface{}{c.database, c.username, c.apiKey})
	if err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	var uid int64
	if err := json.Unmarshal(result, &uid); err != nil {
		return fmt.Errorf("failed to decode uid: %w", err)
	}
	if uid == 0 {
		return fmt.Errorf("odoo authentication rejected")
	}

	c.uid = uid
	return nil
}

func (c *OdooClient) execute(ctx context.Context, model, method string, args ...interface{}) (json.RawMessage, error) {
	if err := c.authenticate(ctx); err != nil {
		return nil, err
	}

	rpcArgs := []interface{}{c.database, c.uid, c.apiKey, model, method}
	rpcArgs = append(rpcArgs, args...)

	return c.call(ctx, "object", "execute", rpcArgs)
}

// UpsertContact creates the contact, or updates it when a contact with
// the same email already exists. Returns the CRM contact ID.
func (c *OdooClient) UpsertContact(ctx context.Context, contact *Contact) (int64, error) {
	found, err := c.execute(ctx, "res.partner", "search",
		[]interface{}{[]interface{}{"email", "=", contact.Email}})
	if err != nil {
		return 0, fmt.Errorf("failed to search contact: %w", err)
	}

	var ids []int64
	if err := json.Unmarshal(found, &ids); err != nil {
		return 0, fmt.Errorf("failed to decode search result: %w", err)
	}

	fields := map[string]interface{}{
		"name":  contact.Name,
		"email": contact.Email,
		"x_subscription_tier": contact.Tier,
	}

	if len(ids) > 0 {
		if _, err := c.execute(ctx, "res.partner", "write", []interface{}{ids[0]}, fields); err != nil {
			return 0, fmt.Errorf("failed to update contact: %w", err)
		}
		return ids[0], nil
	}

	created, err := c.execute(ctx, "res.partner", "create", fields)
	if err != nil {
		return 0, fmt.Errorf("failed to create contact: %w", err)
	}

	var id int64
	if err := json.Unmarshal(created, &id); err != nil {
		return 0, fmt.Errorf("failed to decode contact id: %w", err)
	}

	return id, nil
}

// UpdateContactTier writes the subscription tier onto an existing
// contact.
func (c *OdooClient) UpdateContactTier(ctx context.Context, contactID int64, tier string) error {
	_, err := c.execute(ctx, "res.partner", "write",
		[]interface{}{contactID}, map[string]interface{}{"x_subscription_tier": tier})
	if err != nil {
		return fmt.Errorf("failed to update contact tier: %w", err)
	}
	return nil
}
