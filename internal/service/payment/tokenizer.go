package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultVaultURL = "https://vault.omise.co"

// CardDetails are the raw card fields exchanged for a one-time token.
type CardDetails struct {
	Name         string
	Number       string
	ExpiryMonth  string
	ExpiryYear   string
	SecurityCode string
}

// Tokenizer exchanges raw card details for an opaque charge token.
type Tokenizer interface {
	CreateToken(ctx context.Context, card CardDetails) (string, error)
}

// OmiseTokenizer creates card tokens against the Omise vault with a public key.
type OmiseTokenizer struct {
	vaultURL   string
	publicKey  string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewOmiseTokenizer(vaultURL, publicKey string, httpClient *http.Client, logger *zap.Logger) *OmiseTokenizer {
	if vaultURL == "" {
		vaultURL = DefaultVaultURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OmiseTokenizer{
		vaultURL:   strings.TrimSuffix(vaultURL, "/"),
		publicKey:  publicKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

type omiseToken struct {
	Object  string `json:"object"`
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TokenizeError is a rejected tokenization attempt.
type TokenizeError struct {
	Status  int
	Code    string
	Message string
}

func (e *TokenizeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("tokenize card: %s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("tokenize card: status %d", e.Status)
}

func (t *OmiseTokenizer) CreateToken(ctx context.Context, card CardDetails) (string, error) {
	if t.publicKey == "" {
		return "", fmt.Errorf("omise tokenizer not configured: public key required")
	}
	form := url.Values{}
	form.Set("card[name]", card.Name)
	form.Set("card[number]", stripSeparators(card.Number))
	form.Set("card[expiration_month]", strings.TrimSpace(card.ExpiryMonth))
	form.Set("card[expiration_year]", strings.TrimSpace(card.ExpiryYear))
	form.Set("card[security_code]", strings.TrimSpace(card.SecurityCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.vaultURL+"/tokens", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(t.publicKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Warn("omise token request failed", zap.Error(err))
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	var out omiseToken
	_ = json.Unmarshal(raw, &out)
	if resp.StatusCode != http.StatusOK || out.Object == "error" || out.ID == "" {
		return "", &TokenizeError{Status: resp.StatusCode, Code: out.Code, Message: out.Message}
	}
	return out.ID, nil
}
