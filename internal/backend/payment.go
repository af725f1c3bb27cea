package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

type chargeRequest struct {
	OrderID string `json:"orderId"`
	Token   string `json:"token"`
}

// ChargeResult is the backend's view of a card charge.
type ChargeResult struct {
	OmiseChargeID string `json:"omiseChargeId"`
	Status        string `json:"status,omitempty"`
}

// BankTransferResult is the stored transfer proof.
type BankTransferResult struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
}

// Charge exchanges a card token for a charge against the order.
func (c *Client) Charge(ctx context.Context, token, orderID, cardToken string) (*ChargeResult, error) {
	var out ChargeResult
	if err := c.doJSON(ctx, http.MethodPost, "/payment/charge", token, chargeRequest{OrderID: orderID, Token: cardToken}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadBankTransfer sends the transfer slip as multipart form data.
func (c *Client) UploadBankTransfer(ctx context.Context, token, orderID, filename, contentType string, file io.Reader) (*BankTransferResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("orderId", orderID); err != nil {
		return nil, err
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment/bank-transfer", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out BankTransferResult
	if err := c.do(req, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
