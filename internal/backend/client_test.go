package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sprouting-academy/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", srv.Client(), nil)
}

func TestGetCartDecodesEnvelope(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.Method != http.MethodGet || r.URL.Path != "/cart" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"isSuccessful":true,"responseContent":{"items":[{"id":"e1","productId":"c1","productType":"course","productName":"Go","price":1000}]}}`)
	})

	items, err := client.GetCart(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("expected bearer token, got %q", gotAuth)
	}
	if len(items) != 1 || items[0].ProductID != "c1" || items[0].Price != 1000 {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestAddCartItemNormalizesDuplicateCode(t *testing.T) {
	var body map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"isSuccessful":false,"errorMessage":"already in cart","errorDetails":{"code":"ITEM_ALREADY_IN_CART"}}`)
	})

	err := client.AddCartItem(context.Background(), "tok", "c1", domain.ItemTypeCourse)
	if !errors.Is(err, domain.ErrItemAlreadyExists) {
		t.Fatalf("expected item exists, got %v", err)
	}
	if body["courseId"] != "c1" || body["productType"] != "course" {
		t.Fatalf("unexpected payload %+v", body)
	}
}

func TestEnvelopeFailureWith200(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"isSuccessful":false,"errorMessage":"nope","errorDetails":{"code":"ORDER_LOCKED"}}`)
	})

	_, err := client.GetOrder(context.Background(), "tok", "o1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "ORDER_LOCKED" || apiErr.Message != "nope" {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestNonJSONErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "missing")
	})

	err := client.RemoveCartItem(context.Background(), "tok", "e1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateOrderPayload(t *testing.T) {
	var got CreateOrderRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/order" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"isSuccessful":true,"responseContent":{"id":"o1","subtotalAmount":4500,"totalAmount":3600,"orderStatus":"created","items":[]}}`)
	})

	order, err := client.CreateOrder(context.Background(), "tok", CreateOrderRequest{
		Items: []domain.OrderLine{{ProductID: "c1", ProductType: domain.ItemTypeCourse}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID != "o1" || order.TotalAmount != 3600 || order.OrderStatus != domain.OrderStatusCreated {
		t.Fatalf("unexpected order %+v", order)
	}
	if len(got.Items) != 1 || got.Items[0].ProductID != "c1" || got.CouponID != nil {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestCancelOrderEmptyBody(t *testing.T) {
	var path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})
	if err := client.CancelOrder(context.Background(), "tok", "o 1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/order/o 1/cancel" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestUploadBankTransferMultipart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.FormValue("orderId") != "o1" {
			t.Fatalf("missing order id")
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file: %v", err)
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "slip.png" || string(data) != "png-bytes" {
			t.Fatalf("unexpected file %s %q", hdr.Filename, data)
		}
		_, _ = io.WriteString(w, `{"isSuccessful":true,"responseContent":{"id":"bt1"}}`)
	})

	res, err := client.UploadBankTransfer(context.Background(), "tok", "o1", "slip.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID != "bt1" {
		t.Fatalf("unexpected result %+v", res)
	}
}
