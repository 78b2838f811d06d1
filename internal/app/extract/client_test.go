package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBill(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/parse", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req parseRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://cdn.example.com/receipt.jpg", req.ImageURL)

		json.NewEncoder(w).Encode(BillDocument{
			Merchant: "Cafe Central",
			Currency: "EUR",
			Subtotal: 38.50,
			Tax:      3.85,
			Total:    42.35,
			Items: []LineItem{
				{Description: "Espresso", Quantity: 2, UnitPrice: 2.50, Amount: 5.00},
				{Description: "Lunch set", Quantity: 3, UnitPrice: 11.17, Amount: 33.50},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	doc, err := client.ParseBill(context.Background(), "https://cdn.example.com/receipt.jpg")
	require.NoError(t, err)

	assert.Equal(t, "Cafe Central", doc.Merchant)
	assert.Equal(t, 42.35, doc.Total)
	require.Len(t, doc.Items, 2)
	assert.Equal(t, "Espresso", doc.Items[0].Description)
}

func TestParseBillNoAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(BillDocument{})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.ParseBill(context.Background(), "https://cdn.example.com/receipt.jpg")
	assert.NoError(t, err)
}

func TestParseBillServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unreadable image", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.ParseBill(context.Background(), "https://cdn.example.com/receipt.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestParseBillMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.ParseBill(context.Background(), "https://cdn.example.com/receipt.jpg")
	assert.Error(t, err)
}
