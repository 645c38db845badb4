//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go/modules/compose"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	baseURL    string
	httpClient *http.Client
)

// Response types, defined locally to keep tests black-box (no internal imports).

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type variantResponse struct {
	Label          string  `json:"label"`
	Price          float64 `json:"price"`
	PriceFormatted string  `json:"priceFormatted"`
}

type productResponse struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Category       string            `json:"category"`
	ImageURL       string            `json:"imageUrl"`
	WhatsappNumber string            `json:"whatsappNumber"`
	Variants       []variantResponse `json:"variants"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Variant   string `json:"variant,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
}

type cartItemResponse struct {
	ItemID         string  `json:"itemId"`
	ProductID      string  `json:"productId"`
	ProductName    string  `json:"productName"`
	Size           string  `json:"size"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity"`
	Subtotal       float64 `json:"subtotal"`
	WhatsappNumber string  `json:"whatsappNumber"`
}

type cartResponse struct {
	Items          []cartItemResponse `json:"items"`
	ItemCount      int                `json:"itemCount"`
	Subtotal       float64            `json:"subtotal"`
	Total          float64            `json:"total"`
	TotalFormatted string             `json:"totalFormatted"`
}

type checkoutRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Payment string `json:"payment"`
}

type checkoutResponse struct {
	Message        string  `json:"message"`
	Destination    string  `json:"destination"`
	URL            string  `json:"url"`
	ItemCount      int     `json:"itemCount"`
	Total          float64 `json:"total"`
	TotalFormatted string  `json:"totalFormatted"`
}

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Create coverage output directory for the instrumented binary.
	if err := os.MkdirAll("coverdir", 0o777); err != nil {
		log.Fatalf("create coverdir: %v", err)
	}

	dc, err := tc.NewDockerCompose("docker-compose.test.yml")
	if err != nil {
		log.Fatalf("compose init: %v", err)
	}

	// Start postgres + redis, seed the catalog, then wait until the API
	// reports ready (the menu is loaded).
	err = dc.
		WaitForService("api", wait.ForHTTP("/readyz").WithPort("8080/tcp").WithStartupTimeout(2*time.Minute)).
		Up(ctx, tc.Wait(true))
	if err != nil {
		log.Fatalf("compose up: %v", err)
	}

	apiContainer, err := dc.ServiceContainer(ctx, "api")
	if err != nil {
		log.Fatalf("api container: %v", err)
	}

	host, err := apiContainer.Host(ctx)
	if err != nil {
		log.Fatalf("host: %v", err)
	}

	mappedPort, err := apiContainer.MappedPort(ctx, "8080/tcp")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}

	baseURL = fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
	httpClient = &http.Client{Timeout: 10 * time.Second}
	log.Printf("API available at %s", baseURL)

	result := m.Run()

	// Stop the API container gracefully so the coverage-instrumented binary
	// flushes coverage data to GOCOVERDIR (bind-mounted to ./coverdir).
	// The compose file sets stop_signal: SIGINT because app.Run handles
	// SIGINT (not SIGTERM) for graceful shutdown.
	stopTimeout := 30 * time.Second
	if err := apiContainer.Stop(ctx, &stopTimeout); err != nil {
		log.Printf("stop api container: %v", err)
	}

	if err := dc.Down(context.Background(), tc.RemoveOrphans(true)); err != nil {
		log.Printf("compose down: %v", err)
	}

	return result
}

// HTTP helpers.

func doGet(t *testing.T, path string) *http.Response {
	t.Helper()
	return do(t, http.MethodGet, path, nil)
}

func doPost(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	return do(t, http.MethodPost, path, body)
}

func do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}

	req, err := http.NewRequestWithContext(context.Background(), method, baseURL+path, &buf)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected %d, got %d", want, resp.StatusCode)
	}
}

// clearCart empties the shared cart. Tests touching the cart must not run
// in parallel.
func clearCart(t *testing.T) {
	t.Helper()
	resp := do(t, http.MethodDelete, "/api/cart", nil)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)
}
