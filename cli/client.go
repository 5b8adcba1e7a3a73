package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

const defaultBaseURL = "http://localhost:8080"

// ApiClient talks to the maitred API on behalf of one session
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	token      string
}

// NewApiClient creates a new API client
func NewApiClient() *ApiClient {
	baseURL := os.Getenv("MAITRED_API_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &ApiClient{
		// chat turns wait on the model, so allow more than a plain request
		httpClient: &http.Client{Timeout: 45 * time.Second},
		BaseURL:    baseURL,
	}
}

// Card is one dish as the server renders it
type Card struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Recommended bool   `json:"recommended"`
	Badge       string `json:"badge"`
}

type CartLine struct {
	DishID    int    `json:"dish_id"`
	Name      string `json:"name"`
	Emoji     string `json:"emoji"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type View struct {
	Header struct {
		Title   string `json:"title"`
		Date    string `json:"date"`
		Time    string `json:"time"`
		Weather string `json:"weather"`
		Special string `json:"special_date"`
	} `json:"header"`
	Cards     []Card `json:"cards"`
	MenuError *struct {
		Message string `json:"message"`
	} `json:"menu_error"`
	Cart struct {
		Lines           []CartLine `json:"lines"`
		ItemCount       int        `json:"item_count"`
		Total           string     `json:"total"`
		EmptyText       string     `json:"empty_text"`
		CheckoutEnabled bool       `json:"checkout_enabled"`
	} `json:"cart"`
}

// TurnResult is the outcome of one chat message
type TurnResult struct {
	Kind            string `json:"kind"`
	Reply           string `json:"reply"`
	Recommendations []int  `json:"recommendations"`
	Pending         bool   `json:"pending"`
}

type viewResponse struct {
	View    View        `json:"view"`
	Result  *TurnResult `json:"result"`
	Message string      `json:"message"`
}

type apiError struct {
	Error string `json:"error"`
}

func (c *ApiClient) do(method, path string, body interface{}, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("X-Session-Token", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if t := resp.Header.Get("X-Session-Token"); t != "" {
		c.token = t
	}
	if resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var e apiError
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return resp.StatusCode, fmt.Errorf("%s", e.Error)
		}
		return resp.StatusCode, fmt.Errorf("request failed with status code: %d", resp.StatusCode)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// CheckHealth checks if the API is up and running
func (c *ApiClient) CheckHealth() (bool, error) {
	var health struct {
		Status string `json:"status"`
	}
	if _, err := c.do(http.MethodGet, "/health", nil, &health); err != nil {
		return false, err
	}
	return health.Status == "ok", nil
}

// StartSession creates a server session and keeps its token
func (c *ApiClient) StartSession() error {
	var resp struct {
		Token string `json:"token"`
	}
	if _, err := c.do(http.MethodPost, "/api/sessions", nil, &resp); err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

func (c *ApiClient) View(category string) (*View, error) {
	path := "/api/view"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var v View
	if _, err := c.do(http.MethodGet, path, nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *ApiClient) AddItem(dishID int) (*viewResponse, error) {
	var resp viewResponse
	if _, err := c.do(http.MethodPost, "/api/cart/items", map[string]int{"dish_id": dishID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Chat sends one message. A nil response means the message was blank.
func (c *ApiClient) Chat(message string) (*viewResponse, error) {
	var resp viewResponse
	status, err := c.do(http.MethodPost, "/api/chat", map[string]string{"message": message}, &resp)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	return &resp, nil
}

func (c *ApiClient) Apply() (*viewResponse, error) {
	var resp viewResponse
	if _, err := c.do(http.MethodPost, "/api/chat/apply", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *ApiClient) ClearChat() (*viewResponse, error) {
	var resp viewResponse
	if _, err := c.do(http.MethodPost, "/api/chat/clear", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *ApiClient) Checkout() (*viewResponse, error) {
	var resp viewResponse
	if _, err := c.do(http.MethodPost, "/api/checkout/confirm", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
