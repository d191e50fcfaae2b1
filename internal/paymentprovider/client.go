// Package paymentprovider реализует HTTP-клиент платёжного шлюза
// (invoice API в стиле Xendit). Клиент выставляет счета; подтверждение
// оплаты приходит отдельно, асинхронным webhook-вызовом.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GatewayError — ошибка платёжного шлюза: недоступность, таймаут или
// не-2xx ответ. Сообщение шлюза сохраняется и доводится до вызывающего,
// молчаливого успеха не бывает.
type GatewayError struct {
	StatusCode int    // 0, если ответа не было (сеть, таймаут)
	Message    string // Сырое сообщение шлюза либо текст транспортной ошибки
}

func (e *GatewayError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("payment gateway unreachable: %s", e.Message)
	}
	return fmt.Sprintf("payment gateway returned %d: %s", e.StatusCode, e.Message)
}

// Client — клиент invoice API платёжного шлюза.
type Client struct {
	apiURL     string
	apiKey     string
	successURL string
	failureURL string
	httpClient *http.Client
}

// NewClient создаёт новый клиент шлюза. Таймаут ограничивает каждый
// исходящий вызов; его истечение возвращается как GatewayError.
func NewClient(apiURL, apiKey, successURL, failureURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		apiKey:     apiKey,
		successURL: successURL,
		failureURL: failureURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	// Шлюз аутентифицирует по basic auth: api-ключ как имя, пустой пароль.
	auth := base64.StdEncoding.EncodeToString([]byte(c.apiKey + ":"))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// CreateInvoice отправляет запрос на выставление счёта и возвращает
// платёжную страницу. Адреса перенаправления после оплаты берутся из
// конфигурации клиента, если не заданы в запросе.
func (c *Client) CreateInvoice(ctx context.Context, reqParams CreateInvoiceRequest) (*CreateInvoiceResponse, error) {
	if reqParams.SuccessRedirectURL == "" {
		reqParams.SuccessRedirectURL = c.successURL
	}
	if reqParams.FailureRedirectURL == "" {
		reqParams.FailureRedirectURL = c.failureURL
	}
	if reqParams.Currency == "" {
		reqParams.Currency = "IDR"
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/v2/invoices", reqParams)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &GatewayError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	var invoiceResp CreateInvoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&invoiceResp); err != nil {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: "malformed gateway response: " + err.Error()}
	}
	return &invoiceResp, nil
}
