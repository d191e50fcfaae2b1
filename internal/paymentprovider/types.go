package paymentprovider

// CreateInvoiceRequest — запрос шлюзу на выставление счёта.
// ExternalID — наш внешний идентификатор (см. пакет extid), по нему
// платёжное уведомление будет сопоставлено с биллинговым намерением.
type CreateInvoiceRequest struct {
	ExternalID         string `json:"external_id" validate:"required"`
	Amount             int64  `json:"amount" validate:"required,gt=0"`
	Currency           string `json:"currency"`
	PayerEmail         string `json:"payer_email,omitempty"`
	Description        string `json:"description,omitempty"`
	SuccessRedirectURL string `json:"success_redirect_url,omitempty"`
	FailureRedirectURL string `json:"failure_redirect_url,omitempty"`
}

// CreateInvoiceResponse — ответ шлюза на выставление счёта.
// InvoiceURL — платёжная страница, на которую перенаправляется пользователь.
type CreateInvoiceResponse struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
	Amount     int64  `json:"amount"`
	InvoiceURL string `json:"invoice_url"`
	ExpiryDate string `json:"expiry_date,omitempty"`
}

// CallbackPayload — тело webhook-уведомления шлюза об изменении статуса счёта.
type CallbackPayload struct {
	ExternalID string  `json:"external_id"`
	Status     string  `json:"status"` // PAID, EXPIRED, PENDING и пр.
	Amount     float64 `json:"amount"`
}
