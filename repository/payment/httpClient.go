package paymentrepo

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/DBnexlify/popndrop-sub001/util/httpx"
)

type httpRepo struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewHTTP(apiKey, baseURL string) Repo {
	return &httpRepo{apiKey: apiKey, baseURL: baseURL, client: httpx.Client()}
}

func (r *httpRepo) CreateSession(req CreateSessionReq) (*Session, error) {
	body := map[string]any{
		"external_id":      req.ExternalID,
		"amount":           req.Amount,
		"description":      req.Description,
		"payer_email":      req.PayerEmail,
		"invoice_duration": req.ExpirySec,
	}
	b, _ := json.Marshal(body)
	httpReq, err := http.NewRequest(http.MethodPost, r.baseURL+"/v2/invoices", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(r.apiKey, "")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payment create session failed: %s", resp.Status)
	}

	var out struct {
		ID         string `json:"id"`
		InvoiceURL string `json:"invoice_url"`
		ExpiryDate string `json:"expiry_date"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, errors.New("payment: empty session ref")
	}
	return &Session{Ref: out.ID, RedirectURL: out.InvoiceURL, ExpiresAt: out.ExpiryDate}, nil
}

func (r *httpRepo) CancelSession(ref string) error {
	httpReq, err := http.NewRequest(http.MethodPost,
		fmt.Sprintf("%s/invoices/%s/expire!", r.baseURL, ref), nil)
	if err != nil {
		return err
	}
	httpReq.SetBasicAuth(r.apiKey, "")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// 404 means the session is already gone, which is what we wanted.
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("payment cancel session failed: %s", resp.Status)
	}
	return nil
}

func (r *httpRepo) VerifyCallbackSignature(sigHeader string, rawBody []byte) error {
	if sigHeader == "" {
		return errors.New("missing callback signature")
	}
	mac := hmac.New(sha256.New, []byte(r.apiKey))
	mac.Write(rawBody)
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(sigHeader)) {
		return errors.New("bad callback signature")
	}
	return nil
}
