package promorepo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/DBnexlify/popndrop-sub001/util/httpx"
)

type EvalReq struct {
	Code        string  `json:"code"`
	CustomerID  int64   `json:"customer_id"`
	ProductID   int64   `json:"product_id"`
	OrderAmount float64 `json:"order_amount"`
}

type EvalResult struct {
	Valid    bool    `json:"valid"`
	Discount float64 `json:"discount"`
	Reason   string  `json:"reason"`
}

// Repo is the promotional-code rule evaluator. The rules themselves live in
// an external service; this side only relays the verdict.
type Repo interface {
	Evaluate(ctx context.Context, req EvalReq) (*EvalResult, error)
}

type httpRepo struct {
	baseURL string
	client  *http.Client
}

func NewHTTP(baseURL string) Repo { return &httpRepo{baseURL: baseURL, client: httpx.Client()} }

func (r *httpRepo) Evaluate(ctx context.Context, req EvalReq) (*EvalResult, error) {
	b, _ := json.Marshal(req)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/promo/evaluate", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("promo evaluate failed: %s", resp.Status)
	}

	var out EvalResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
