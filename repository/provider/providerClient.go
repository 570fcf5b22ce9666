package providerrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"

	"resellerdesk/config"
	"resellerdesk/util/httpx"
)

// ErrDisabled is the degraded mode: the integration exists but is switched
// off, so callers leave the order pending instead of failing it.
var ErrDisabled = errors.New("external provider is disabled")

type DispatchReq struct {
	ExternalID string `json:"external_id"`
	Quantity   int    `json:"quantity"`
	Reference  string `json:"reference"`
	Note       string `json:"note,omitempty"`
}

type DispatchResp struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Metadata  string `json:"metadata,omitempty"`
	Message   string `json:"message,omitempty"`
}

type Repo interface {
	// Dispatch must be idempotent per reference: the provider deduplicates on
	// it, so a retried dispatch cannot double-charge.
	Dispatch(ctx context.Context, req DispatchReq) (*DispatchResp, error)
}

type httpRepo struct {
	cfg    config.Provider
	client *resty.Client
}

func NewHTTP(cfg config.Provider) Repo {
	c := resty.NewWithClient(httpx.Client()).
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	return &httpRepo{cfg: cfg, client: c}
}

func (r *httpRepo) Dispatch(ctx context.Context, req DispatchReq) (*DispatchResp, error) {
	if !r.cfg.Enabled || r.cfg.BaseURL == "" {
		return nil, ErrDisabled
	}

	var out DispatchResp
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/v1/dispatch")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("provider dispatch failed: %s", resp.Status())
	}
	if out.Status == "" {
		return nil, errors.New("provider: empty dispatch status")
	}
	return &out, nil
}
