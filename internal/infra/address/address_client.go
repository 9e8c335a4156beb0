package address

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL    = "https://provinces.open-api.vn/api"
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
	DefaultTimeout    = 5 * time.Second
)

var (
	ErrUpstream = errors.New("address api request failed")
	ErrNotFound = errors.New("address code not found")
)

// Division 省/郡/坊共用結構
type Division struct {
	Name         string `json:"name"`
	Code         int    `json:"code"`
	DivisionType string `json:"division_type"`
	Codename     string `json:"codename"`
	PhoneCode    int    `json:"phone_code,omitempty"`
	ProvinceCode int    `json:"province_code,omitempty"`
	DistrictCode int    `json:"district_code,omitempty"`
}

type provinceDetail struct {
	Division
	Districts []Division `json:"districts"`
}

type districtDetail struct {
	Division
	Wards []Division `json:"wards"`
}

type IAddressClient interface {
	GetProvinces(ctx context.Context) ([]Division, error)
	GetDistricts(ctx context.Context, provinceCode string) ([]Division, error)
	GetWards(ctx context.Context, districtCode string) ([]Division, error)
	GetProvince(ctx context.Context, code string) (*Division, error)
	GetDistrict(ctx context.Context, code string) (*Division, error)
	GetWard(ctx context.Context, code string) (*Division, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries uint64
	retryDelay time.Duration
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

func WithRetry(maxRetries uint64, delay time.Duration) Option {
	return func(client *Client) {
		client.maxRetries = maxRetries
		client.retryDelay = delay
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) GetProvinces(ctx context.Context) ([]Division, error) {
	var provinces []Division
	if err := c.get(ctx, "/p/", &provinces); err != nil {
		return nil, err
	}
	return provinces, nil
}

func (c *Client) GetDistricts(ctx context.Context, provinceCode string) ([]Division, error) {
	var detail provinceDetail
	if err := c.get(ctx, fmt.Sprintf("/p/%s?depth=2", provinceCode), &detail); err != nil {
		return nil, err
	}
	return detail.Districts, nil
}

func (c *Client) GetWards(ctx context.Context, districtCode string) ([]Division, error) {
	var detail districtDetail
	if err := c.get(ctx, fmt.Sprintf("/d/%s?depth=2", districtCode), &detail); err != nil {
		return nil, err
	}
	return detail.Wards, nil
}

func (c *Client) GetProvince(ctx context.Context, code string) (*Division, error) {
	return c.getDivision(ctx, "/p/"+code)
}

func (c *Client) GetDistrict(ctx context.Context, code string) (*Division, error) {
	return c.getDivision(ctx, "/d/"+code)
}

func (c *Client) GetWard(ctx context.Context, code string) (*Division, error) {
	return c.getDivision(ctx, "/w/"+code)
}

func (c *Client) getDivision(ctx context.Context, path string) (*Division, error) {
	var d Division
	if err := c.get(ctx, path, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// get 固定間隔重試，4xx 不重試
func (c *Client) get(ctx context.Context, path string, out any) error {
	url := c.baseURL + path
	attempt := 0

	operation := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(fmt.Errorf("%w: %s", ErrNotFound, path))
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode))
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: decode response: %w", ErrUpstream, err))
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), c.maxRetries),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("url", url).Int("attempt", attempt).Dur("wait", wait).Msg("address api retry")
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUpstream) {
			return err
		}
		return fmt.Errorf("%w: failed after %d retries: %w", ErrUpstream, c.maxRetries, err)
	}
	return nil
}

var _ IAddressClient = (*Client)(nil)
