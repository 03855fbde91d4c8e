package accountsync

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// momoClient talks to the mobile-money API. Transactions come back
// untyped; direction inference happens in the Aggregator.
type momoClient struct {
	baseURL         string
	subscriptionKey string
	targetEnv       string
	http            *http.Client
	limiter         <-chan time.Time
	initialized     bool
}

func NewMomoClient() (MomoClient, error) {
	baseURL := strings.TrimSpace(os.Getenv("MOMO_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://proxy.momoapi.mtn.com"
	}
	targetEnv := strings.TrimSpace(os.Getenv("MOMO_TARGET_ENVIRONMENT"))
	if targetEnv == "" {
		targetEnv = "mtnghana"
	}

	rateLimitPerMin := int64(30)
	if v := strings.TrimSpace(os.Getenv("MOMO_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			rateLimitPerMin = n
		}
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	return &momoClient{
		baseURL:         strings.TrimRight(baseURL, "/"),
		subscriptionKey: strings.TrimSpace(os.Getenv("MOMO_SUBSCRIPTION_KEY")),
		targetEnv:       targetEnv,
		http:            &http.Client{Timeout: 30 * time.Second},
		limiter:         time.Tick(interval),
	}, nil
}

func (c *momoClient) Initialize(ctx context.Context) error {
	if c.subscriptionKey == "" {
		return newSyncError(ErrCodeAuth, "momo subscription key is not configured", false)
	}
	c.initialized = true
	return nil
}

func (c *momoClient) GetTransactions(ctx context.Context, phoneHandle string, startDate time.Time, endDate time.Time) ([]RawMomoTransaction, error) {
	if !c.initialized {
		if err := c.Initialize(ctx); err != nil {
			return nil, err
		}
	}

	params := url.Values{}
	params.Set("partyId", phoneHandle)
	params.Set("from", startDate.UTC().Format(time.RFC3339))
	params.Set("to", endDate.UTC().Format(time.RFC3339))

	endpoint := c.baseURL + "/collection/v1_0/transactions?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
	req.Header.Set("X-Target-Environment", c.targetEnv)
	req.Header.Set("Accept", "application/json")

	<-c.limiter
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, newSyncError(ErrCodeNetwork, err.Error(), true)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, mapStatusError("momo", resp.StatusCode, body)
	}

	var rows []RawMomoTransaction
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
