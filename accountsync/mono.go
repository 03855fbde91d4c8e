package accountsync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adepafin/adepa_backend/models"
	"github.com/shopspring/decimal"
)

// monoClient talks to the bank-aggregation API. One shared ticker
// paces all outbound calls.
type monoClient struct {
	baseURL     string
	secretKey   string
	secretHdr   string
	http        *http.Client
	limiter     <-chan time.Time
	initialized bool
}

func NewMonoClient() (BankClient, error) {
	baseURL := strings.TrimSpace(os.Getenv("MONO_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.withmono.com"
	}
	secretKey := strings.TrimSpace(os.Getenv("MONO_SECRET_KEY"))
	secretHeader := strings.TrimSpace(os.Getenv("MONO_SECRET_KEY_HEADER"))
	if secretHeader == "" {
		secretHeader = "mono-sec-key"
	}

	rateLimitPerMin := int64(30)
	if v := strings.TrimSpace(os.Getenv("MONO_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			rateLimitPerMin = n
		}
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	return &monoClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		secretHdr: secretHeader,
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   time.Tick(interval),
	}, nil
}

func (c *monoClient) Initialize(ctx context.Context) error {
	if strings.TrimSpace(c.secretKey) == "" {
		return newSyncError(ErrCodeAuth, "mono secret key is not configured", false)
	}
	c.initialized = true
	return nil
}

type monoAccountEnvelope struct {
	Account struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Balance     string `json:"balance"`
		Institution struct {
			Name string `json:"name"`
		} `json:"institution"`
	} `json:"account"`
}

type monoTransactionsEnvelope struct {
	Data []struct {
		ID        string `json:"id"`
		Amount    string `json:"amount"`
		Currency  string `json:"currency"`
		Type      string `json:"type"`
		Narration string `json:"narration"`
		Date      string `json:"date"`
	} `json:"data"`
}

func (c *monoClient) GetAccountSyncData(ctx context.Context, accountHandle string, startDate time.Time, endDate time.Time) (SyncData, error) {
	if !c.initialized {
		if err := c.Initialize(ctx); err != nil {
			return SyncData{}, err
		}
	}

	var accountEnv monoAccountEnvelope
	if err := c.getJSON(ctx, "/v2/accounts/"+url.PathEscape(accountHandle), nil, &accountEnv); err != nil {
		return SyncData{}, err
	}

	params := url.Values{}
	params.Set("start", startDate.Format("02-01-2006"))
	params.Set("end", endDate.Format("02-01-2006"))
	params.Set("paginate", "false")

	var txnEnv monoTransactionsEnvelope
	if err := c.getJSON(ctx, "/v2/accounts/"+url.PathEscape(accountHandle)+"/transactions", params, &txnEnv); err != nil {
		return SyncData{}, err
	}

	transactions := make([]ExternalTransaction, 0, len(txnEnv.Data))
	for _, row := range txnEnv.Data {
		amount, err := decimal.NewFromString(strings.TrimSpace(row.Amount))
		if err != nil {
			amount = decimal.Zero
		}
		txnType := models.TransactionTypeExpense
		if strings.EqualFold(strings.TrimSpace(row.Type), "credit") {
			txnType = models.TransactionTypeIncome
		}
		transactions = append(transactions, ExternalTransaction{
			ExternalId:  strings.TrimSpace(row.ID),
			Amount:      amount,
			Currency:    strings.TrimSpace(row.Currency),
			Type:        txnType,
			Description: strings.TrimSpace(row.Narration),
			Date:        parseTimeOrNow(row.Date),
		})
	}

	var balance *decimal.Decimal
	if b, err := decimal.NewFromString(strings.TrimSpace(accountEnv.Account.Balance)); err == nil {
		balance = &b
	}

	return SyncData{
		Platform:     models.PlatformBank,
		Transactions: transactions,
		Account: AccountInfo{
			Name:        accountEnv.Account.Name,
			Balance:     balance,
			Institution: accountEnv.Account.Institution.Name,
		},
		TotalTransactions: len(transactions),
	}, nil
}

func (c *monoClient) CheckAccountExists(ctx context.Context, accountHandle string) (bool, error) {
	if !c.initialized {
		if err := c.Initialize(ctx); err != nil {
			return false, err
		}
	}
	var accountEnv monoAccountEnvelope
	err := c.getJSON(ctx, "/v2/accounts/"+url.PathEscape(accountHandle), nil, &accountEnv)
	if err != nil {
		if CodeOf(err) == ErrCodeAccountState {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *monoClient) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	<-c.limiter
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set(c.secretHdr, c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return newSyncError(ErrCodeNetwork, err.Error(), true)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return mapStatusError("mono", resp.StatusCode, body)
	}

	return json.Unmarshal(body, out)
}

func mapStatusError(provider string, status int, body []byte) error {
	message := fmt.Sprintf("%s api error %d: %s", provider, status, strings.TrimSpace(string(body)))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return newSyncError(ErrCodeAuth, message, false)
	case status == http.StatusNotFound:
		return newSyncError(ErrCodeAccountState, message, false)
	case status == http.StatusTooManyRequests:
		return newSyncError(ErrCodeNetwork, message, true)
	case status >= 500:
		return newSyncError(ErrCodeUnavailable, message, true)
	default:
		return newSyncError(ErrCodeValidation, message, false)
	}
}

func parseTimeOrNow(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Now()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Now()
}
