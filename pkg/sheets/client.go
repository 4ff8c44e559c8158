// Package sheets wraps the Google Sheets v4 values API as a row table.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"syscall"

	"github.com/rotisserie/eris"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/fsotosa-ops/meridian-bdr/internal/resilience"
)

// valueInput keeps every write literal; user-entered parsing would turn
// scraped text starting with "=" into formulas.
const valueInput = "RAW"

// Client reads and writes cell ranges of one spreadsheet.
type Client interface {
	ReadRange(ctx context.Context, rng string) ([][]string, error)
	AppendRow(ctx context.Context, rng string, row []string) error
	UpdateRange(ctx context.Context, rng string, rows [][]string) error
	UpdateCell(ctx context.Context, cell, value string) error
	Close() error
}

// Option configures the client.
type Option func(*options)

type options struct {
	credentialsFile string
	credentialsJSON []byte
	endpoint        string
	httpClient      *http.Client
	limiter         *rate.Limiter
	retry           resilience.RetryConfig
}

// WithCredentialsFile authenticates with a service-account JSON key file.
func WithCredentialsFile(path string) Option {
	return func(o *options) { o.credentialsFile = path }
}

// WithCredentialsJSON authenticates with service-account JSON key contents.
func WithCredentialsJSON(data []byte) Option {
	return func(o *options) { o.credentialsJSON = data }
}

// WithEndpoint overrides the API endpoint (for testing).
func WithEndpoint(url string) Option {
	return func(o *options) { o.endpoint = url }
}

// WithHTTPClient uses hc without adding authentication (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithRateLimit overrides the default request rate (1 req/s, burst 5).
// Zero disables throttling.
func WithRateLimit(rps float64) Option {
	return func(o *options) {
		if rps > 0 {
			o.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			o.limiter = nil
		}
	}
}

// WithRetry overrides the retry policy for transient API failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(o *options) { o.retry = cfg }
}

type apiClient struct {
	spreadsheetID string
	values        *sheetsapi.SpreadsheetsValuesService
	limiter       *rate.Limiter
	retry         resilience.RetryConfig
	appendRetry   resilience.RetryConfig
}

// NewClient builds a client for spreadsheetID.
func NewClient(ctx context.Context, spreadsheetID string, opts ...Option) (Client, error) {
	o := &options{
		limiter: rate.NewLimiter(1, 5),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.retry.ShouldRetry = isRetryable
	o.retry.OnRetry = resilience.RetryLogger("sheets", "values")
	appendRetry := o.retry
	appendRetry.ShouldRetry = isAppendRetryable

	var clientOpts []option.ClientOption
	switch {
	case o.httpClient != nil:
		clientOpts = append(clientOpts, option.WithHTTPClient(o.httpClient))
	case len(o.credentialsJSON) > 0 || o.credentialsFile != "":
		data := o.credentialsJSON
		if len(data) == 0 {
			var err error
			data, err = os.ReadFile(o.credentialsFile)
			if err != nil {
				return nil, eris.Wrapf(err, "sheets: read credentials %s", o.credentialsFile)
			}
		}
		creds, err := google.CredentialsFromJSON(ctx, data, sheetsapi.SpreadsheetsScope)
		if err != nil {
			return nil, eris.Wrap(err, "sheets: parse credentials")
		}
		clientOpts = append(clientOpts, option.WithTokenSource(creds.TokenSource))
	default:
		// Application default credentials.
		creds, err := google.FindDefaultCredentials(ctx, sheetsapi.SpreadsheetsScope)
		if err != nil {
			return nil, eris.Wrap(err, "sheets: find default credentials")
		}
		clientOpts = append(clientOpts, option.WithTokenSource(creds.TokenSource))
	}
	if o.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(o.endpoint))
	}

	srv, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: create service")
	}

	return &apiClient{
		spreadsheetID: spreadsheetID,
		values:        srv.Spreadsheets.Values,
		limiter:       o.limiter,
		retry:         o.retry,
		appendRetry:   appendRetry,
	}, nil
}

func (c *apiClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *apiClient) ReadRange(ctx context.Context, rng string) ([][]string, error) {
	vr, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*sheetsapi.ValueRange, error) {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		return c.values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	})
	if err != nil {
		return nil, eris.Wrapf(err, "sheets: read %s", rng)
	}
	return fromValues(vr.Values), nil
}

func (c *apiClient) AppendRow(ctx context.Context, rng string, row []string) error {
	body := &sheetsapi.ValueRange{Values: toValues([][]string{row})}
	_, err := resilience.DoVal(ctx, c.appendRetry, func(ctx context.Context) (*sheetsapi.AppendValuesResponse, error) {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		return c.values.Append(c.spreadsheetID, rng, body).
			ValueInputOption(valueInput).
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
	})
	return eris.Wrapf(err, "sheets: append %s", rng)
}

func (c *apiClient) UpdateRange(ctx context.Context, rng string, rows [][]string) error {
	body := &sheetsapi.ValueRange{Values: toValues(rows)}
	_, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*sheetsapi.UpdateValuesResponse, error) {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		return c.values.Update(c.spreadsheetID, rng, body).
			ValueInputOption(valueInput).
			Context(ctx).
			Do()
	})
	return eris.Wrapf(err, "sheets: update %s", rng)
}

func (c *apiClient) UpdateCell(ctx context.Context, cell, value string) error {
	return c.UpdateRange(ctx, cell, [][]string{{value}})
}

func (c *apiClient) Close() error { return nil }

// URL returns the browser link for a spreadsheet.
func URL(spreadsheetID string) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s", spreadsheetID)
}

func isRetryable(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return resilience.IsTransientHTTPStatus(gerr.Code)
	}
	return resilience.IsTransient(err)
}

// isAppendRetryable limits append retries to failures where the row cannot
// have been written: quota rejections and refused connections. A 5xx or a
// timeout may follow an applied append, and resending would duplicate it.
func isAppendRetryable(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}

func toValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}

func fromValues(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		out[i] = cells
	}
	return out
}
