package metadataclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gitdigital/founder-loan-service/internal/clients/client"
	"github.com/gitdigital/founder-loan-service/internal/config"
	"github.com/rs/zerolog/log"
)

const (
	endpointTemplate = "/v1/loans/{loan_id}/metadata"
	endpointFormat   = "/v1/loans/%d/metadata"
)

type Client struct {
	httpClient *http.Client
	cfg        *config.MetadataConfig
}

func (c *Client) GetBaseURL() string {
	return strings.TrimSuffix(c.cfg.URL, "/")
}

func (c *Client) GetDefaultRequestTimeout() time.Duration {
	return c.cfg.Timeout
}

func (c *Client) GetHttpClient() *http.Client {
	return c.httpClient
}

// NewClient returns nil when the metadata service is not configured.
func NewClient(cfg *config.MetadataConfig) *Client {
	if cfg == nil {
		return nil
	}

	return &Client{
		httpClient: &http.Client{},
		cfg:        cfg,
	}
}

func (c *Client) UpdateLoanMetadata(ctx context.Context, metadata LoanMetadata) error {
	return updateLoanMetadata(ctx, c, c.cfg, metadata)
}

// updateLoanMetadata takes the base client separately so tests can point it
// at a local server.
func updateLoanMetadata(ctx context.Context, base client.BaseClient, cfg *config.MetadataConfig, metadata LoanMetadata) error {
	type empty struct{}

	call := func() (struct{}, error) {
		opts := &client.HttpClientOptions{
			Path:         fmt.Sprintf(endpointFormat, metadata.LoanID),
			TemplatePath: endpointTemplate,
		}
		_, err := client.SendRequest[LoanMetadata, empty](ctx, base, http.MethodPut, opts, &metadata)
		return struct{}{}, err
	}

	if _, err := clientCallWithRetry(ctx, call, cfg); err != nil {
		return fmt.Errorf("failed to update metadata of loan %d: %w", metadata.LoanID, err)
	}

	return nil
}

func clientCallWithRetry[T any](
	ctx context.Context,
	call retry.RetryableFuncWithData[T],
	cfg *config.MetadataConfig,
) (T, error) {
	attempts := cfg.MaxRetryTimes
	if attempts == 0 {
		attempts = 1
	}

	result, err := retry.DoWithData(call,
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(cfg.RetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(client.IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Debug().
				Uint("attempt", n+1).
				Uint("max_attempts", attempts).
				Err(err).
				Msg("metadata update failed, retrying with exponential backoff")
		}))
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
