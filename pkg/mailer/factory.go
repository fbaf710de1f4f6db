package mailer

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/apexev/apexev-backend/pkg/config"
	"github.com/apexev/apexev-backend/pkg/logger"
)

// New builds the configured sender wrapped with retry and per-attempt timeouts.
func New(ctx context.Context, cfg config.EmailConfig, logg *logger.Logger) (Sender, error) {
	base, err := newDriver(ctx, cfg, logg)
	if err != nil {
		return nil, err
	}
	return WithRetry(base, RetryOptions{
		MaxAttempts: cfg.MaxAttempts,
		Backoff:     cfg.RetryBackoff,
		Timeout:     cfg.SendTimeout,
	})
}

func newDriver(ctx context.Context, cfg config.EmailConfig, logg *logger.Logger) (Sender, error) {
	switch driver := cfg.NormalizedDriver(); driver {
	case config.EmailDriverLog:
		return NewLogSender(logg)
	case config.EmailDriverSNS:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return NewSNSSender(sns.NewFromConfig(awsCfg), cfg.SNSTopicARN, logg)
	case config.EmailDriverSES:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return NewSESSender(ses.NewFromConfig(awsCfg), cfg.SESFrom)
	default:
		return nil, fmt.Errorf("unsupported email driver %q", driver)
	}
}
