package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/smithy-go"

	"github.com/pgporter/pgporter/internal/domain"
)

// api is the slice of the Secrets Manager client we actually use, so
// tests can swap in a fake.
type api interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// Manager resolves secret names against AWS Secrets Manager. It returns
// the decrypted payload verbatim; parsing belongs to the caller.
type Manager struct {
	client api
	log    Logger
}

func NewManager(awsCfg aws.Config, log Logger) *Manager {
	return &Manager{
		client: secretsmanager.NewFromConfig(awsCfg),
		log:    log,
	}
}

func (m *Manager) GetSecret(ctx context.Context, name string) ([]byte, error) {
	m.log.Infof("Looking for Secrets Manager key [%s]", name)

	out, err := m.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		m.log.Errorf("Secret lookup failed for [%s]: %v", name, err)
		return nil, classify(name, err)
	}

	// Either SecretString or SecretBinary is populated depending on how
	// the secret was stored; binary payloads pass through opaquely.
	if out.SecretString != nil {
		return []byte(*out.SecretString), nil
	}
	return out.SecretBinary, nil
}

func classify(name string, err error) error {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %s", domain.ErrSecretNotFound, name)
	}

	var invalidReq *types.InvalidRequestException
	var invalidParam *types.InvalidParameterException
	if errors.As(err, &invalidReq) || errors.As(err, &invalidParam) {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidSecretRequest, name, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "AccessDeniedException" {
		return fmt.Errorf("%w: %s", domain.ErrSecretAccessDenied, name)
	}

	return fmt.Errorf("get secret %s: %w", name, err)
}
