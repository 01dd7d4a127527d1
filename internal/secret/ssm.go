package secret

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// SSMAPI is the subset of the SSM client used here.
type SSMAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMProvider reads SecureString parameters from AWS Systems Manager
// Parameter Store. The client is built once per process and shared.
type SSMProvider struct {
	client SSMAPI
}

var _ Provider = (*SSMProvider)(nil)

func NewSSMProvider(client SSMAPI) *SSMProvider {
	return &SSMProvider{client: client}
}

// NewSSMProviderFromEnv loads the default AWS config chain (env, shared
// config, instance role).
func NewSSMProviderFromEnv(ctx context.Context) (*SSMProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewSSMProvider(ssm.NewFromConfig(cfg)), nil
}

func (p *SSMProvider) Get(ctx context.Context, name string) (string, error) {
	out, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get parameter: %w", err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", ErrNotFound
	}
	return aws.ToString(out.Parameter.Value), nil
}
