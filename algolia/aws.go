package algolia

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/cockroachdb/errors"
)

// SecretsManagerClient defines the interface for AWS Secrets Manager operations.
type SecretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecrets returns a FetchSecrets function that reads the secret stored at
// "{environment}/algolia". The secret holds JSON with app_id and write_api_key.
func AWSSecrets(ctx context.Context, client SecretsManagerClient, env string) FetchSecrets {
	return func() (Secrets, error) {
		return fetchSecret(ctx, client, env+"/algolia")
	}
}

// AWSSecretsFromARN returns a FetchSecrets function that reads the secret with
// the given ARN. The secret holds JSON with app_id and write_api_key.
func AWSSecretsFromARN(ctx context.Context, client SecretsManagerClient, secretArn string) FetchSecrets {
	return func() (Secrets, error) {
		return fetchSecret(ctx, client, secretArn)
	}
}

func fetchSecret(ctx context.Context, client SecretsManagerClient, secretID string) (Secrets, error) {
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return Secrets{}, errors.Wrapf(err, "failed to get secret %s from AWS Secrets Manager", secretID)
	}

	if result.SecretString == nil {
		return Secrets{}, errors.Newf("secret %s has no string value", secretID)
	}

	var secrets Secrets
	if err := json.Unmarshal([]byte(aws.ToString(result.SecretString)), &secrets); err != nil {
		return Secrets{}, errors.Wrapf(err, "failed to unmarshal secret JSON from %s", secretID)
	}

	return secrets, nil
}
