package config

import (
	"context"
	"fmt"
	"strings"

	awsinternal "github.com/cruxstack/email-trust-filter-go/internal/aws"
	"github.com/cruxstack/email-trust-filter-go/internal/encryption"
)

// Credential values may be stored encrypted. "enc:" marks an AWS Encryption
// SDK message and "kms:" a raw KMS ciphertext blob, both base64 encoded.
const (
	encryptedPrefix = "enc:"
	kmsPrefix       = "kms:"
)

func isEncrypted(v string) bool {
	return strings.HasPrefix(v, encryptedPrefix) || strings.HasPrefix(v, kmsPrefix)
}

func (c *Config) secretFields() map[string]*string {
	creds := &c.AppEmailFilterCredentials
	return map[string]*string{
		"maxmind.account": &creds.MaxMind.Account,
		"maxmind.license": &creds.MaxMind.License,
		"cleantalk":       &creds.CleanTalk,
		"apivoid":         &creds.APIVoid,
		"ipqualityscore":  &creds.IPQualityScore,
		"sendgrid":        &creds.SendGrid,
		"redis_url":       &c.AppCacheRedisURL,
	}
}

func (c *Config) hasEncryptedCredentials() bool {
	for _, v := range c.secretFields() {
		if isEncrypted(*v) {
			return true
		}
	}
	return false
}

// DecryptCredentials replaces every encrypted credential with its plaintext.
func (c *Config) DecryptCredentials(ctx context.Context) error {
	var kms *awsinternal.KMSClient

	for name, v := range c.secretFields() {
		switch {
		case strings.HasPrefix(*v, encryptedPrefix):
			plain, err := encryption.Decrypt(ctx, c.AppKmsKeyId, strings.TrimPrefix(*v, encryptedPrefix))
			if err != nil {
				return fmt.Errorf("failed to decrypt %s credential: %w", name, err)
			}
			*v = plain

		case strings.HasPrefix(*v, kmsPrefix):
			if kms == nil {
				client, err := c.kmsClient(ctx)
				if err != nil {
					return err
				}
				kms = client
			}
			plain, err := kms.Decrypt(ctx, c.AppKmsKeyId, strings.TrimPrefix(*v, kmsPrefix))
			if err != nil {
				return fmt.Errorf("failed to decrypt %s credential: %w", name, err)
			}
			*v = plain
		}
	}
	return nil
}

// kmsClient loads the default AWS configuration the first time it is needed.
func (c *Config) kmsClient(ctx context.Context) (*awsinternal.KMSClient, error) {
	if c.AWSConfig != nil {
		return awsinternal.NewAWSClientFromConfig(*c.AWSConfig).KMS, nil
	}

	client, err := awsinternal.NewAWSClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return client.KMS, nil
}
