package aws

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// MockedKeyID short-circuits decryption so debug runs work without KMS.
const MockedKeyID = "MOCKED_KEY_ID"

// KMSAPI is the subset of the KMS client used for secret decryption.
type KMSAPI interface {
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

type KMSClient struct {
	Client KMSAPI
}

func NewKMSClient(cfg aws.Config) *KMSClient {
	return &KMSClient{Client: kms.NewFromConfig(cfg)}
}

// Decrypt decodes a base64 KMS ciphertext blob and returns its plaintext.
func (c *KMSClient) Decrypt(ctx context.Context, keyId, encodedEncryptedStr string) (string, error) {
	encodedEncryptedStr = strings.TrimSpace(encodedEncryptedStr)
	if encodedEncryptedStr == "" {
		return "", nil
	}

	// mock the decryption for testing
	if keyId == MockedKeyID {
		return encodedEncryptedStr, nil
	}

	decodedCode, err := base64.StdEncoding.DecodeString(encodedEncryptedStr)
	if err != nil {
		return "", fmt.Errorf("invalid kms ciphertext encoding: %w", err)
	}

	decryptInput := &kms.DecryptInput{
		CiphertextBlob: decodedCode,
	}
	if keyId != "" {
		decryptInput.KeyId = aws.String(keyId)
	}

	decryptOutput, err := c.Client.Decrypt(ctx, decryptInput)
	if err != nil {
		return "", fmt.Errorf("kms decrypt failed: %w", err)
	}

	return string(decryptOutput.Plaintext), nil
}
