package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

type AWSClient struct {
	KMS *KMSClient
}

func NewAWSClient(ctx context.Context) (*AWSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	return NewAWSClientFromConfig(cfg), nil
}

func NewAWSClientFromConfig(cfg aws.Config) *AWSClient {
	return &AWSClient{
		KMS: NewKMSClient(cfg),
	}
}
