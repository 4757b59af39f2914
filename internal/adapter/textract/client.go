// Package textract wraps AWS Textract synchronous text detection for
// PDFs already stored in S3.
package textract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awstextract "github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/aws/smithy-go"

	"github.com/azeez-d3v/docqa/internal/extract"
)

// API is the subset of the Textract client used here.
type API interface {
	DetectDocumentText(ctx context.Context, params *awstextract.DetectDocumentTextInput, optFns ...func(*awstextract.Options)) (*awstextract.DetectDocumentTextOutput, error)
}

type Client struct {
	api API
}

func NewClient(cfg aws.Config) *Client {
	return &Client{api: awstextract.NewFromConfig(cfg)}
}

// NewClientWithAPI injects a fake API in tests.
func NewClientWithAPI(api API) *Client {
	return &Client{api: api}
}

func (c *Client) Configured() bool {
	return c != nil && c.api != nil
}

// DetectText runs synchronous OCR on the stored object and joins the
// detected LINE blocks with newlines. Account-capability failures are
// wrapped so callers can distinguish "can't use this provider" from
// "this document is broken".
func (c *Client) DetectText(ctx context.Context, bucket, key string) (string, error) {
	out, err := c.api.DetectDocumentText(ctx, &awstextract.DetectDocumentTextInput{
		Document: &types.Document{
			S3Object: &types.S3Object{
				Bucket: aws.String(bucket),
				Name:   aws.String(key),
			},
		},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && isCapabilityCode(apiErr) {
			return "", &extract.CapabilityError{Code: apiErr.ErrorCode(), Err: err}
		}
		return "", fmt.Errorf("textract detect: %w", err)
	}

	var lines []string
	for _, block := range out.Blocks {
		if block.BlockType == types.BlockTypeLine && block.Text != nil {
			lines = append(lines, *block.Text)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func isCapabilityCode(apiErr smithy.APIError) bool {
	switch apiErr.ErrorCode() {
	case "SubscriptionRequiredException", "AccessDeniedException":
		return true
	}
	return strings.Contains(strings.ToLower(apiErr.ErrorMessage()), "subscription")
}
