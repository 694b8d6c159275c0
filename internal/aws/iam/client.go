package iam

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsiam "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/smithy-go"
)

type IAMAPI interface {
	ListAttachedUserPolicies(ctx context.Context, params *awsiam.ListAttachedUserPoliciesInput, optFns ...func(*awsiam.Options)) (*awsiam.ListAttachedUserPoliciesOutput, error)
	ListPolicies(ctx context.Context, params *awsiam.ListPoliciesInput, optFns ...func(*awsiam.Options)) (*awsiam.ListPoliciesOutput, error)
	GetPolicy(ctx context.Context, params *awsiam.GetPolicyInput, optFns ...func(*awsiam.Options)) (*awsiam.GetPolicyOutput, error)
	GetPolicyVersion(ctx context.Context, params *awsiam.GetPolicyVersionInput, optFns ...func(*awsiam.Options)) (*awsiam.GetPolicyVersionOutput, error)
}

type Client struct {
	api IAMAPI
}

func NewClient(api IAMAPI) *Client {
	return &Client{api: api}
}

// NewFromConfig builds a Client on the real IAM service.
func NewFromConfig(cfg aws.Config) *Client {
	return NewClient(awsiam.NewFromConfig(cfg))
}

// NotFoundError reports a policy name with no exact match, carrying the
// names that do exist for the diagnostic listing.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("policy %q was not found: no customer-managed policies in this account", e.Name)
	}
	return fmt.Sprintf("policy %q was not found: available policies: %s", e.Name, strings.Join(e.Available, ", "))
}

// ErrNoVersion reports a policy whose default version id could not be
// resolved.
var ErrNoVersion = errors.New("default version id unresolvable")

// ListAttachedUserPolicies enumerates the managed policies attached to
// the given user.
func (c *Client) ListAttachedUserPolicies(ctx context.Context, userName string) ([]AttachedPolicy, error) {
	var policies []AttachedPolicy
	var marker *string

	for {
		out, err := c.api.ListAttachedUserPolicies(ctx, &awsiam.ListAttachedUserPoliciesInput{
			UserName: aws.String(userName),
			Marker:   marker,
		})
		if err != nil {
			return nil, fmt.Errorf("ListAttachedUserPolicies(%s): %w", userName, err)
		}

		for _, p := range out.AttachedPolicies {
			policies = append(policies, AttachedPolicy{
				Name: strings.TrimSpace(aws.ToString(p.PolicyName)),
				ARN:  aws.ToString(p.PolicyArn),
			})
		}

		if !out.IsTruncated {
			break
		}
		marker = out.Marker
	}

	return policies, nil
}

// ListPolicies enumerates customer-managed policies in the account.
func (c *Client) ListPolicies(ctx context.Context) ([]Policy, error) {
	var policies []Policy
	var marker *string

	for {
		out, err := c.api.ListPolicies(ctx, &awsiam.ListPoliciesInput{
			Scope:  iamtypes.PolicyScopeTypeLocal,
			Marker: marker,
		})
		if err != nil {
			return nil, fmt.Errorf("ListPolicies: %w", err)
		}

		for _, p := range out.Policies {
			var createdAt, updatedAt time.Time
			if p.CreateDate != nil {
				createdAt = *p.CreateDate
			}
			if p.UpdateDate != nil {
				updatedAt = *p.UpdateDate
			}

			var attachmentCount int
			if p.AttachmentCount != nil {
				attachmentCount = int(*p.AttachmentCount)
			}

			policies = append(policies, Policy{
				Name:             strings.TrimSpace(aws.ToString(p.PolicyName)),
				PolicyID:         aws.ToString(p.PolicyId),
				ARN:              aws.ToString(p.Arn),
				Path:             aws.ToString(p.Path),
				DefaultVersionID: aws.ToString(p.DefaultVersionId),
				AttachmentCount:  attachmentCount,
				CreatedAt:        createdAt,
				UpdatedAt:        updatedAt,
			})
		}

		if !out.IsTruncated {
			break
		}
		marker = out.Marker
	}

	return policies, nil
}

// FindPolicyByName resolves a name to its customer-managed policy by
// exact match. A miss returns *NotFoundError listing what does exist.
func (c *Client) FindPolicyByName(ctx context.Context, name string) (Policy, error) {
	name = strings.TrimSpace(name)

	policies, err := c.ListPolicies(ctx)
	if err != nil {
		return Policy{}, err
	}

	available := make([]string, 0, len(policies))
	for _, p := range policies {
		if p.Name == name {
			return p, nil
		}
		available = append(available, p.Name)
	}

	return Policy{}, &NotFoundError{Name: name, Available: available}
}

// ResolveDefaultVersion looks up the current default version id for the
// policy at the given ARN.
func (c *Client) ResolveDefaultVersion(ctx context.Context, policyARN string) (string, error) {
	out, err := c.api.GetPolicy(ctx, &awsiam.GetPolicyInput{
		PolicyArn: aws.String(policyARN),
	})
	if err != nil {
		if isNoSuchEntity(err) {
			return "", fmt.Errorf("GetPolicy(%s): %w", policyARN, ErrNoVersion)
		}
		return "", fmt.Errorf("GetPolicy(%s): %w", policyARN, err)
	}

	if out.Policy == nil {
		return "", fmt.Errorf("GetPolicy(%s): %w", policyARN, ErrNoVersion)
	}
	version := strings.TrimSpace(aws.ToString(out.Policy.DefaultVersionId))
	if version == "" {
		return "", fmt.Errorf("GetPolicy(%s): %w", policyARN, ErrNoVersion)
	}
	return version, nil
}

// FetchDocument downloads the policy document for the given ARN and
// version. The service returns the document URL-encoded; the returned
// bytes are the decoded JSON.
func (c *Client) FetchDocument(ctx context.Context, policyARN, versionID string) ([]byte, error) {
	out, err := c.api.GetPolicyVersion(ctx, &awsiam.GetPolicyVersionInput{
		PolicyArn: aws.String(policyARN),
		VersionId: aws.String(versionID),
	})
	if err != nil {
		return nil, fmt.Errorf("GetPolicyVersion(%s, %s): %w", policyARN, versionID, err)
	}

	if out.PolicyVersion == nil || out.PolicyVersion.Document == nil {
		return nil, fmt.Errorf("GetPolicyVersion(%s, %s): empty document", policyARN, versionID)
	}

	doc := aws.ToString(out.PolicyVersion.Document)
	if decoded, err := url.QueryUnescape(doc); err == nil {
		doc = decoded
	}
	return []byte(doc), nil
}

func isNoSuchEntity(err error) bool {
	var nse *iamtypes.NoSuchEntityException
	if errors.As(err, &nse) {
		return true
	}
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "NoSuchEntity"
}
