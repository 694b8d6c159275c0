package aws

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// LoadConfig loads an AWS config with an optional profile override.
func LoadConfig(ctx context.Context, profile string) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return cfg, nil
}

// Identity is the caller identity returned by STS, validated once at
// startup and read-only afterwards.
type Identity struct {
	ARN     string
	UserID  string
	Account string
}

// UserName returns the IAM user name embedded in the caller ARN, or ""
// when the principal is not an IAM user (assumed role, root, federated).
func (id Identity) UserName() string {
	const marker = ":user/"
	i := strings.Index(id.ARN, marker)
	if i < 0 {
		return ""
	}
	name := id.ARN[i+len(marker):]
	// Paths like user/dev/alice resolve to the final segment.
	if j := strings.LastIndex(name, "/"); j >= 0 {
		name = name[j+1:]
	}
	return name
}

type stsAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// ValidateIdentity confirms the configured credentials resolve to a
// known principal before any enumeration happens.
func ValidateIdentity(ctx context.Context, cfg aws.Config) (Identity, error) {
	return validateIdentity(ctx, sts.NewFromConfig(cfg))
}

func validateIdentity(ctx context.Context, api stsAPI) (Identity, error) {
	out, err := api.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Identity{}, fmt.Errorf("GetCallerIdentity: %w", err)
	}

	id := Identity{
		ARN:     strings.TrimSpace(aws.ToString(out.Arn)),
		UserID:  strings.TrimSpace(aws.ToString(out.UserId)),
		Account: strings.TrimSpace(aws.ToString(out.Account)),
	}
	if err := id.check(); err != nil {
		return Identity{}, err
	}
	return id, nil
}

func (id Identity) check() error {
	if id.UserID == "" {
		return fmt.Errorf("caller identity has no user id")
	}
	if len(id.Account) != 12 || !isDigits(id.Account) {
		return fmt.Errorf("caller identity account %q is not a 12-digit account id", id.Account)
	}
	if !strings.HasPrefix(id.ARN, "arn:aws:") {
		return fmt.Errorf("caller identity ARN %q is malformed", id.ARN)
	}
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
