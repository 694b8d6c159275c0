package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	awsclient "tasnim.dev/policy-dl/internal/aws"
	"tasnim.dev/policy-dl/internal/aws/iam"
	"tasnim.dev/policy-dl/internal/config"
	"tasnim.dev/policy-dl/internal/exitcode"
	"tasnim.dev/policy-dl/internal/picker"
	"tasnim.dev/policy-dl/internal/writer"
)

// policyService is the slice of the IAM client the download workflow
// needs; narrowed so tests can drive the workflow without AWS.
type policyService interface {
	ListAttachedUserPolicies(ctx context.Context, userName string) ([]iam.AttachedPolicy, error)
	ListPolicies(ctx context.Context) ([]iam.Policy, error)
	FindPolicyByName(ctx context.Context, name string) (iam.Policy, error)
	ResolveDefaultVersion(ctx context.Context, policyARN string) (string, error)
	FetchDocument(ctx context.Context, policyARN, versionID string) ([]byte, error)
}

func NewDownloadCmd() *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "download [policy-name] [output-directory]",
		Short: "Download an IAM policy document to a JSON file",
		Long: `Download validates the caller's AWS identity, offers the policies
attached to the current user (or all customer-managed policies in the
account), and writes the chosen policy's current document to
<output-directory>/<policy-name>.json.

With no policy name the selection is interactive. Invalid menu input
fails immediately; it is not re-prompted.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := hclog.New(&hclog.LoggerOptions{
				Name:   "policy-dl",
				Output: cmd.ErrOrStderr(),
			})

			var policyName, outDir string
			if len(args) > 0 {
				policyName = args[0]
			}
			if len(args) > 1 {
				outDir = args[1]
			}

			cfg, err := config.Load()
			if err != nil {
				return exitcode.Wrap(exitcode.Environment, fmt.Errorf("loading config: %w", err))
			}
			profile, outDir = cfg.Merge(profile, outDir)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			awsCfg, err := awsclient.LoadConfig(ctx, profile)
			if err != nil {
				return exitcode.Wrap(exitcode.Environment, err)
			}

			logger.Info("validating AWS credentials")
			id, err := awsclient.ValidateIdentity(ctx, awsCfg)
			if err != nil {
				return exitcode.Wrap(exitcode.Identity, fmt.Errorf("validating AWS credentials: %w", err))
			}
			logger.Info("credentials are valid", "account", id.Account, "arn", id.ARN)

			d := &downloader{
				log:    logger,
				iam:    iam.NewFromConfig(awsCfg),
				ui:     &picker.Picker{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()},
				outDir: outDir,
			}
			return d.run(ctx, id, policyName)
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", "", "AWS profile to use")

	return cmd
}

type downloader struct {
	log    hclog.Logger
	iam    policyService
	ui     *picker.Picker
	outDir string
}

func (d *downloader) run(ctx context.Context, id awsclient.Identity, policyName string) error {
	if err := os.MkdirAll(d.outDir, 0o755); err != nil {
		return exitcode.Wrap(exitcode.Environment, fmt.Errorf("creating output directory: %w", err))
	}

	if policyName == "" {
		name, err := d.pickInteractively(ctx, id)
		if err != nil {
			return err
		}
		policyName = name
	}

	pol, err := d.iam.FindPolicyByName(ctx, policyName)
	if err != nil {
		return exitcode.Wrap(exitcode.NotFound, err)
	}
	d.log.Info("resolved policy", "policy", pol.Name, "arn", pol.ARN)

	version, err := d.iam.ResolveDefaultVersion(ctx, pol.ARN)
	if err != nil {
		return exitcode.Wrap(exitcode.Version, err)
	}
	d.log.Info("resolved default version", "policy", pol.Name, "version", version)

	dest := filepath.Join(d.outDir, pol.Name+".json")
	switch _, err := os.Stat(dest); {
	case err == nil:
		if !d.ui.ConfirmOverwrite(dest) {
			d.log.Info("download cancelled, existing file left untouched", "path", dest)
			return nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return exitcode.Wrap(exitcode.Download, fmt.Errorf("checking %s: %w", dest, err))
	}

	pf, err := writer.Begin(dest)
	if err != nil {
		return exitcode.Wrap(exitcode.Download, err)
	}
	defer pf.Abort()

	doc, err := d.iam.FetchDocument(ctx, pol.ARN, version)
	if err != nil {
		return exitcode.Wrap(exitcode.Download, err)
	}
	if err := pf.Commit(doc); err != nil {
		return exitcode.Wrap(exitcode.Download, err)
	}

	d.log.Info("policy downloaded", "policy", pol.Name, "version", version, "path", dest)
	return nil
}

// pickInteractively offers the attached policies first, then the full
// customer-managed list. A failed attached listing (including non-user
// principals, which have no attached-user policies) degrades to an
// empty attached set; a failed account listing is fatal.
func (d *downloader) pickInteractively(ctx context.Context, id awsclient.Identity) (string, error) {
	var attached []picker.Candidate
	if user := id.UserName(); user != "" {
		d.log.Info("fetching policies attached to user", "user", user)
		policies, err := d.iam.ListAttachedUserPolicies(ctx, user)
		if err != nil {
			d.log.Warn("could not list attached policies, continuing with account listing", "error", err)
		}
		for _, p := range policies {
			attached = append(attached, picker.Candidate{Name: p.Name})
		}
	} else {
		d.log.Info("caller is not an IAM user, skipping attached-policy listing")
	}

	d.log.Info("fetching customer-managed policies", "account", id.Account)
	policies, err := d.iam.ListPolicies(ctx)
	if err != nil {
		return "", exitcode.Wrap(exitcode.NotFound, err)
	}
	all := make([]picker.Candidate, 0, len(policies))
	for _, p := range policies {
		all = append(all, picker.Candidate{Name: p.Name, Detail: policyDetail(p)})
	}

	name, err := d.ui.Pick(attached, all)
	if err != nil {
		return "", exitcode.Wrap(exitcode.NotFound, err)
	}
	return name, nil
}

// policyDetail summarizes a policy for its menu row.
func policyDetail(p iam.Policy) string {
	detail := fmt.Sprintf("attachments: %d", p.AttachmentCount)
	if !p.UpdatedAt.IsZero() {
		detail += ", updated " + p.UpdatedAt.Format("2006-01-02")
	}
	return detail
}
