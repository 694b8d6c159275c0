package main

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"tasnim.dev/policy-dl/cmd"
	"tasnim.dev/policy-dl/internal/exitcode"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "policy-dl",
		Short:         "Download IAM policy documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(cmd.NewDownloadCmd())

	if err := rootCmd.Execute(); err != nil {
		hclog.New(&hclog.LoggerOptions{
			Name:   "policy-dl",
			Output: os.Stderr,
		}).Error(err.Error())
		os.Exit(exitcode.From(err))
	}
}
