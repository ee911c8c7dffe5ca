package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/twofa/pkg/qrcode"
	"github.com/dmitrymomot/twofa/pkg/totp"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "mfactl",
		Short:         "Administer TOTP two-factor enrollments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.storeKind, "store", a.storeKind, "Enrollment store: "+strings.Join(storeKinds, "|"))
	flags.BoolVar(&a.migrate, "migrate", false, "Apply PostgreSQL migrations before running the command")
	flags.StringSliceVar(&a.envFiles, "env-file", nil, "Read variables from these .env files instead of ./.env")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file on exit")

	root.AddCommand(
		newKeygenCmd(a),
		newCodeCmd(a),
		newSetupCmd(a),
		newVerifyCmd(a),
		newBackupCodesCmd(a),
		newBackupVerifyCmd(a),
		newDisableCmd(a),
		newStatusCmd(a),
		newHealthCmd(a),
	)
	return root
}

func newKeygenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a base64 key for MFA_ENCRYPTION_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := totp.GenerateEncodedEncryptionKey()
			if err != nil {
				return err
			}
			return a.print(map[string]string{"encryption_key": key})
		},
	}
}

func newCodeCmd(a *app) *cobra.Command {
	var at int64
	cmd := &cobra.Command{
		Use:   "code <secret>",
		Short: "Print the current code for a base32 secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			secret, err := totp.DecodeSecret(args[0])
			if err != nil {
				return err
			}

			now := time.Now()
			if cmd.Flags().Changed("at") {
				now = time.Unix(at, 0)
			}
			params := a.cfg.Params()
			step := totp.CurrentTimeStep(now.Unix(), params.Period)
			next := time.Unix((step+1)*int64(params.Period), 0)

			return a.print(map[string]any{
				"code":       totp.ComputeCode(secret, step, params.Digits),
				"step":       step,
				"expires_in": int(next.Sub(now).Seconds()),
			})
		},
	}
	cmd.Flags().Int64Var(&at, "at", 0, "Unix time to compute the code for")
	return cmd
}

func newSetupCmd(a *app) *cobra.Command {
	var (
		name     string
		qrFile   string
		terminal bool
	)
	cmd := &cobra.Command{
		Use:   "setup <user>",
		Short: "Start enrollment and print the secret, provisioning URI and backup codes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}

			res := svc.Setup(cmd.Context(), args[0], name)
			if res.Success && qrFile != "" {
				png, err := qrcode.Generate(res.ProvisioningURI, a.cfg.QRCodeSize)
				if err != nil {
					return err
				}
				if err := os.WriteFile(qrFile, png, 0o600); err != nil {
					return fmt.Errorf("write qr code: %w", err)
				}
			}
			if res.Success && terminal {
				text, err := qrcode.Terminal(res.ProvisioningURI, false)
				if err != nil {
					return err
				}
				fmt.Fprint(a.errOut, text)
			}
			return a.printResult(res, res.Result)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Account name shown in the authenticator app (defaults to the user id)")
	cmd.Flags().StringVar(&qrFile, "qr", "", "Write the provisioning QR code as PNG to this file")
	cmd.Flags().BoolVar(&terminal, "qr-terminal", false, "Draw the provisioning QR code on stderr")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <user> <code>",
		Short: "Verify a one-time code, confirming a pending enrollment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			res := svc.Verify(cmd.Context(), args[0], args[1])
			return a.printResult(res, res.Result)
		},
	}
}

func newBackupCodesCmd(a *app) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "backup-codes <user>",
		Short: "Replace all backup codes with a fresh set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			res := svc.GenerateBackupCodes(cmd.Context(), args[0], count)
			return a.printResult(res, res.Result)
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "Number of codes (defaults to MFA_BACKUP_CODE_COUNT)")
	return cmd
}

func newBackupVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backup-verify <user> <code>",
		Short: "Consume a backup code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			res := svc.VerifyBackupCode(cmd.Context(), args[0], args[1])
			return a.printResult(res, res.Result)
		},
	}
}

func newDisableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <user>",
		Short: "Remove the enrollment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			res := svc.Disable(cmd.Context(), args[0])
			return a.printResult(res, res.Result)
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <user>",
		Short: "Show the enrollment state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			res := svc.Status(cmd.Context(), args[0])
			return a.printResult(res, res.Result)
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Ping the selected store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.service(cmd.Context()); err != nil {
				return err
			}
			if a.probe != nil {
				if err := a.probe(cmd.Context()); err != nil {
					return err
				}
			}
			return a.print(map[string]any{"store": a.storeKind, "healthy": true})
		},
	}
}
