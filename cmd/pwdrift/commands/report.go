package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pwdrift/pwdrift/pkg/stores"
	"github.com/pwdrift/pwdrift/pkg/transports/ssh"
)

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Work with the local report history",
	}
	cmd.AddCommand(newReportListCommand())
	cmd.AddCommand(newReportShowCommand())
	cmd.AddCommand(newReportPublishCommand())
	return cmd
}

func openStore(ctx context.Context) (*stores.SQLiteStore, error) {
	cfg, err := loadAppConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Store.Path == "" {
		return nil, fmt.Errorf("report history is disabled (store.path is empty)")
	}
	store, err := stores.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func newReportListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored reports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.ListReports(cmd.Context(), limit, 0)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(records)
			}
			if len(records) == 0 {
				fmt.Println("no reports stored")
				return nil
			}
			for _, rec := range records {
				status := "compliant"
				if !rec.Compliant {
					status = fmt.Sprintf("%d drifted, %d failed", rec.DriftedChecks, rec.FailedChecks)
				}
				fmt.Printf("%s  %s  version=%s  %s\n",
					rec.ID, rec.GeneratedAt.Format("2006-01-02 15:04:05"), rec.Version, status)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of reports to list")

	return cmd
}

func newReportShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <report-id>",
		Short: "Print one stored report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			rep, err := store.GetReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := rep.JSON()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}

func newReportPublishCommand() *cobra.Command {
	var (
		host       string
		user       string
		remotePath string
		keyPath    string
	)

	cmd := &cobra.Command{
		Use:   "publish <report-id>",
		Short: "Upload one stored report to a remote host over SFTP",
		Example: `  pwdrift report publish 6f1c... \
    --host archive.lab.local --user audit --remote-path /srv/reports/latest.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if host == "" || user == "" || remotePath == "" {
				return fmt.Errorf("--host, --user and --remote-path are required")
			}
			ctx := cmd.Context()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			rep, err := store.GetReport(ctx, args[0])
			if err != nil {
				return err
			}

			local := filepath.Join(os.TempDir(), "pwdrift-"+rep.ID+".json")
			if err := rep.WriteFile(local); err != nil {
				return err
			}
			defer os.Remove(local)

			sshCfg := ssh.DefaultConfig(host, user)
			if keyPath != "" {
				sshCfg.PrivateKeyPath = keyPath
			}
			client, err := ssh.NewClient(sshCfg)
			if err != nil {
				return err
			}
			if err := client.Connect(ctx); err != nil {
				return err
			}
			defer client.Disconnect()

			info := client.ConnectionInfo()
			log.Debug().
				Str("host", info.Host).
				Int("port", info.Port).
				Str("user", info.User).
				Time("connected_at", info.ConnectedAt).
				Msg("SSH connection established")

			if err := client.UploadFile(ctx, local, remotePath, 0o644); err != nil {
				return err
			}
			log.Info().
				Str("report_id", rep.ID).
				Str("host", host).
				Str("path", remotePath).
				Msg("report published")
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "remote host to upload to")
	cmd.Flags().StringVar(&user, "user", "", "SSH user")
	cmd.Flags().StringVar(&remotePath, "remote-path", "", "destination path on the remote host")
	cmd.Flags().StringVar(&keyPath, "key", "", "SSH private key (defaults to ~/.ssh keys)")

	return cmd
}
