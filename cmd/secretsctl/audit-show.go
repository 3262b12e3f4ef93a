package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/audit"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/db"
)

// auditShowCmd represents the audit show command
var auditShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show recent audit records",
	Long: `Show the most recent audit records of a user stored in the audit
database, newest first. Records of the calling user are shown by default.

Example:
  secretsctl audit show
  secretsctl audit show --uid 1000 --limit 50`,
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		uid, _ := cmd.Flags().GetUint32("uid")
		principal := "uid:" + strconv.FormatUint(uint64(uid), 10)

		if err := showAudit(cmd.OutOrStdout(), db.URL(), principal, limit); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show audit records: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	auditCmd.AddCommand(auditShowCmd)
	auditShowCmd.Flags().Uint32("uid", uint32(os.Getuid()), "user whose records are shown")
	auditShowCmd.Flags().IntP("limit", "n", 20, "number of records")
}

func showAudit(w io.Writer, dbURL, principal string, limit int) error {
	s, err := audit.NewStore(dbURL)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	messages, err := s.Recent(principal, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIMESTAMP\tOPERATION\tMESSAGE")
	for _, m := range messages {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Timestamp.Format(time.RFC3339), m.Msgid, m.Message)
	}
	return tw.Flush()
}
