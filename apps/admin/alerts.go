package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/absences/core/notification"
)

// alerts lists the students above the alert threshold. With notify, their parents get the alert message.
func (cli *commandLine) alerts(notify, yes bool) error {
	pending := cli.trk.PendingAlerts()
	if len(pending) == 0 {
		fmt.Fprintf(cli.out, "no student above %d unjustified half-days\n", cli.trk.AlertThreshold())
		return nil
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STUDENT\tCLASS\tUNJUSTIFIED\tCONTACT\tLAST ALERT")
	for _, row := range pending {
		lastAlert := "never"
		if entry, ok := cli.trk.LastNotification(row.ID, notification.KindAlert); ok {
			lastAlert = entry.Timestamp.Format(time.DateOnly)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", row.FullName(), row.Class, row.Summary.TotalUnjustified, row.ParentEmail, lastAlert)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if !notify {
		return nil
	}

	if !yes {
		if err := cli.confirm(fmt.Sprintf("Send the alert message to %d parents?", len(pending))); err != nil {
			return err
		}
	}
	ctx := context.Background()
	for _, row := range pending {
		if _, err := cli.trk.Notify(ctx, row.ID, notification.KindAlert, nil); err != nil {
			return errors.Wrapf(err, "alerting the parents of %s", row.FullName())
		}
		fmt.Fprintf(cli.out, "alert sent to %s\n", row.ParentEmail)
	}
	return nil
}
