// ABOUTME: CRM CLI commands
// ABOUTME: Lists contacts, deals, and activity timelines created from field visits
package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/harperreed/workly/models"
	"github.com/spf13/cobra"
)

func newCRMCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "crm", Short: "Contacts, deals, and activities from visits"}
	cmd.AddCommand(newCRMContactsCmd(opts), newCRMDealsCmd(opts), newCRMActivitiesCmd(opts))
	return cmd
}

func newCRMContactsCmd(opts *globalOptions) *cobra.Command {
	var query string
	var limit int

	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "List or search contacts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *App) error {
				q := strings.ToLower(strings.TrimSpace(query))
				var contacts []models.Contact
				for _, c := range app.Service.CRM().Contacts() {
					if q != "" && !contactMatches(c, q) {
						continue
					}
					contacts = append(contacts, c)
					if limit > 0 && len(contacts) == limit {
						break
					}
				}
				if len(contacts) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no contacts")
					return nil
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tEMAIL\tPHONE\tSTREET")
				_, _ = fmt.Fprintln(tw, "--\t----\t------\t-----\t-----\t------")
				for _, c := range contacts {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						c.ID, c.Name(), c.LeadStatus, c.Email, c.Phone, c.Street)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "search name, email, phone, or street")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum contacts (0 for all)")
	return cmd
}

func contactMatches(c models.Contact, q string) bool {
	for _, field := range []string{c.Name(), c.Email, c.Phone, c.Street} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func newCRMDealsCmd(opts *globalOptions) *cobra.Command {
	var contactID, status string

	cmd := &cobra.Command{
		Use:   "deals",
		Short: "List deals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *App) error {
				deals := app.Service.CRM().Deals()
				if contactID != "" {
					id, err := uuid.Parse(contactID)
					if err != nil {
						return fmt.Errorf("invalid contact id: %w", err)
					}
					deals = app.Service.CRM().DealsForContact(id)
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tQUOTED\tQUOTE DATE")
				_, _ = fmt.Fprintln(tw, "--\t-----\t------\t------\t----------")
				var total float64
				count := 0
				for _, d := range deals {
					if status != "" && !strings.EqualFold(d.Status, status) {
						continue
					}
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t$%.2f\t%s\n",
						d.ID, d.Title, d.Status, d.QuotedPrice, d.QuoteDate.Local().Format("2006-01-02"))
					total += d.QuotedPrice
					count++
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%d deals, %s quoted\n", count, money(total))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&contactID, "contact", "", "only deals for this contact id")
	cmd.Flags().StringVar(&status, "status", "", "only deals with this status (Open, Won, Lost)")
	return cmd
}

func newCRMActivitiesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "activities <contact-id>",
		Short: "Show a contact's activity timeline, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid contact id: %w", err)
			}
			return withApp(opts, func(app *App) error {
				contact, ok := app.Service.CRM().Contact(id)
				if !ok {
					return fmt.Errorf("contact not found: %s", args[0])
				}

				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintln(w, titleStyle.Render(contact.Name()))
				for _, a := range app.Service.CRM().ActivitiesForContact(id) {
					_, _ = fmt.Fprintf(w, "%s  %s\n", a.Timestamp.Local().Format("2006-01-02 15:04"), a.Title)
					if a.Description != "" {
						_, _ = fmt.Fprintf(w, "    %s\n", endedStyle.Render(a.Description))
					}
				}
				return nil
			})
		},
	}
}
