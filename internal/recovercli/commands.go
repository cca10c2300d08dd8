package recovercli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"facility-intake-backend/internal/config"
	"facility-intake-backend/internal/types"
)

const noSubmission = "No submission has been archived."

func newShowCmd(env Env, resolve func() config.Config) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the archived submission",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadLast(cmd.Context(), env, resolve())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if p == nil {
				fmt.Fprintln(out, noSubmission)
				return nil
			}
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}
			printSummary(out, p)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full payload as JSON")
	return cmd
}

func newResubmitCmd(env Env, resolve func() config.Config) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "resubmit",
		Short: "Send the archived submission to the backend again",
		Long:  "Without --yes only a summary of what would be sent is printed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := resolve()
			p, err := loadLast(cmd.Context(), env, cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if p == nil {
				fmt.Fprintln(out, noSubmission)
				return nil
			}
			printSummary(out, p)
			if !confirm {
				fmt.Fprintln(out, "\nDry run. Re-run with --yes to submit.")
				return nil
			}
			sub, err := env.OpenSubmitter(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			res, err := sub.SubmitIntake(cmd.Context(), *p)
			if err != nil {
				return fmt.Errorf("resubmission failed: %w", err)
			}
			fmt.Fprintln(out, "\nSubmitted.")
			if res.Value.ReferenceID != "" {
				fmt.Fprintf(out, "Reference: %s\n", res.Value.ReferenceID)
			}
			if res.Value.Message != "" {
				fmt.Fprintln(out, res.Value.Message)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Actually submit")
	return cmd
}

func printSummary(w io.Writer, p *types.SurveyPayload) {
	services := append([]string(nil), p.Services...)
	if p.OtherService != "" {
		services = append(services, p.OtherService)
	}
	fmt.Fprintf(w, "Company:      %s\n", p.CompanyName)
	fmt.Fprintf(w, "Property:     %s\n", p.PropertyName)
	fmt.Fprintf(w, "Contact:      %s <%s>\n", p.ContactName, p.Email)
	fmt.Fprintf(w, "Services:     %s\n", strings.Join(services, ", "))
	fmt.Fprintf(w, "Unit / area:  %s\n", p.UnitInfo)
	fmt.Fprintf(w, "Timeline:     %s\n", p.Timeline)
	fmt.Fprintf(w, "Attachments:  %d\n", len(p.Attachments))
}
