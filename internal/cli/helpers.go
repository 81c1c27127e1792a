package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"tracker/internal/core"
)

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitFailure, fmt.Sprintf("invalid id %q", arg))
	}
	return id, nil
}

func notFound(kind string, id int64) error {
	return NewExitError(ExitNotFound, fmt.Sprintf("%s %d not found", kind, id))
}

// failed wraps a service error as a rejected operation.
func failed(message string, err error) error {
	return WrapExitError(ExitFailure, message, err)
}

// changed returns the flag value when the user set it, nil otherwise.
func changed(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func optionalDate(cmd *cobra.Command, name string) (*core.Date, error) {
	raw := changed(cmd, name)
	if raw == nil {
		return nil, nil
	}
	d, err := core.ParseDate(*raw)
	if err != nil {
		return nil, failed("invalid --"+name, err)
	}
	return &d, nil
}

func formatMoney(m core.Money) string {
	return core.FormatMoney(m, language.AmericanEnglish, currency.USD)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}
