package cmd

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/leave-management/internal/calendar"
)

var (
	holidaysYear int
	holidaysFrom string
	holidaysTo   string
)

var holidaysCmd = &cobra.Command{
	Use:   "holidays",
	Short: "Print the public holiday table",
	Long:  `Print the public holidays of a year, including configured extra dates, and optionally the chargeable day count of a range.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		holidays, err := holidayCalendar(cfg.Leave)
		if err != nil {
			log.Fatal(err)
		}

		year := holidaysYear
		if year == 0 {
			year = time.Now().Year()
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "DATE\tDAY\tNAME\n")
		for _, h := range holidays.List(year) {
			fmt.Fprintf(w, "%s\t%s\t%s\n", h.Date.Format(time.DateOnly), h.Date.Weekday().String()[:3], h.Name)
		}
		_ = w.Flush()

		if holidaysFrom == "" && holidaysTo == "" {
			return
		}

		start, err := calendar.ParseDate(holidaysFrom)
		if err != nil {
			log.Fatalf("invalid --from: %v", err)
		}
		end, err := calendar.ParseDate(holidaysTo)
		if err != nil {
			log.Fatalf("invalid --to: %v", err)
		}
		if end.Before(start) {
			log.Fatal("--to must not be before --from")
		}

		counter := calendar.NewCounter(holidays, cfg.Leave.ExcludeHolidays)
		fmt.Printf("\n%s..%s: %d calendar day(s), %d business day(s), %d chargeable day(s)\n",
			holidaysFrom, holidaysTo,
			calendar.DaysInRange(start, end),
			calendar.BusinessDayCount(start, end),
			counter.Count(start, end))
	},
}

func init() {
	holidaysCmd.Flags().IntVar(&holidaysYear, "year", 0, "year to list (defaults to the current year)")
	holidaysCmd.Flags().StringVar(&holidaysFrom, "from", "", "range start, YYYY-MM-DD")
	holidaysCmd.Flags().StringVar(&holidaysTo, "to", "", "range end, YYYY-MM-DD")
}
