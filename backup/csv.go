package backup

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/warp/shift-earnings/earnings"
)

var csvHeader = []string{
	"Date", "Job", "Start", "End", "Hours", "Type",
	"Regular", "Overtime", "Special", "Bonus", "Total", "Notes",
}

// WriteShiftsCSV writes one row per completed shift in start order, with
// money rounded to cents. Shifts of missing jobs are written with zero pay.
func WriteShiftsCSV(w io.Writer, h *earnings.History, calc *earnings.Calculator) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, s := range h.CompletedShifts() {
		job, _ := h.Job(s.JobID)
		b := calc.ShiftEarnings(h, s)
		row := []string{
			s.StartTime.Format(time.DateOnly),
			job.Name,
			s.StartTime.Format("15:04"),
			s.EndTime.Format("15:04"),
			b.Hours.StringFixed(2),
			string(s.ShiftType),
			b.Regular.StringFixed(2),
			b.Overtime.StringFixed(2),
			b.Special.StringFixed(2),
			b.Bonus.StringFixed(2),
			b.Total().StringFixed(2),
			s.Notes,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
