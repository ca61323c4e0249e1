package service

import (
	"github.com/e5digital/leads-bfa-go/internal/domain"
	"github.com/e5digital/leads-bfa-go/internal/format"
)

const (
	minutesPerHour      = 60.0
	workDaysPerWeek     = 5.0
	avgWeeksPerMonth    = 4.33
	monthsPerYear       = 12.0
	workingDaysPerMonth = 22.0
)

// CalculateSavings projects the hours and labor cost spent on a repetitive
// activity. ok is false when any required input is missing or not positive.
func CalculateSavings(in domain.SavingsInput) (result domain.SavingsResult, ok bool) {
	if in.Employees <= 0 || in.AvgSalary <= 0 || in.WorkHours <= 0 ||
		in.TimesPerDay <= 0 || in.TimePerExecution <= 0 {
		return domain.SavingsResult{}, false
	}

	totalDailyMinutes := float64(in.TimesPerDay) * in.TimePerExecution * float64(in.Employees)

	hoursDay := totalDailyMinutes / minutesPerHour
	hoursWeek := hoursDay * workDaysPerWeek
	hoursMonth := hoursWeek * avgWeeksPerMonth
	hoursYear := hoursMonth * monthsPerYear

	costPerHour := in.AvgSalary / (in.WorkHours * workingDaysPerMonth)

	return domain.SavingsResult{
		HoursWeek:    hoursWeek,
		HoursMonth:   hoursMonth,
		HoursYear:    hoursYear,
		SavingsWeek:  hoursWeek * costPerHour,
		SavingsMonth: hoursMonth * costPerHour,
		SavingsYear:  hoursYear * costPerHour,
	}, true
}

// DisplaySavings renders a result the way the calculator card shows it.
func DisplaySavings(r domain.SavingsResult) *domain.SavingsDisplay {
	return &domain.SavingsDisplay{
		HoursWeek:    format.Hours(r.HoursWeek, 1),
		HoursMonth:   format.Hours(r.HoursMonth, 1),
		HoursYear:    format.Hours(r.HoursYear, 0),
		SavingsWeek:  format.BRL(r.SavingsWeek),
		SavingsMonth: format.BRL(r.SavingsMonth),
		SavingsYear:  format.BRL(r.SavingsYear),
	}
}
