package domain

// SavingsInput holds the business metrics typed into the calculator.
type SavingsInput struct {
	Employees        int     `json:"employees"`
	AvgSalary        float64 `json:"avg_salary"`
	WorkHours        float64 `json:"work_hours"`
	TimesPerDay      int     `json:"times_per_day"`
	TimePerExecution float64 `json:"time_per_execution"`
	Activity         string  `json:"activity,omitempty"`
}

// SavingsResult is the projected time and money saved by automating the activity.
type SavingsResult struct {
	HoursWeek    float64 `json:"hours_week"`
	HoursMonth   float64 `json:"hours_month"`
	HoursYear    float64 `json:"hours_year"`
	SavingsWeek  float64 `json:"savings_week"`
	SavingsMonth float64 `json:"savings_month"`
	SavingsYear  float64 `json:"savings_year"`
}

// SavingsDisplay is the pt-BR rendering of a SavingsResult.
type SavingsDisplay struct {
	HoursWeek    string `json:"hours_week"`
	HoursMonth   string `json:"hours_month"`
	HoursYear    string `json:"hours_year"`
	SavingsWeek  string `json:"savings_week"`
	SavingsMonth string `json:"savings_month"`
	SavingsYear  string `json:"savings_year"`
}

// SavingsResponse is returned by POST /v1/calculator/savings.
// Result is nil when a required input is missing.
type SavingsResponse struct {
	Activity  string          `json:"activity,omitempty"`
	Result    *SavingsResult  `json:"result"`
	Formatted *SavingsDisplay `json:"formatted,omitempty"`
}
