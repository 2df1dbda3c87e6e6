package domain

import (
	"context"
	"errors"
	"time"
)

var ErrMembershipStoreNotConfigured = errors.New("membership_store_not_configured")

// MonthlyMetric is one bucket of the trailing twelve-month report.
type MonthlyMetric struct {
	Month             string  `json:"month"`
	MonthLabel        string  `json:"monthLabel"`
	MembershipRevenue float64 `json:"membershipRevenue"`
	OtherRevenue      float64 `json:"otherRevenue"`
	NewMemberships    int     `json:"newMemberships"`
	Renewals          int     `json:"renewals"`
	Churns            int     `json:"churns"`
}

// MonthlyAverages holds one average per calendar month name, across all years.
type MonthlyAverages struct {
	January   float64 `json:"January"`
	February  float64 `json:"February"`
	March     float64 `json:"March"`
	April     float64 `json:"April"`
	May       float64 `json:"May"`
	June      float64 `json:"June"`
	July      float64 `json:"July"`
	August    float64 `json:"August"`
	September float64 `json:"September"`
	October   float64 `json:"October"`
	November  float64 `json:"November"`
	December  float64 `json:"December"`
}

// Set stores the average for month.
func (m *MonthlyAverages) Set(month time.Month, value float64) {
	switch month {
	case time.January:
		m.January = value
	case time.February:
		m.February = value
	case time.March:
		m.March = value
	case time.April:
		m.April = value
	case time.May:
		m.May = value
	case time.June:
		m.June = value
	case time.July:
		m.July = value
	case time.August:
		m.August = value
	case time.September:
		m.September = value
	case time.October:
		m.October = value
	case time.November:
		m.November = value
	case time.December:
		m.December = value
	}
}

// Get returns the average for month.
func (m MonthlyAverages) Get(month time.Month) float64 {
	switch month {
	case time.January:
		return m.January
	case time.February:
		return m.February
	case time.March:
		return m.March
	case time.April:
		return m.April
	case time.May:
		return m.May
	case time.June:
		return m.June
	case time.July:
		return m.July
	case time.August:
		return m.August
	case time.September:
		return m.September
	case time.October:
		return m.October
	case time.November:
		return m.November
	case time.December:
		return m.December
	}
	return 0
}

type ProductMonthlyAverages struct {
	ProductID       string          `json:"productId"`
	ProductName     string          `json:"productName"`
	MonthlyAverages MonthlyAverages `json:"monthlyAverages"`
}

type Report struct {
	Metrics         []MonthlyMetric          `json:"metrics"`
	ProductAverages []ProductMonthlyAverages `json:"productAverages"`
}

// AggregationError reports the pass that failed. Its message is the
// originating error message.
type AggregationError struct {
	Pass string
	Err  error
}

func (e *AggregationError) Error() string {
	if e.Err == nil {
		return "membership_report_failed"
	}
	return e.Err.Error()
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}

type Service interface {
	Aggregate(ctx context.Context) (Report, error)
}
