package model

import "time"

// Storage keys under which the session is persisted.
const (
	StorageKeyAuthToken = "authToken"
	StorageKeyUserData  = "userData"
)

// ReportType selects the content of an admin report.
type ReportType string

const (
	ReportSummary   ReportType = "summary"
	ReportDetailed  ReportType = "detailed"
	ReportSales     ReportType = "sales"
	ReportInventory ReportType = "inventory"
)

// ReportFormat selects the file format of an admin report.
type ReportFormat string

const (
	ReportPDF   ReportFormat = "pdf"
	ReportCSV   ReportFormat = "csv"
	ReportExcel ReportFormat = "excel"
)

// Pagination defaults.
const DefaultPageSize = 10

var PageSizeOptions = []int{10, 25, 50, 100}

// Validation limits shared by the stores and the sandbox backend.
const (
	MinPasswordLength = 6
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MinRating         = 1
	MaxRating         = 5
)

// UI timings.
const (
	DebounceDelay = 300 * time.Millisecond
	ToastDuration = 5 * time.Second
	LoadingDelay  = 200 * time.Millisecond
)
