package domain

import "errors"

var (
	ErrInvalidID           = errors.New("invalid id")
	ErrInvalidName         = errors.New("invalid name")
	ErrInvalidTitle        = errors.New("invalid title")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidReportType   = errors.New("invalid report type")
	ErrInvalidReportStatus = errors.New("invalid report status")
	ErrInvalidPeriod       = errors.New("invalid period")
	ErrInvalidDateRange    = errors.New("invalid date range")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidProgress     = errors.New("invalid progress")
	ErrInvalidReference    = errors.New("invalid reference")
)
