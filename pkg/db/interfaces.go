package db

import "context"

// InputSource serves the provider, tag and site demand tables.
// Both the SheetsSQL-backed db.DB and postgres.DB implement this interface.
type InputSource interface {
	GetProviders(ctx context.Context) ([]ProviderRow, error)
	GetProviderTags(ctx context.Context) ([]TagRow, error)
	GetSiteDemand(ctx context.Context) ([]SiteDemandRow, error)
}

// AvailabilitySource serves unavailable dates keyed by the name as recorded.
// postgres.DB implements it directly; document directories are adapted by the services package.
type AvailabilitySource interface {
	GetUnavailableDates(ctx context.Context) ([]UnavailableDate, error)
}
