package types

type SeriesRange string

const (
	Daily   SeriesRange = "daily"
	Weekly  SeriesRange = "weekly"
	Monthly SeriesRange = "monthly"
)

var ConvertSeriesRange = map[string]SeriesRange{
	"daily":   Daily,
	"weekly":  Weekly,
	"monthly": Monthly,
}
