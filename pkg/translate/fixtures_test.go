package translate

import (
	"time"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
)

func GranuleFixture() models.Granule {
	created := time.UnixMilli(1600000000000).UTC()
	return models.Granule{
		CumulusID:           7,
		GranuleID:           "g",
		CollectionCumulusID: 1,
		Status:              "completed",
		CreatedAt:           created,
		UpdatedAt:           created.Add(time.Second),
	}
}
