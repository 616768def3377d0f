package app

import (
	"time"

	"restaurant_lives/internal/domain"
)

const FeedVersion = "1.0"

func FeedInfo(m domain.Municipality, now time.Time) domain.FeedInfo {
	return domain.FeedInfo{
		FeedDate:         now.Format("2006-01-02"),
		FeedVersion:      FeedVersion,
		MunicipalityName: m.Name,
		MunicipalityURL:  m.URL,
		ContactEmail:     m.ContactEmail,
	}
}

func Legend() []domain.LegendBand {
	return []domain.LegendBand{
		{MinScore: 70, MaxScore: 100, Description: "pass"},
		{MinScore: 0, MaxScore: 69, Description: "re-inspection required"},
	}
}
