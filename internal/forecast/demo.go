package forecast

import (
	"math"
	"time"

	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/utils"
)

const (
	demoStartingCash = 150000
	demoDailyNetFlow = -500
)

// demo builds the fixed trajectory served when no data was uploaded.
func demo(horizon int, now time.Time) *models.Forecast {
	scenarios := models.Scenarios{
		Base:        make([]models.ForecastPoint, 0, horizon),
		Optimistic:  make([]models.ForecastPoint, 0, horizon),
		Pessimistic: make([]models.ForecastPoint, 0, horizon),
	}

	currentCash := float64(demoStartingCash)
	for day := 1; day <= horizon; day++ {
		currentCash += demoDailyNetFlow
		date := dateFor(now, day)

		// optimistic burns 30% less, pessimistic 50% more
		scenarios.Base = append(scenarios.Base, models.ForecastPoint{
			Date: date, Day: day, Value: math.Max(0, utils.Round(currentCash)),
		})
		scenarios.Optimistic = append(scenarios.Optimistic, models.ForecastPoint{
			Date: date, Day: day, Value: math.Max(0, utils.Round(currentCash+demoDailyNetFlow*-0.3)),
		})
		scenarios.Pessimistic = append(scenarios.Pessimistic, models.ForecastPoint{
			Date: date, Day: day, Value: math.Max(0, utils.Round(currentCash+demoDailyNetFlow*0.5)),
		})
	}

	return &models.Forecast{
		Horizon:        horizon,
		StartingCash:   demoStartingCash,
		DailyNetFlow:   demoDailyNetFlow,
		MonthlyNetFlow: demoDailyNetFlow * 30,
		Volatility:     defaultVolatility,
		Forecasts:      scenarios,
		BreakRisk: models.BreakRisk{
			Probability:  0.23,
			DaysToBreak:  utils.IntPtr(int(utils.Round(demoStartingCash / math.Abs(demoDailyNetFlow*1.5)))),
			RunwayMonths: utils.FloatPtr(utils.RoundTo(demoStartingCash/math.Abs(demoDailyNetFlow*30), 1)),
		},
		Metadata: models.ForecastMetadata{
			DataPoints: 0,
			DemoMode:   true,
		},
	}
}
