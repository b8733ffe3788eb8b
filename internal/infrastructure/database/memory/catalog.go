package memory

import (
	"time"

	"github.com/google/uuid"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/domain/carrier"
)

var catalogSeededAt = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

// DefaultCatalog returns the built-in carrier behaviour catalog used when no
// persistent store is configured.  Rates and frequencies come from historical
// roofing-claim audits against market pricing.
func DefaultCatalog() []*carrier.CarrierPattern {
	return []*carrier.CarrierPattern{
		seed("State Farm", "Tear off composition shingles", -32.5, 0.78, 88, 312,
			carrier.StrategyOmit, "tear off", "disposal and dump fees", "felt underlayment"),
		seed("State Farm", "Drip edge", -18.2, 0.64, 82, 164,
			carrier.StrategyOmit, "drip edge", "eave metal"),
		seed("State Farm", "Ridge cap shingles", -26.4, 0.71, 85, 208,
			carrier.StrategyUndervalue, "ridge cap", "hip and ridge"),
		seed("State Farm", "Step flashing", -41.0, 0.58, 79, 143,
			carrier.StrategyOmit, "step flashing", "wall flashing"),
		seed("State Farm", "Steep slope charge", -52.3, 0.49, 74, 96,
			carrier.StrategyDenyModifier, "steep charge", "additional labor"),
		seed("Allstate", "Tear off composition shingles", -21.7, 0.69, 84, 251,
			carrier.StrategyOmit, "tear off", "haul off debris"),
		seed("Allstate", "Ice and water shield", -35.8, 0.55, 77, 118,
			carrier.StrategyUndervalue, "ice and water", "eave protection"),
		seed("Allstate", "Ridge vent", -12.9, 0.47, 72, 89,
			carrier.StrategyZeroCost, "ridge vent", "exhaust ventilation"),
		seed("USAA", "Drip edge", -8.4, 0.38, 68, 74,
			carrier.StrategyOmit, "drip edge"),
		seed("USAA", "Gutter apron", -15.6, 0.44, 70, 81,
			carrier.StrategyDenyCoverage, "gutter apron", "fascia metal"),
		seed("Liberty Mutual", "Replace arch shingles", -28.9, 0.66, 83, 197,
			carrier.StrategyUndervalue, "arch shgl", "laminated shingles"),
		seed("Liberty Mutual", "Chimney flashing rem and rep", -44.2, 0.52, 76, 107,
			carrier.StrategyOmit, "chimney flashing", "counter flashing"),
	}
}

// NewSeededRepository is the common entry point for the default in-memory
// store: a repository pre-loaded with DefaultCatalog.
func NewSeededRepository() (*PatternRepository, error) {
	return NewPatternRepository(DefaultCatalog())
}

func seed(carrierName, item string, rate, frequency, confidence float64, count int, strategy carrier.Strategy, gaps ...string) *carrier.CarrierPattern {
	return &carrier.CarrierPattern{
		ID:                  uuid.NewSHA1(uuid.NameSpaceOID, []byte(carrier.PatternKey(carrierName, item))),
		CarrierName:         carrierName,
		LineItemDescription: item,
		UnderpaymentRate:    rate,
		Frequency:           frequency,
		TypicalGaps:         gaps,
		CommonStrategy:      strategy,
		HistoricalCount:     count,
		Confidence:          confidence,
		CreatedAt:           catalogSeededAt,
		UpdatedAt:           catalogSeededAt,
	}
}
